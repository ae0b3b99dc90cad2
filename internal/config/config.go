package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// Config собирается из окружения один раз при старте.
type Config struct {
	SheetID  string `envconfig:"SHEET_ID" default:"16O_X25CT3tqHbk6y_ebBilx_oMy0wddA3PH0-YpwEGo"`
	SheetGID string `envconfig:"SHEET_GID" default:"0"`

	// Базовый URL входящего вебхука Bitrix24, вида
	// https://<portal>.bitrix24.ru/rest/<user>/<token>
	BitrixWebhookBase string `envconfig:"BITRIX24_WEBHOOK_BASE" required:"true"`
	BitrixSourceID    string `envconfig:"BITRIX_SOURCE_ID" default:"UC_Y3Q75D"`

	// Ответственные и их дневные лимиты: "id:cap,id,id:cap",
	// без ":cap" — без лимита.
	AssignedIDs string `envconfig:"ASSIGNED_IDS" default:"21392:4,24518,14804:6"`

	SQLiteDSN string `envconfig:"LEADS_SQLITE_DSN" default:"leads.db"`
	Port      string `envconfig:"PORT" default:"8282"`

	TelegramToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminChatIDs  string `envconfig:"ADMIN_CHAT_IDS"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Representatives разбирает ASSIGNED_IDS в упорядоченный список менеджеров.
func (c *Config) Representatives() ([]domain.Representative, error) {
	reps := []domain.Representative{}
	for _, part := range strings.Split(c.AssignedIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idStr, capStr, hasCap := strings.Cut(part, ":")
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, fmt.Errorf("assigned ids: bad id %q", part)
		}
		rep := domain.Representative{ID: id}
		if hasCap {
			dailyCap, err := strconv.Atoi(strings.TrimSpace(capStr))
			if err != nil || dailyCap < 1 {
				return nil, fmt.Errorf("assigned ids: bad cap %q", part)
			}
			rep.DailyCap = dailyCap
		}
		reps = append(reps, rep)
	}
	if len(reps) == 0 {
		return nil, fmt.Errorf("assigned ids: empty list")
	}
	return reps, nil
}

// AdminChats разбирает ADMIN_CHAT_IDS; мусорные элементы пропускаются.
func (c *Config) AdminChats() []int64 {
	ids := []int64{}
	for _, part := range strings.Split(c.AdminChatIDs, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if id, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
