package telegram

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// Notifier шлет админам короткое сообщение о каждом новом лиде.
// Канал необязательный: сбой отправки логируется и инжест не прерывает.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatIDs []int64
	logger  *slog.Logger
}

func NewNotifier(token string, chatIDs []int64, logger *slog.Logger) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	bot.Debug = false
	return &Notifier{bot: bot, chatIDs: chatIDs, logger: logger}, nil
}

func (n *Notifier) NotifyNewLead(f domain.LeadFields, assignedID int) {
	var b strings.Builder
	b.WriteString("Новый лид")
	name := strings.TrimSpace(f.FirstName + " " + f.LastName)
	if name != "" {
		b.WriteString(": " + name)
	}
	if f.Phone != "" {
		fmt.Fprintf(&b, "\nТелефон: %s", f.Phone)
	}
	if f.City != "" {
		fmt.Fprintf(&b, "\nГород: %s", f.City)
	}
	fmt.Fprintf(&b, "\nОтветственный: %d", assignedID)

	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, b.String())
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error("telegram notify failed", "chat_id", chatID, "error", err)
		}
	}
}
