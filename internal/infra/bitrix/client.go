package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// Ключи пользовательских полей лида в Bitrix24.
const (
	financingFieldKey = "UF_CRM_1764145745359" // способ оформления
	carParamsFieldKey = "UF_CRM_1764147591069" // параметры авто
)

const leadTitlePrefix = "Лид из META"

// Client отправляет контакты и лиды в Bitrix24 через входящий вебхук.
// Учетные данные зашиты в базовый URL вебхука (.../rest/<user>/<token>).
type Client struct {
	webhookBase string
	sourceID    string
	httpClient  *http.Client
	logger      *slog.Logger

	mu        sync.Mutex
	lastDebug domain.DebugRecord
	hasDebug  bool
}

func NewClient(webhookBase, sourceID string, logger *slog.Logger, opts ...func(*Client)) *Client {
	c := &Client{
		webhookBase: strings.TrimRight(webhookBase, "/"),
		sourceID:    sourceID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) { c.httpClient = hc }
}

type contactPoint struct {
	Value     string `json:"VALUE"`
	ValueType string `json:"VALUE_TYPE"`
}

type addResponse struct {
	Result int64 `json:"result"`
}

// CreateContact создает контакт. Полностью пустой контакт (ни имени, ни
// фамилии, ни телефона, ни почты) не создается — возвращается 0 без
// похода в сеть.
func (c *Client) CreateContact(ctx context.Context, f domain.LeadFields, assignedID int) (int64, error) {
	if c == nil {
		return 0, errors.New("bitrix client is nil")
	}
	if f.FirstName == "" && f.LastName == "" && f.Phone == "" && f.Email == "" {
		c.logger.Info("empty contact, skipping create")
		return 0, nil
	}

	fields := map[string]any{
		"NAME":           f.FirstName,
		"LAST_NAME":      f.LastName,
		"ASSIGNED_BY_ID": assignedID,
	}
	if f.Phone != "" {
		fields["PHONE"] = []contactPoint{{Value: f.Phone, ValueType: "WORK"}}
	}
	if f.Email != "" {
		fields["EMAIL"] = []contactPoint{{Value: f.Email, ValueType: "WORK"}}
	}

	return c.post(ctx, c.webhookBase+"/crm.contact.add", map[string]any{"fields": fields}, false)
}

// CreateLead создает лид. Попытка (запрос, ответ или ошибка) целиком
// попадает в DebugRecord независимо от исхода.
func (c *Client) CreateLead(ctx context.Context, contactID int64, f domain.LeadFields, assignedID int) (int64, error) {
	if c == nil {
		return 0, errors.New("bitrix client is nil")
	}

	title := leadTitlePrefix
	if f.FirstName != "" || f.LastName != "" {
		title += ": " + strings.TrimSpace(f.FirstName+" "+f.LastName)
	}

	fields := map[string]any{
		"TITLE":          title,
		"NAME":           f.FirstName,
		"LAST_NAME":      f.LastName,
		"SOURCE_ID":      c.sourceID,
		"ASSIGNED_BY_ID": assignedID,
	}
	if f.Phone != "" {
		fields["PHONE"] = []contactPoint{{Value: f.Phone, ValueType: "WORK"}}
	}
	if f.Email != "" {
		fields["EMAIL"] = []contactPoint{{Value: f.Email, ValueType: "WORK"}}
	}
	if f.Comment != "" {
		fields["COMMENTS"] = f.Comment
	}
	if f.FinancingCode != 0 {
		fields[financingFieldKey] = f.FinancingCode
	}
	if len(f.CarParamCodes) > 0 {
		fields[carParamsFieldKey] = f.CarParamCodes
	}
	// Бюджет отправляем всегда, даже нулевой.
	fields["OPPORTUNITY"] = f.Budget
	fields["CURRENCY_ID"] = "EUR"
	if contactID != 0 {
		fields["CONTACT_ID"] = contactID
	}

	return c.post(ctx, c.webhookBase+"/crm.lead.add", map[string]any{"fields": fields}, true)
}

// LastDebug возвращает снимок последней попытки создания лида.
func (c *Client) LastDebug() (domain.DebugRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDebug, c.hasDebug
}

func (c *Client) setDebug(rec domain.DebugRecord) {
	c.mu.Lock()
	c.lastDebug = rec
	c.hasDebug = true
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, url string, payload map[string]any, debug bool) (int64, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if debug {
			c.setDebug(domain.DebugRecord{RequestPayload: payload, Exception: err.Error()})
		}
		return 0, err
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if debug {
		c.setDebug(domain.DebugRecord{
			RequestPayload: payload,
			ResponseText:   string(text),
			StatusCode:     resp.StatusCode,
		})
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("bitrix non-200: %d: %s", resp.StatusCode, truncate(string(text), 300))
	}

	var out addResponse
	if err := json.Unmarshal(text, &out); err != nil {
		// снимок со статусом 200 без ошибки выглядел бы как успех —
		// фиксируем, что ответ не разобрался
		if debug {
			c.setDebug(domain.DebugRecord{
				RequestPayload: payload,
				ResponseText:   string(text),
				StatusCode:     resp.StatusCode,
				Exception:      "response decode: " + err.Error(),
			})
		}
		return 0, fmt.Errorf("bitrix response decode: %w", err)
	}
	return out.Result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
