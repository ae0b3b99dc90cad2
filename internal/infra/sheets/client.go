package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// Client забирает CSV-выгрузку Google-таблицы и держит ее в кеше,
// чтобы не дергать экспорт чаще раза в 30 секунд.
type Client struct {
	url        string
	ttl        time.Duration
	httpClient *http.Client

	mu        sync.Mutex
	cached    []domain.Row
	fetchedAt time.Time
	now       func() time.Time
}

func NewClient(sheetID, gid string, opts ...func(*Client)) *Client {
	c := &Client{
		url:        fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", sheetID, gid),
		ttl:        30 * time.Second,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithExportURL(url string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(url) != "" {
			c.url = url
		}
	}
}

func WithTTL(ttl time.Duration) func(*Client) {
	return func(c *Client) { c.ttl = ttl }
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(now func() time.Time) func(*Client) {
	return func(c *Client) { c.now = now }
}

// Rows возвращает полную текущую последовательность строк. Свежий кеш
// отдается без похода в сеть; при ошибке выгрузки кеш не трогается и
// как fallback не используется — наверх уходит ошибка.
func (c *Client) Rows(ctx context.Context) ([]domain.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cached) > 0 && c.now().Sub(c.fetchedAt) < c.ttl {
		return copyRows(c.cached), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("sheet export non-2xx: %d: %s", resp.StatusCode, string(body))
	}

	rows, err := parseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sheet csv: %w", err)
	}

	c.cached = rows
	c.fetchedAt = c.now()
	return copyRows(rows), nil
}

// copyRows отдает копию кеша: строки уходят наружу через HTTP-слой,
// и чужая мутация не должна портить закешированную выгрузку.
func copyRows(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	for i, row := range rows {
		cp := make(domain.Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// parseCSV разбирает выгрузку в упорядоченные мапы по заголовку,
// как csv.DictReader: первая строка — имена колонок.
func parseCSV(r io.Reader) ([]domain.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return []domain.Row{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []domain.Row{}
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := domain.Row{}
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
