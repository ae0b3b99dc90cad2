package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// SheetSource отдает текущую полную выгрузку таблицы (с кешированием внутри).
type SheetSource interface {
	Rows(ctx context.Context) ([]domain.Row, error)
}

// LeadDelivery — внешний канал доставки лида (Bitrix24).
// contactID == 0 означает «контакт не создан».
type LeadDelivery interface {
	CreateContact(ctx context.Context, fields domain.LeadFields, assignedID int) (int64, error)
	CreateLead(ctx context.Context, contactID int64, fields domain.LeadFields, assignedID int) (int64, error)
}

// LeadNotifier — необязательное оповещение о новом лиде (Telegram).
type LeadNotifier interface {
	NotifyNewLead(fields domain.LeadFields, assignedID int)
}

// IngestUsecase — сквозной сценарий «найти новые строки и отправить лиды».
type IngestUsecase struct {
	mu        sync.Mutex // одновременно выполняется не больше одного прогона
	source    SheetSource
	watermark domain.WatermarkRepository
	history   domain.HistoryRepository
	rotator   *Rotator
	crm       LeadDelivery
	notifier  LeadNotifier
	logger    *slog.Logger
}

func NewIngestUsecase(source SheetSource, watermark domain.WatermarkRepository, history domain.HistoryRepository, rotator *Rotator, crm LeadDelivery, logger *slog.Logger) *IngestUsecase {
	return &IngestUsecase{
		source:    source,
		watermark: watermark,
		history:   history,
		rotator:   rotator,
		crm:       crm,
		logger:    logger,
	}
}

func (u *IngestUsecase) SetNotifier(n LeadNotifier) { u.notifier = n }

// Run выполняет один прогон инжеста:
//  1. забирает текущую выгрузку;
//  2. вычисляет новые строки относительно watermark (при первом запуске
//     базой становится только последняя строка, без бэкафила);
//  3. сохраняет watermark и историю до какой-либо отправки, чтобы сбой
//     отправки или падение процесса не привели к повторной обработке;
//  4. отправляет каждую не-dummy строку в CRM, сбои отдельных строк
//     друг на друга не влияют.
//
// Возвращает новые строки независимо от исхода отправок.
func (u *IngestUsecase) Run(ctx context.Context) ([]domain.Row, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	rows, err := u.source.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheet fetch: %w", err)
	}
	if len(rows) == 0 {
		return []domain.Row{}, nil
	}

	lastIdx := u.watermark.Get()
	curLast := len(rows) - 1

	var newRows []domain.Row
	switch {
	case lastIdx == -1:
		newRows = rows[curLast:]
	case curLast > lastIdx:
		newRows = rows[lastIdx+1:]
	}

	// Источник только дописывается в конец; если строк стало меньше,
	// watermark не откатываем.
	if curLast > lastIdx {
		if err := u.watermark.Set(curLast); err != nil {
			return nil, fmt.Errorf("watermark save: %w", err)
		}
	}
	if err := u.history.Append(newRows); err != nil {
		return nil, fmt.Errorf("history append: %w", err)
	}

	for _, row := range newRows {
		u.SubmitRow(ctx, row)
	}

	if len(newRows) == 0 {
		newRows = []domain.Row{}
	}
	return newRows, nil
}

// SubmitRow отправляет одну строку в Bitrix24: контакт, затем лид.
// Ошибки CRM логируются и не прерывают обработку остальных строк.
func (u *IngestUsecase) SubmitRow(ctx context.Context, row domain.Row) {
	if IsDummyRow(row) {
		u.logger.Info("dummy row, skipping crm submission")
		return
	}

	fields := ExtractLeadFields(row)
	assignedID := u.rotator.Next()

	contactID, err := u.crm.CreateContact(ctx, fields, assignedID)
	if err != nil {
		u.logger.Error("bitrix contact create failed", "error", err)
	}

	leadID, err := u.crm.CreateLead(ctx, contactID, fields, assignedID)
	if err != nil {
		u.logger.Error("bitrix lead create failed", "error", err)
		return
	}
	u.logger.Info("bitrix lead created", "lead_id", leadID, "assigned_id", assignedID)

	if u.notifier != nil {
		u.notifier.NotifyNewLead(fields, assignedID)
	}
}

// History отдает всю историю инжеста.
func (u *IngestUsecase) History() []domain.HistoryEntry {
	return u.history.Load()
}

// HistoryWithBaseline ведет себя как History, но при пустой истории
// инициализирует базу: последняя строка выгрузки попадает в историю,
// watermark встает на ее индекс. Держит тот же мьютекс, что и Run:
// посев базы — такая же мутация watermark и истории, как прогон.
func (u *IngestUsecase) HistoryWithBaseline(ctx context.Context) []domain.HistoryEntry {
	u.mu.Lock()
	defer u.mu.Unlock()

	entries := u.history.Load()
	if len(entries) > 0 {
		return entries
	}

	rows, err := u.source.Rows(ctx)
	if err != nil || len(rows) == 0 {
		return entries
	}
	last := rows[len(rows)-1]
	if err := u.history.Append([]domain.Row{last}); err != nil {
		u.logger.Error("history baseline append failed", "error", err)
		return entries
	}
	if err := u.watermark.Set(len(rows) - 1); err != nil {
		u.logger.Error("watermark baseline save failed", "error", err)
	}
	return u.history.Load()
}
