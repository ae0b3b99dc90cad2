package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
	"github.com/nobilauto-it/Meta-Leads/internal/infra/memory"
)

type fakeSource struct {
	rows []domain.Row
	err  error
}

func (s *fakeSource) Rows(_ context.Context) ([]domain.Row, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type crmCall struct {
	contactID  int64
	assignedID int
	fields     domain.LeadFields
}

type fakeCRM struct {
	contactCalls []crmCall
	leadCalls    []crmCall
	contactErr   error
	leadErr      error
	nextID       int64
}

func (c *fakeCRM) CreateContact(_ context.Context, f domain.LeadFields, assignedID int) (int64, error) {
	c.contactCalls = append(c.contactCalls, crmCall{assignedID: assignedID, fields: f})
	if c.contactErr != nil {
		return 0, c.contactErr
	}
	c.nextID++
	return c.nextID, nil
}

func (c *fakeCRM) CreateLead(_ context.Context, contactID int64, f domain.LeadFields, assignedID int) (int64, error) {
	c.leadCalls = append(c.leadCalls, crmCall{contactID: contactID, assignedID: assignedID, fields: f})
	if c.leadErr != nil {
		return 0, c.leadErr
	}
	c.nextID++
	return c.nextID, nil
}

func leadRow(name, phone string) domain.Row {
	return domain.Row{"full_name": name, "phone_number": phone}
}

func newTestIngest(source SheetSource, crm LeadDelivery) (*IngestUsecase, *memory.WatermarkRepo, *memory.HistoryRepo) {
	watermark := memory.NewWatermarkRepo()
	history := memory.NewHistoryRepo()
	rotator := NewRotator([]domain.Representative{{ID: 7}}, testLogger())
	return NewIngestUsecase(source, watermark, history, rotator, crm, testLogger()), watermark, history
}

func TestIngestInitialBaseline(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{
		leadRow("Ion", "069000001"),
		leadRow("Ana", "069000002"),
		leadRow("Vasile", "069000003"),
	}}
	crm := &fakeCRM{}
	u, watermark, history := newTestIngest(source, crm)

	newRows, err := u.Run(context.Background())
	require.NoError(t, err)

	// при первом запуске базой становится только последняя строка
	require.Len(t, newRows, 1)
	assert.Equal(t, "Vasile", newRows[0]["full_name"])
	assert.Equal(t, 2, watermark.Get())
	assert.Len(t, history.Load(), 1)
	assert.Len(t, crm.leadCalls, 1)
}

func TestIngestIdempotence(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{leadRow("Ion", "069000001")}}
	crm := &fakeCRM{}
	u, watermark, history := newTestIngest(source, crm)

	first, err := u.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 0, watermark.Get())
	assert.Len(t, history.Load(), 1)
	assert.Len(t, crm.leadCalls, 1)
}

func TestIngestNewRowsAfterWatermark(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{leadRow("Ion", "069000001")}}
	crm := &fakeCRM{}
	u, watermark, history := newTestIngest(source, crm)

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	source.rows = append(source.rows,
		leadRow("Ana", "069000002"),
		leadRow("Vasile", "069000003"),
	)

	newRows, err := u.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, newRows, 2)
	assert.Equal(t, "Ana", newRows[0]["full_name"])
	assert.Equal(t, "Vasile", newRows[1]["full_name"])
	assert.Equal(t, 2, watermark.Get())
	assert.Len(t, history.Load(), 3)
	assert.Len(t, crm.leadCalls, 3)
}

func TestIngestWatermarkNeverDecreases(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{
		leadRow("Ion", "069000001"),
		leadRow("Ana", "069000002"),
		leadRow("Vasile", "069000003"),
	}}
	crm := &fakeCRM{}
	u, watermark, _ := newTestIngest(source, crm)

	_, err := u.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, watermark.Get())

	// источник «усох» — watermark не откатывается
	source.rows = source.rows[:1]
	newRows, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, newRows)
	assert.Equal(t, 2, watermark.Get())
}

func TestIngestDummyRow(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{leadRow("Ion", "069000001")}}
	crm := &fakeCRM{}
	u, watermark, history := newTestIngest(source, crm)

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	source.rows = append(source.rows, domain.Row{"full_name": "DUMMY test", "phone_number": "000"})

	newRows, err := u.Run(context.Background())
	require.NoError(t, err)

	// dummy попадает в историю и двигает watermark, но в CRM не уходит
	require.Len(t, newRows, 1)
	assert.Equal(t, 1, watermark.Get())
	assert.Len(t, history.Load(), 2)
	assert.Len(t, crm.leadCalls, 1)
	assert.Len(t, crm.contactCalls, 1)
}

func TestIngestRowFailureIndependence(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{leadRow("Ion", "069000001")}}
	crm := &fakeCRM{leadErr: errors.New("bitrix down")}
	u, _, _ := newTestIngest(source, crm)

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	source.rows = append(source.rows,
		leadRow("Ana", "069000002"),
		leadRow("Vasile", "069000003"),
	)

	newRows, err := u.Run(context.Background())
	require.NoError(t, err)

	// сбой CRM на одной строке не мешает остальным и не валит прогон
	assert.Len(t, newRows, 2)
	assert.Len(t, crm.leadCalls, 3)
}

func TestIngestContactFailureStillCreatesLead(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{leadRow("Ion", "069000001")}}
	crm := &fakeCRM{contactErr: errors.New("contact rejected")}
	u, _, _ := newTestIngest(source, crm)

	_, err := u.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, crm.leadCalls, 1)
	assert.Zero(t, crm.leadCalls[0].contactID)
}

func TestIngestSourceError(t *testing.T) {
	source := &fakeSource{err: errors.New("export unavailable")}
	crm := &fakeCRM{}
	u, watermark, history := newTestIngest(source, crm)

	_, err := u.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, -1, watermark.Get())
	assert.Empty(t, history.Load())
	assert.Empty(t, crm.leadCalls)
}

func TestIngestEmptySource(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{}}
	u, watermark, _ := newTestIngest(source, &fakeCRM{})

	newRows, err := u.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, newRows)
	assert.Equal(t, -1, watermark.Get())
}

func TestHistoryWithBaselineConcurrentSeedsOnce(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{
		leadRow("Ion", "069000001"),
		leadRow("Ana", "069000002"),
	}}
	u, watermark, history := newTestIngest(source, &fakeCRM{})

	// одновременные первые обращения к истории не должны посеять базу дважды
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.HistoryWithBaseline(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, history.Load(), 1)
	assert.Equal(t, 1, watermark.Get())
}

func TestHistoryWithBaselineSeedsOnce(t *testing.T) {
	source := &fakeSource{rows: []domain.Row{
		leadRow("Ion", "069000001"),
		leadRow("Ana", "069000002"),
	}}
	u, watermark, history := newTestIngest(source, &fakeCRM{})

	entries := u.HistoryWithBaseline(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, "Ana", entries[0].Row["full_name"])
	assert.Equal(t, 1, watermark.Get())

	// повторный вызов базу не дублирует
	entries = u.HistoryWithBaseline(context.Background())
	assert.Len(t, entries, 1)
	assert.Len(t, history.Load(), 1)
}
