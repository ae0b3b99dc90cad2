package domain

import "time"

// Row — одна строка выгрузки Google-таблицы: имя колонки -> значение ячейки.
// У строк нет стабильного ID, они идентифицируются только позицией в выгрузке.
type Row map[string]string

// LeadFields — нормализованные поля лида, готовые к отправке в Bitrix24.
// Создаются заново на каждую строку и нигде не сохраняются.
type LeadFields struct {
	FirstName     string
	LastName      string
	Phone         string
	Email         string
	Comment       string
	CarParams     string
	Financing     string
	BudgetRaw     string
	City          string
	ContactMethod string

	// Производные значения (вычисляет нормализатор, потребляет CRM-клиент).
	Budget        float64
	FinancingCode int   // 0 — способ оформления не распознан
	CarParamCodes []int // пустой список — параметры не распознаны
}

// HistoryEntry — строка, однажды замеченная как новая. История только
// дописывается, записи не изменяются и не удаляются.
type HistoryEntry struct {
	Row       Row       `json:"row"`
	CreatedAt time.Time `json:"created_at"`
}

type WatermarkRepository interface {
	// Get возвращает индекс последней обработанной строки, -1 если записи нет.
	Get() int
	// Set перезаписывает индекс; ошибка записи отдается наверх —
	// потеря watermark грозит повторной отправкой лидов.
	Set(idx int) error
}

type HistoryRepository interface {
	Load() []HistoryEntry
	Append(rows []Row) error
}
