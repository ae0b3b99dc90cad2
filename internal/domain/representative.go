package domain

// Representative — ответственный менеджер в Bitrix24.
// DailyCap == 0 означает «без дневного лимита».
type Representative struct {
	ID       int
	DailyCap int
}

// DebugRecord — снимок последней попытки создать лид в Bitrix24.
// Перезаписывается каждой попыткой, в долговременное хранилище не попадает.
type DebugRecord struct {
	RequestPayload any    `json:"request_payload,omitempty"`
	ResponseText   string `json:"response_text,omitempty"`
	StatusCode     int    `json:"status_code,omitempty"`
	Exception      string `json:"exception,omitempty"`
}
