package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// IsDummyRow помечает тестовые строки: маркер "dummy" в любом регистре,
// в любом значении или имени колонки. Такие строки попадают в историю и
// сдвигают watermark, но в Bitrix24 не уходят.
func IsDummyRow(row domain.Row) bool {
	b, err := json.Marshal(row)
	if err != nil {
		return strings.Contains(strings.ToLower(fmt.Sprint(row)), "dummy")
	}
	return strings.Contains(strings.ToLower(string(b)), "dummy")
}
