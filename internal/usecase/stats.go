package usecase

import (
	"sort"
	"time"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// DailyCounts готовит данные для графика «лидов в день»:
// метки-даты по возрастанию и количество строк истории на каждую.
func DailyCounts(entries []domain.HistoryEntry) ([]string, []int) {
	byDay := map[string]int{}
	for _, e := range entries {
		byDay[e.CreatedAt.Format(time.DateOnly)]++
	}

	labels := make([]string, 0, len(byDay))
	for day := range byDay {
		labels = append(labels, day)
	}
	sort.Strings(labels)

	values := make([]int, 0, len(labels))
	for _, day := range labels {
		values = append(values, byDay[day])
	}
	return labels, values
}
