package usecase

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// Rotator раздает новые лиды менеджерам по кругу с учетом дневных лимитов.
// Счетчики живут в памяти и действуют в пределах одного календарного дня;
// рестарт процесса их обнуляет.
type Rotator struct {
	mu     sync.Mutex
	reps   []domain.Representative
	idx    int
	counts map[int]int
	day    time.Time // дата, на которую актуальны счетчики
	now    func() time.Time
	logger *slog.Logger
}

func NewRotator(reps []domain.Representative, logger *slog.Logger) *Rotator {
	return &Rotator{
		reps:   reps,
		counts: make(map[int]int),
		now:    time.Now,
		logger: logger,
	}
}

// WithClock подменяет источник времени (нужно тестам ротации по дням).
func (r *Rotator) WithClock(now func() time.Time) *Rotator {
	r.now = now
	return r
}

// Next выбирает ответственного для очередного лида. Если все менеджеры
// уперлись в лимит (дневная емкость исчерпана или лимиты настроены
// некорректно), возвращается первый из списка без инкремента счетчика.
func (r *Rotator) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.reps) == 0 {
		return 0
	}

	today := dateOnly(r.now())
	if !r.day.Equal(today) {
		r.counts = make(map[int]int)
		r.day = today
	}

	n := len(r.reps)
	for i := 0; i < n; i++ {
		cand := r.reps[r.idx]
		r.idx = (r.idx + 1) % n
		if cand.DailyCap == 0 || r.counts[cand.ID] < cand.DailyCap {
			r.counts[cand.ID]++
			if r.logger != nil {
				r.logger.Info("lead assigned", "assigned_id", cand.ID, "today", r.counts[cand.ID])
			}
			return cand.ID
		}
	}

	if r.logger != nil {
		r.logger.Warn("daily caps exhausted, falling back to first representative", "assigned_id", r.reps[0].ID)
	}
	return r.reps[0].ID
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
