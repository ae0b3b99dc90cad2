package usecase

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRotatorRoundRobin(t *testing.T) {
	r := NewRotator([]domain.Representative{{ID: 1}, {ID: 2}, {ID: 3}}, testLogger())
	got := []int{r.Next(), r.Next(), r.Next(), r.Next()}
	assert.Equal(t, []int{1, 2, 3, 1}, got)
}

func TestRotatorDailyCaps(t *testing.T) {
	// A — лимит 4, B — без лимита, C — лимит 6
	reps := []domain.Representative{
		{ID: 100, DailyCap: 4},
		{ID: 200},
		{ID: 300, DailyCap: 6},
	}
	now := time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC)
	r := NewRotator(reps, testLogger()).WithClock(func() time.Time { return now })

	counts := map[int]int{}
	for i := 0; i < 50; i++ {
		counts[r.Next()]++
	}

	assert.Equal(t, 4, counts[100])
	assert.Equal(t, 6, counts[300])
	assert.Equal(t, 40, counts[200])
}

func TestRotatorDailyReset(t *testing.T) {
	reps := []domain.Representative{
		{ID: 100, DailyCap: 1},
		{ID: 200},
	}
	now := time.Date(2025, 11, 26, 23, 59, 0, 0, time.UTC)
	r := NewRotator(reps, testLogger()).WithClock(func() time.Time { return now })

	assert.Equal(t, 100, r.Next())
	assert.Equal(t, 200, r.Next())
	// лимит A исчерпан — достается B
	assert.Equal(t, 200, r.Next())

	// наступил новый день — счетчики обнуляются лениво, на первом же вызове
	now = now.Add(2 * time.Minute)
	got := []int{r.Next(), r.Next(), r.Next()}
	assert.Contains(t, got, 100)
}

func TestRotatorAllCapped(t *testing.T) {
	reps := []domain.Representative{
		{ID: 100, DailyCap: 1},
		{ID: 200, DailyCap: 1},
	}
	now := time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC)
	r := NewRotator(reps, testLogger()).WithClock(func() time.Time { return now })

	assert.Equal(t, 100, r.Next())
	assert.Equal(t, 200, r.Next())
	// емкость исчерпана: страховочный ответ — первый в списке, без инкремента
	assert.Equal(t, 100, r.Next())
	assert.Equal(t, 100, r.Next())
}

func TestRotatorEmpty(t *testing.T) {
	r := NewRotator(nil, testLogger())
	assert.Equal(t, 0, r.Next())
}
