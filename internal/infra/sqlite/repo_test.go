package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

func testDSN(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "leads.db")
}

func TestWatermarkRepo(t *testing.T) {
	repo, err := NewWatermarkRepo(testDSN(t))
	require.NoError(t, err)

	// записи еще нет
	assert.Equal(t, -1, repo.Get())

	require.NoError(t, repo.Set(5))
	assert.Equal(t, 5, repo.Get())

	// перезапись, не вторая строка
	require.NoError(t, repo.Set(9))
	assert.Equal(t, 9, repo.Get())
}

func TestWatermarkSurvivesReopen(t *testing.T) {
	dsn := testDSN(t)

	repo, err := NewWatermarkRepo(dsn)
	require.NoError(t, err)
	require.NoError(t, repo.Set(12))

	reopened, err := NewWatermarkRepo(dsn)
	require.NoError(t, err)
	assert.Equal(t, 12, reopened.Get())
}

func TestHistoryRepo(t *testing.T) {
	repo, err := NewHistoryRepo(testDSN(t))
	require.NoError(t, err)

	assert.Empty(t, repo.Load())

	// пустой батч — no-op
	require.NoError(t, repo.Append(nil))
	assert.Empty(t, repo.Load())

	require.NoError(t, repo.Append([]domain.Row{
		{"full_name": "Ion", "город": "Кишинев"},
		{"full_name": "Ana"},
	}))
	require.NoError(t, repo.Append([]domain.Row{
		{"full_name": "Vasile"},
	}))

	entries := repo.Load()
	require.Len(t, entries, 3)
	assert.Equal(t, "Ion", entries[0].Row["full_name"])
	assert.Equal(t, "Кишинев", entries[0].Row["город"])
	assert.Equal(t, "Ana", entries[1].Row["full_name"])
	assert.Equal(t, "Vasile", entries[2].Row["full_name"])
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestHistorySurvivesReopen(t *testing.T) {
	dsn := testDSN(t)

	repo, err := NewHistoryRepo(dsn)
	require.NoError(t, err)
	require.NoError(t, repo.Append([]domain.Row{{"full_name": "Ion"}}))

	reopened, err := NewHistoryRepo(dsn)
	require.NoError(t, err)
	entries := reopened.Load()
	require.Len(t, entries, 1)
	assert.Equal(t, "Ion", entries[0].Row["full_name"])
}
