package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nobilauto-it/Meta-Leads/internal/domain"
)

// HistoryRepo — только дописываемый журнал всех замеченных строк таблицы,
// включая dummy. Строки хранятся как JSON, порядок задает автоинкрементный id.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(dsn string) (*HistoryRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateHistory(db); err != nil {
		return nil, err
	}
	return &HistoryRepo{db: db}, nil
}

func migrateHistory(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS lead_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    row_json TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`)
	return err
}

// Load возвращает всю историю по порядку. Отсутствующая или нечитаемая
// история равносильна пустой.
func (r *HistoryRepo) Load() []domain.HistoryEntry {
	rows, err := r.db.Query(`SELECT row_json, created_at FROM lead_history ORDER BY id`)
	if err != nil {
		return []domain.HistoryEntry{}
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var raw string
		var createdAt time.Time
		if err := rows.Scan(&raw, &createdAt); err != nil {
			continue
		}
		var row domain.Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			continue
		}
		entries = append(entries, domain.HistoryEntry{Row: row, CreatedAt: createdAt})
	}
	return entries
}

func (r *HistoryRepo) Append(newRows []domain.Row) error {
	if len(newRows) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, row := range newRows {
		raw, err := json.Marshal(row)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO lead_history(row_json, created_at) VALUES(?,?)`, string(raw), now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
