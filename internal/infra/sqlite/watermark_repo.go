package sqlite

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// WatermarkRepo хранит индекс последней обработанной строки таблицы.
// Однострочная таблица с upsert вместо текстового файла — запись атомарна
// даже при обрыве процесса.
type WatermarkRepo struct {
	db *sql.DB
}

func NewWatermarkRepo(dsn string) (*WatermarkRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateWatermark(db); err != nil {
		return nil, err
	}
	return &WatermarkRepo{db: db}, nil
}

func migrateWatermark(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS watermark (
    id INTEGER PRIMARY KEY CHECK (id = 0),
    last_row INTEGER NOT NULL
);
`)
	return err
}

// Get возвращает -1, если записи нет или она нечитаема: для инжеста это
// одно и то же «ничего еще не обрабатывали».
func (r *WatermarkRepo) Get() int {
	var v int
	if err := r.db.QueryRow(`SELECT last_row FROM watermark WHERE id = 0`).Scan(&v); err != nil {
		return -1
	}
	return v
}

func (r *WatermarkRepo) Set(idx int) error {
	_, err := r.db.Exec(`INSERT INTO watermark(id, last_row) VALUES(0, ?)
ON CONFLICT(id) DO UPDATE SET last_row = excluded.last_row`, idx)
	return err
}
