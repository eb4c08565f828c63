package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"fleetfaults/internal"
)

const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// DB is the ingestion ledger: which files were seen, how they ended and the
// counts of every run. Fault records themselves are never stored.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  path TEXT NOT NULL,
  hash TEXT NOT NULL UNIQUE,
  formatKey TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  error TEXT,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  fileId INTEGER,
  formatKey TEXT,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  skippedJson TEXT NOT NULL DEFAULT '[]',
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(fileId) REFERENCES files(id)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// UpsertFile records a file by content hash. A known hash keeps its status and
// only has its path refreshed.
func (d *DB) UpsertFile(path, hash string) (internal.FileRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO files (path, hash) VALUES (?, ?)
ON CONFLICT(hash) DO UPDATE SET
  path=excluded.path,
  updatedAt=CURRENT_TIMESTAMP
`, path, hash)
	if err != nil {
		return internal.FileRow{}, err
	}

	row, err := d.GetFileByHash(hash)
	if err != nil {
		return internal.FileRow{}, err
	}
	if row == nil {
		return internal.FileRow{}, errors.New("failed to upsert file")
	}
	return *row, nil
}

func (d *DB) GetFileByHash(hash string) (*internal.FileRow, error) {
	var row internal.FileRow
	var formatKey, errText sql.NullString
	err := d.conn.QueryRow(`
SELECT id, path, hash, formatKey, status, error
FROM files WHERE hash = ?
`, hash).Scan(&row.ID, &row.Path, &row.Hash, &formatKey, &row.Status, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	row.FormatKey = formatKey.String
	row.Error = errText.String
	return &row, nil
}

func (d *DB) ListFilesByStatus(status string, limit int) ([]internal.FileRow, error) {
	rows, err := d.conn.Query(`
SELECT id, path, hash, formatKey, status, error
FROM files WHERE status = ? ORDER BY id ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FileRow
	for rows.Next() {
		var row internal.FileRow
		var formatKey, errText sql.NullString
		if err := rows.Scan(&row.ID, &row.Path, &row.Hash, &formatKey, &row.Status, &errText); err != nil {
			return nil, err
		}
		row.FormatKey = formatKey.String
		row.Error = errText.String
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateFileStatus(fileID int, formatKey, status, errText string) error {
	_, err := d.conn.Exec(`
UPDATE files SET formatKey = ?, status = ?, error = ?, updatedAt = CURRENT_TIMESTAMP
WHERE id = ?
`, nullable(formatKey), status, nullable(errText), fileID)
	return err
}

func (d *DB) InsertRun(traceID string, fileID int, formatKey string, timings map[string]float64, counts map[string]int, skipped []string) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	if skipped == nil {
		skipped = []string{}
	}
	skippedJSON, _ := json.Marshal(skipped)
	var file any
	if fileID > 0 {
		file = fileID
	}
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, fileId, formatKey, timingsJson, countsJson, skippedJson)
VALUES (?, ?, ?, ?, ?, ?)
`, traceID, file, nullable(formatKey), string(timingsJSON), string(countsJSON), string(skippedJSON))
	return err
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, fileId, formatKey, timingsJson, countsJson, skippedJson, createdAt
FROM runs ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var row internal.RunRow
		var fileID sql.NullInt64
		var formatKey sql.NullString
		var timingsJSON, countsJSON, skippedJSON string
		if err := rows.Scan(&row.ID, &row.TraceID, &fileID, &formatKey, &timingsJSON, &countsJSON, &skippedJSON, &row.CreatedAt); err != nil {
			return nil, err
		}
		row.FileID = int(fileID.Int64)
		row.FormatKey = formatKey.String
		if err := json.Unmarshal([]byte(countsJSON), &row.Counts); err != nil {
			return nil, fmt.Errorf("run %d counts: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(timingsJSON), &row.Timings); err != nil {
			return nil, fmt.Errorf("run %d timings: %w", row.ID, err)
		}
		_ = json.Unmarshal([]byte(skippedJSON), &row.Skipped)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
