package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

// SQLite implements Store on an embedded sqlite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; the scheduler is the only goroutine that writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pending_items (
		item_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT,
		added_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summaries (
		item_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		lines TEXT NOT NULL,
		conclusion TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cycle_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		cycle_total INTEGER NOT NULL,
		cycle_done INTEGER NOT NULL,
		last_run_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pending_added_at ON pending_items(added_at);
	CREATE INDEX IF NOT EXISTS idx_summaries_created_at ON summaries(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) SaveItems(items []news.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save items: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO pending_items (item_id, title, content, added_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare save items: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, item := range items {
		if _, err := stmt.Exec(item.ID, item.Title, item.Summary, now); err != nil {
			return fmt.Errorf("insert item %s: %w", item.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) GetSummaries(ids []string) (map[string]Summary, error) {
	result := make(map[string]Summary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.Query(
		`SELECT item_id, title, lines, conclusion, created_at FROM summaries WHERE item_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sm Summary
		var lines string
		if err := rows.Scan(&sm.ItemID, &sm.Title, &lines, &sm.Conclusion, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if err := json.Unmarshal([]byte(lines), &sm.Lines); err != nil {
			return nil, fmt.Errorf("decode summary lines for %s: %w", sm.ItemID, err)
		}
		result[sm.ItemID] = sm
	}
	return result, rows.Err()
}

func (s *SQLite) UnsummarizedCount() (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM pending_items p WHERE NOT EXISTS (SELECT 1 FROM summaries sm WHERE sm.item_id = p.item_id)`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unsummarized: %w", err)
	}
	return count, nil
}

func (s *SQLite) ListUnsummarized(limit int) ([]PendingItem, error) {
	rows, err := s.db.Query(
		`SELECT p.item_id, p.title, p.content, p.added_at
		 FROM pending_items p
		 WHERE NOT EXISTS (SELECT 1 FROM summaries sm WHERE sm.item_id = p.item_id)
		 ORDER BY p.added_at ASC, p.rowid ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unsummarized: %w", err)
	}
	defer rows.Close()

	var items []PendingItem
	for rows.Next() {
		var p PendingItem
		if err := rows.Scan(&p.ItemID, &p.Title, &p.Content, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("scan pending item: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (s *SQLite) BatchWriteSummaries(summaries []Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	if len(summaries) > MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(summaries), MaxBatchSize)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write summaries: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO summaries (item_id, title, lines, conclusion, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare write summaries: %w", err)
	}
	defer stmt.Close()

	for _, sm := range summaries {
		lines, err := json.Marshal(sm.Lines)
		if err != nil {
			return fmt.Errorf("encode summary lines for %s: %w", sm.ItemID, err)
		}
		createdAt := sm.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.Exec(sm.ItemID, sm.Title, string(lines), sm.Conclusion, createdAt); err != nil {
			return fmt.Errorf("insert summary %s: %w", sm.ItemID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) LoadCycle() (Cycle, error) {
	var c Cycle
	err := s.db.QueryRow(`SELECT cycle_total, cycle_done, last_run_at FROM cycle_state WHERE id = 1`).
		Scan(&c.CycleTotal, &c.CycleDone, &c.LastRunAt)
	if err == sql.ErrNoRows {
		return Cycle{}, nil
	}
	if err != nil {
		return Cycle{}, fmt.Errorf("load cycle: %w", err)
	}
	return c, nil
}

func (s *SQLite) SaveCycle(c Cycle) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO cycle_state (id, cycle_total, cycle_done, last_run_at) VALUES (1, ?, ?, ?)`,
		c.CycleTotal, c.CycleDone, c.LastRunAt,
	)
	if err != nil {
		return fmt.Errorf("save cycle: %w", err)
	}
	return nil
}

func (s *SQLite) Cleanup(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention)

	res, err := s.db.Exec(`DELETE FROM summaries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup summaries: %w", err)
	}
	removed, _ := res.RowsAffected()

	if _, err := s.db.Exec(`DELETE FROM pending_items WHERE added_at < ?`, cutoff); err != nil {
		return int(removed), fmt.Errorf("cleanup pending items: %w", err)
	}
	return int(removed), nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
