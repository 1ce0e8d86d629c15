package db

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the local run journal. The board remains the authority on which
// listings were already seen; the journal only records what each run did.
type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "adboard.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		config_path TEXT NOT NULL,
		board_name TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		fetched INTEGER DEFAULT 0,
		hits INTEGER DEFAULT 0,
		created INTEGER DEFAULT 0,
		dry_run INTEGER DEFAULT 0,
		status TEXT DEFAULT 'running',
		error TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		board_name TEXT NOT NULL,
		card_id TEXT,
		href TEXT NOT NULL,
		title TEXT,
		posted_date TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(board_name, href)
	);

	CREATE INDEX IF NOT EXISTS idx_cards_created_at ON cards(created_at);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func generateID(boardName, href string) string {
	hash := sha256.Sum256([]byte(boardName + "\x00" + href))
	return hex.EncodeToString(hash[:8])
}

// StartRun inserts r with status "running", assigning an ID if needed.
func (s *Store) StartRun(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	r.Status = "running"

	_, err := s.db.Exec(`INSERT INTO runs (id, config_path, board_name, started_at, dry_run, status) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ConfigPath, r.BoardName, r.StartedAt, r.DryRun, r.Status)
	return err
}

// FinishRun stores the final counters and outcome of r. A non-nil runErr
// marks the run failed.
func (s *Store) FinishRun(r *Run, runErr error) error {
	r.FinishedAt = time.Now()
	r.Status = "success"
	r.Error = ""
	if runErr != nil {
		r.Status = "failed"
		r.Error = runErr.Error()
	}

	_, err := s.db.Exec(`UPDATE runs SET board_name = ?, finished_at = ?, fetched = ?, hits = ?, created = ?, status = ?, error = ? WHERE id = ?`,
		r.BoardName, r.FinishedAt, r.Fetched, r.Hits, r.Created, r.Status, r.Error, r.ID)
	return err
}

func (s *Store) GetRun(id string) (*Run, error) {
	query := `SELECT id, config_path, board_name, started_at, finished_at, fetched, hits, created, dry_run, status, error FROM runs WHERE id = ?`
	return scanRun(s.db.QueryRow(query, id))
}

func (s *Store) ListRuns(limit int) ([]Run, error) {
	query := `SELECT id, config_path, board_name, started_at, finished_at, fetched, hits, created, dry_run, status, error FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var finishedAt sql.NullTime
	var boardName sql.NullString
	if err := row.Scan(&r.ID, &r.ConfigPath, &boardName, &r.StartedAt, &finishedAt,
		&r.Fetched, &r.Hits, &r.Created, &r.DryRun, &r.Status, &r.Error); err != nil {
		return nil, err
	}
	r.BoardName = boardName.String
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Time
	}
	return &r, nil
}

// RecordCard journals a created card and returns true if this board/href pair
// had not been recorded before.
func (s *Store) RecordCard(c *CardRecord) (bool, error) {
	if c.ID == "" {
		c.ID = generateID(c.BoardName, c.Href)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	var existingID string
	err := s.db.QueryRow(`SELECT id FROM cards WHERE board_name = ? AND href = ?`, c.BoardName, c.Href).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	isNew := err == sql.ErrNoRows

	query := `
	INSERT INTO cards (id, run_id, board_name, card_id, href, title, posted_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(board_name, href) DO UPDATE SET
		run_id = excluded.run_id,
		card_id = excluded.card_id,
		title = excluded.title,
		created_at = excluded.created_at
	`

	_, err = s.db.Exec(query, c.ID, c.RunID, c.BoardName, c.CardID, c.Href, c.Title, c.PostedDate, c.CreatedAt)
	return isNew, err
}

const cardColumns = `id, run_id, board_name, card_id, href, title, posted_date, created_at`

// ListCards returns the most recently created cards, optionally limited to
// one board.
func (s *Store) ListCards(boardName string, limit int) ([]CardRecord, error) {
	query := `SELECT ` + cardColumns + ` FROM cards`
	var args []interface{}
	if boardName != "" {
		query += ` WHERE board_name = ?`
		args = append(args, boardName)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	return s.queryCards(query, args...)
}

// SearchCards matches query against card titles, links and board names.
func (s *Store) SearchCards(query string, limit int) ([]CardRecord, error) {
	if query == "" {
		return s.ListCards("", limit)
	}

	pattern := "%" + query + "%"
	return s.queryCards(`SELECT `+cardColumns+` FROM cards
		WHERE title LIKE ? OR href LIKE ? OR board_name LIKE ?
		ORDER BY created_at DESC LIMIT ?`, pattern, pattern, pattern, limit)
}

func (s *Store) queryCards(query string, args ...interface{}) ([]CardRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []CardRecord
	for rows.Next() {
		var c CardRecord
		var cardID sql.NullString
		var postedDate sql.NullTime
		if err := rows.Scan(&c.ID, &c.RunID, &c.BoardName, &cardID, &c.Href, &c.Title, &postedDate, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CardID = cardID.String
		if postedDate.Valid {
			c.PostedDate = postedDate.Time
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Store) CountCards() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&count)
	return count, err
}

func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`, key, value)
	return err
}
