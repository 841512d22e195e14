// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package offload

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-agent/pkg/types"
)

// SQLiteStore keeps raw notes in SQLite with an FTS5 index over paper
// titles and abstracts.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating offload directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS raw_notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			topic TEXT NOT NULL,
			round INTEGER NOT NULL,
			keywords TEXT,
			llm_response TEXT,
			created_at TEXT,
			UNIQUE(run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			note_id INTEGER NOT NULL REFERENCES raw_notes(id),
			title TEXT NOT NULL,
			abstract TEXT,
			record TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_raw_notes_run ON raw_notes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_note ON papers(note_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists > 0 {
		return nil
	}

	ftsStatements := []string{
		`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, content=papers, content_rowid=rowid, tokenize='porter unicode61')`,
		`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
			INSERT INTO papers_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
		END`,
		`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
			INSERT INTO papers_fts(papers_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
		END`,
	}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating FTS infrastructure: %w", err)
		}
	}
	return nil
}

// Put replaces the raw notes stored for runID.
func (s *SQLiteStore) Put(ctx context.Context, runID string, notes []types.RawNote) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM papers WHERE note_id IN (SELECT id FROM raw_notes WHERE run_id = ?)`, runID,
	); err != nil {
		return fmt.Errorf("deleting old papers: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM raw_notes WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("deleting old notes: %w", err)
	}

	paperStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (note_id, title, abstract, record) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer paperStmt.Close()

	for seq, n := range notes {
		keywords, _ := json.Marshal(n.SearchKeywords)
		created := ""
		if !n.CreatedAt.IsZero() {
			created = n.CreatedAt.UTC().Format(time.RFC3339Nano)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO raw_notes (run_id, seq, topic, round, keywords, llm_response, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, seq, n.Topic, n.RoundNumber, string(keywords), n.LLMResponse, created,
		)
		if err != nil {
			return fmt.Errorf("inserting note %d: %w", seq, err)
		}
		noteID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading note id: %w", err)
		}

		for _, p := range n.Papers {
			record, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encoding paper %q: %w", p.Title, err)
			}
			if _, err := paperStmt.ExecContext(ctx, noteID, p.Title, p.Abstract, string(record)); err != nil {
				return fmt.Errorf("inserting paper %q: %w", p.Title, err)
			}
		}
	}

	return tx.Commit()
}

// Get returns the raw notes of runID in their original order.
func (s *SQLiteStore) Get(ctx context.Context, runID string) ([]types.RawNote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, round, keywords, llm_response, created_at
		 FROM raw_notes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}

	var (
		ids   []int64
		notes []types.RawNote
	)
	for rows.Next() {
		var (
			id       int64
			n        types.RawNote
			keywords sql.NullString
			response sql.NullString
			created  sql.NullString
		)
		if err := rows.Scan(&id, &n.Topic, &n.RoundNumber, &keywords, &response, &created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		if keywords.Valid {
			json.Unmarshal([]byte(keywords.String), &n.SearchKeywords)
		}
		n.LLMResponse = response.String
		if created.Valid && created.String != "" {
			n.CreatedAt, _ = time.Parse(time.RFC3339Nano, created.String)
		}
		ids = append(ids, id)
		notes = append(notes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	for i, id := range ids {
		papers, err := s.papers(ctx, id)
		if err != nil {
			return nil, err
		}
		notes[i].Papers = papers
	}
	return notes, nil
}

func (s *SQLiteStore) papers(ctx context.Context, noteID int64) ([]types.PaperRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM papers WHERE note_id = ? ORDER BY rowid`, noteID)
	if err != nil {
		return nil, fmt.Errorf("querying papers: %w", err)
	}
	defer rows.Close()

	var papers []types.PaperRecord
	for rows.Next() {
		var record string
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		var p types.PaperRecord
		if err := json.Unmarshal([]byte(record), &p); err != nil {
			return nil, fmt.Errorf("decoding paper: %w", err)
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// Search matches every term of query against the titles and abstracts of
// all stored runs, best matches first. Terms are quoted, so FTS5 operators
// in query are matched literally.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT n.run_id, n.topic, n.round, p.record
		 FROM papers_fts
		 JOIN papers p ON p.rowid = papers_fts.rowid
		 JOIN raw_notes n ON n.id = p.note_id
		 WHERE papers_fts MATCH ?
		 ORDER BY papers_fts.rank
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying offload index: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h      Hit
			record string
		)
		if err := rows.Scan(&h.RunID, &h.Topic, &h.Round, &record); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(record), &h.Paper); err != nil {
			return nil, fmt.Errorf("decoding paper: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery quotes each whitespace-separated term.
func ftsQuery(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}
