// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/surveyforge/internal/workspace"
	"github.com/pdiddy/surveyforge/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "evidence.db"
)

const defaultMaxResults = 20

// Store manages the evidence bank SQLite index. The index is a derived
// view over papers/evidence_bank.jsonl for spot-checking bindings; the
// JSONL file stays the artifact of record.
type Store struct {
	db         *sql.DB
	ws         *workspace.Workspace
	maxResults int
}

// NewStore opens or creates the index database at index/evidence.db
// inside the workspace, creating the schema if needed.
func NewStore(ws *workspace.Workspace, maxResults int) (*Store, error) {
	dbDir := ws.Path(indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}

	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, ws: ws, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS evidence (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			paper_id TEXT NOT NULL,
			bibkey TEXT,
			title TEXT,
			year INTEGER,
			evidence_level TEXT,
			claim_type TEXT NOT NULL,
			snippet TEXT NOT NULL,
			locator TEXT,
			confidence TEXT,
			tags TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_paper_id ON evidence(paper_id)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_claim_type ON evidence(claim_type)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='evidence_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}
	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE evidence_fts USING fts5(snippet, content=evidence, content_rowid=rowid)`,
			`CREATE TRIGGER evidence_ai AFTER INSERT ON evidence BEGIN
				INSERT INTO evidence_fts(rowid, snippet) VALUES (new.rowid, new.snippet);
			END`,
			`CREATE TRIGGER evidence_ad AFTER DELETE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, snippet) VALUES('delete', old.rowid, old.snippet);
			END`,
			`CREATE TRIGGER evidence_au AFTER UPDATE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, snippet) VALUES('delete', old.rowid, old.snippet);
				INSERT INTO evidence_fts(rowid, snippet) VALUES (new.rowid, new.snippet);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IndexSummary holds counts from one indexing run.
type IndexSummary struct {
	Indexed int
	Skipped bool
}

// Index loads papers/evidence_bank.jsonl into the database, replacing the
// previous contents. An unchanged bank file (by mtime) is skipped.
func (s *Store) Index(ctx context.Context, w io.Writer) (IndexSummary, error) {
	bankPath := s.ws.Path(workspace.FileEvidenceBank)
	info, err := os.Stat(bankPath)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("stat evidence bank: %w", err)
	}
	modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

	var storedModTime string
	err = s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM indexing_status WHERE source = ?`, workspace.FileEvidenceBank,
	).Scan(&storedModTime)
	if err == nil && storedModTime == modTime {
		fmt.Fprintln(w, "skipped evidence_bank.jsonl (unchanged)")
		return IndexSummary{Skipped: true}, nil
	}

	items, err := workspace.ReadJSONL[types.EvidenceItem](s.ws, workspace.FileEvidenceBank)
	if err != nil {
		return IndexSummary{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM evidence`); err != nil {
		return IndexSummary{}, fmt.Errorf("clearing evidence table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO evidence (id, paper_id, bibkey, title, year, evidence_level, claim_type, snippet, locator, confidence, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		tagsJSON, _ := json.Marshal(item.Tags)
		_, err := stmt.ExecContext(ctx,
			item.EvidenceID, item.PaperID, item.Bibkey, item.Title, item.Year,
			string(item.EvidenceLevel), string(item.ClaimType), item.Snippet,
			item.Locator, string(item.Confidence), string(tagsJSON),
		)
		if err != nil {
			return IndexSummary{}, fmt.Errorf("inserting item %s: %w", item.EvidenceID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		workspace.FileEvidenceBank, modTime,
	)
	if err != nil {
		return IndexSummary{}, fmt.Errorf("updating indexing status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return IndexSummary{}, fmt.Errorf("committing: %w", err)
	}

	fmt.Fprintf(w, "indexed %d evidence items\n", len(items))
	return IndexSummary{Indexed: len(items)}, nil
}

// QueryOptions holds parameters for evidence index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over snippets.
	Query string

	// ClaimType filters by claim type.
	ClaimType types.ClaimType

	// Tag filters items carrying the given tag.
	Tag string

	// PaperID filters by paper.
	PaperID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.ClaimType == "" && q.Tag == "" && q.PaperID == ""
}

// Search queries the index. Full-text queries rank by FTS relevance;
// structured-only queries sort by paper_id then evidence_id.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]types.EvidenceItem, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT e.id, e.paper_id, e.bibkey, e.title, e.year, e.evidence_level,
				e.claim_type, e.snippet, e.locator, e.confidence, e.tags
			FROM evidence_fts
			JOIN evidence e ON e.rowid = evidence_fts.rowid
			WHERE evidence_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT e.id, e.paper_id, e.bibkey, e.title, e.year, e.evidence_level,
				e.claim_type, e.snippet, e.locator, e.confidence, e.tags
			FROM evidence e
			WHERE 1=1`)
	}

	if opts.ClaimType != "" {
		qb.WriteString(` AND e.claim_type = ?`)
		args = append(args, string(opts.ClaimType))
	}
	if opts.PaperID != "" {
		qb.WriteString(` AND e.paper_id = ?`)
		args = append(args, opts.PaperID)
	}
	if opts.Tag != "" {
		qb.WriteString(` AND e.tags LIKE ?`)
		args = append(args, `%"`+opts.Tag+`"%`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY evidence_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY e.paper_id, e.id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	defer rows.Close()

	var results []types.EvidenceItem
	for rows.Next() {
		var (
			item     types.EvidenceItem
			level    string
			claim    string
			conf     string
			tagsJSON string
		)
		if err := rows.Scan(
			&item.EvidenceID, &item.PaperID, &item.Bibkey, &item.Title, &item.Year,
			&level, &claim, &item.Snippet, &item.Locator, &conf, &tagsJSON,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		item.EvidenceLevel = types.EvidenceLevel(level)
		item.ClaimType = types.ClaimType(claim)
		item.Confidence = types.Confidence(conf)
		if tagsJSON != "" {
			json.Unmarshal([]byte(tagsJSON), &item.Tags)
		}
		results = append(results, item)
	}
	return results, rows.Err()
}

// ExportYAML writes the filtered index contents to index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	return s.export(ctx, opts, "export.yaml", func(items []types.EvidenceItem) ([]byte, error) {
		return yaml.Marshal(items)
	})
}

// ExportJSON writes the filtered index contents to index/export.json.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	return s.export(ctx, opts, "export.json", func(items []types.EvidenceItem) ([]byte, error) {
		return json.MarshalIndent(items, "", "  ")
	})
}

func (s *Store) export(ctx context.Context, opts QueryOptions, name string, marshal func([]types.EvidenceItem) ([]byte, error)) error {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 1 << 30
	}
	items, err := s.Search(ctx, opts)
	if err != nil {
		return err
	}
	data, err := marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling export: %w", err)
	}
	if _, err := s.ws.WriteArtifact(indexDir+"/"+name, data); err != nil {
		return err
	}
	return nil
}
