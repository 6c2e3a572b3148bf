package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/rankup/pkg/rankup/corpus"
	"github.com/cognicore/rankup/pkg/rankup/internalerr"
)

// sqliteStore implements corpus.Store using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite corpus database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (corpus.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
	id TEXT PRIMARY KEY,
	title TEXT,
	source TEXT,
	body TEXT NOT NULL,
	stemmed TEXT NOT NULL,
	added_at TEXT
);

CREATE INDEX IF NOT EXISTS docs_source ON docs(source);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertDoc inserts or updates a document
func (s *sqliteStore) UpsertDoc(ctx context.Context, d corpus.Doc) error {
	if d.ID == "" {
		return fmt.Errorf("%w: document id is empty", internalerr.ErrInvalidInput)
	}
	if d.AddedAt.IsZero() {
		d.AddedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO docs (id, title, source, body, stemmed, added_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title=excluded.title,
	source=excluded.source,
	body=excluded.body,
	stemmed=excluded.stemmed,
	added_at=excluded.added_at;
`
	if _, err := tx.ExecContext(ctx, stmt,
		d.ID,
		d.Title,
		d.Source,
		d.Text,
		d.Stemmed,
		d.AddedAt.UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// GetDoc retrieves a document by ID
func (s *sqliteStore) GetDoc(ctx context.Context, id string) (corpus.Doc, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, source, body, stemmed, added_at
FROM docs
WHERE id = ?;
`, id)
	doc, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return corpus.Doc{}, fmt.Errorf("doc %s: %w", id, internalerr.ErrNotFound)
	}
	return doc, err
}

// DeleteDoc removes a document
func (s *sqliteStore) DeleteDoc(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM docs WHERE id = ?`, id)
	return err
}

// Docs returns every document ordered by ID
func (s *sqliteStore) Docs(ctx context.Context) ([]corpus.Doc, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, source, body, stemmed, added_at
FROM docs
ORDER BY id;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []corpus.Doc
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Count returns the number of documents
func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&total)
	return total, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDoc(row scanner) (corpus.Doc, error) {
	var (
		doc                  corpus.Doc
		title, source, added sql.NullString
	)
	if err := row.Scan(&doc.ID, &title, &source, &doc.Text, &doc.Stemmed, &added); err != nil {
		return corpus.Doc{}, err
	}
	doc.Title = title.String
	doc.Source = source.String
	if added.String != "" {
		if parsed, perr := time.Parse(time.RFC3339, added.String); perr == nil {
			doc.AddedAt = parsed
		}
	}
	return doc, nil
}
