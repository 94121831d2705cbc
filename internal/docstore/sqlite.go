package docstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/didi/gendry/builder"
	_ "modernc.org/sqlite"

	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

// sqliteStore persists documents locally; the CLI variant uses it so a
// document list survives between invocations.
type sqliteStore struct {
	db *sql.DB
}

type sqliteConfig struct {
	Path string `json:"path"`
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	content TEXT NOT NULL,
	size INTEGER NOT NULL,
	uploaded_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
INSERT OR IGNORE INTO meta (key, value) VALUES ('revision', 0);
`

var documentColumns = []string{"id", "name", "content", "size", "uploaded_at"}

func init() {
	Register("sqlite", createSqliteStore)
}

func createSqliteStore(args interface{}) (Store, error) {
	cfg := &sqliteConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	return OpenSqlite(cfg.Path)
}

func OpenSqlite(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Add(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":          doc.ID,
		"name":        doc.Name,
		"content":     doc.Content,
		"size":        doc.Size,
		"uploaded_at": doc.UploadedAt,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return err
	}
	return s.bumpRevision(ctx)
}

func (s *sqliteStore) List(ctx context.Context) ([]model.Document, error) {
	where := map[string]interface{}{
		"_orderby": "rowid asc",
	}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := make([]model.Document, 0)
	for rows.Next() {
		var doc model.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Content, &doc.Size, &doc.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*model.Document, error) {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildSelect("documents", where, documentColumns)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	var doc model.Document
	if err := rows.Scan(&doc.ID, &doc.Name, &doc.Content, &doc.Size, &doc.UploadedAt); err != nil {
		return nil, err
	}
	return &doc, rows.Err()
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := builder.BuildDelete("documents", map[string]interface{}{"id": id})
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Idempotent by id: deleting an absent document is a no-op.
		return nil
	}
	return s.bumpRevision(ctx)
}

func (s *sqliteStore) Revision(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'revision'")
	var revision int64
	if err := row.Scan(&revision); err != nil {
		return 0, err
	}
	return revision, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) bumpRevision(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "UPDATE meta SET value = value + 1 WHERE key = 'revision'")
	return err
}
