package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/rds-dashboard/internal/export"
)

const (
	memoryPath   = ":memory:"
	defaultLimit = 50
	maxLimit     = 500

	// Fixed width so created_at sorts lexically.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type SQLiteDB struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// One connection keeps an in-memory database shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db:  db,
		now: time.Now,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS exports (
			id TEXT PRIMARY KEY,
			app_version TEXT NOT NULL,
			export_version INTEGER NOT NULL,
			exported_at TEXT NOT NULL,
			evaluations INTEGER NOT NULL,
			document BLOB NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS results (
			export_id TEXT NOT NULL,
			operation_id TEXT NOT NULL,
			layer_id TEXT NOT NULL,
			result TEXT NOT NULL,
			PRIMARY KEY (export_id, operation_id, layer_id),
			FOREIGN KEY (export_id) REFERENCES exports(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at);
		CREATE INDEX IF NOT EXISTS idx_results_operation_id ON results(operation_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// SaveExport stores doc and its flattened results in one transaction and
// returns the new export id.
func (s *SQLiteDB) SaveExport(ctx context.Context, doc *export.Document) (string, error) {
	body, err := export.Marshal(doc)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO exports (id, app_version, export_version, exported_at, evaluations, document, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, doc.Meta.AppVersion, doc.Meta.ExportVersion, doc.Meta.ExportDatetime,
		len(doc.Data.UngroupedResults), body, s.now().UTC().Format(createdAtLayout),
	)
	if err != nil {
		return "", fmt.Errorf("error inserting export: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (export_id, operation_id, layer_id, result) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("error preparing result insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range doc.Data.UngroupedResults {
		if _, err := stmt.ExecContext(ctx, id, r.OperationID, r.LayerID, string(r.Result)); err != nil {
			return "", fmt.Errorf("error inserting result %s/%s: %w", r.OperationID, r.LayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("error committing export: %w", err)
	}
	return id, nil
}

func (s *SQLiteDB) GetExport(ctx context.Context, id string) (*StoredExport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, app_version, export_version, exported_at, evaluations, created_at, document
		FROM exports WHERE id = ?`, id)
	return scanExport(row)
}

func (s *SQLiteDB) LatestExport(ctx context.Context) (*StoredExport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, app_version, export_version, exported_at, evaluations, created_at, document
		FROM exports ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return scanExport(row)
}

func (s *SQLiteDB) ListExports(ctx context.Context, opts Filter) ([]ExportSummary, error) {
	limit, offset := opts.bounds()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, app_version, export_version, exported_at, evaluations, created_at
		FROM exports ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing exports: %w", err)
	}
	defer rows.Close()

	exports := []ExportSummary{}
	for rows.Next() {
		var e ExportSummary
		var createdAt string
		if err := rows.Scan(&e.ID, &e.AppVersion, &e.ExportVersion, &e.ExportedAt, &e.Evaluations, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning export: %w", err)
		}
		if e.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
			return nil, fmt.Errorf("error parsing created_at for export %s: %w", e.ID, err)
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

// ResultsForOperation returns an operation's results across stored exports,
// newest export first.
func (s *SQLiteDB) ResultsForOperation(ctx context.Context, operationID string, opts Filter) ([]StoredResult, error) {
	limit, offset := opts.bounds()
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.export_id, e.exported_at, r.operation_id, r.layer_id, r.result
		FROM results r
		JOIN exports e ON e.id = r.export_id
		WHERE r.operation_id = ?
		ORDER BY e.created_at DESC, e.rowid DESC, r.layer_id
		LIMIT ? OFFSET ?`, operationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing results for %s: %w", operationID, err)
	}
	defer rows.Close()

	results := []StoredResult{}
	for rows.Next() {
		var r StoredResult
		if err := rows.Scan(&r.ExportID, &r.ExportedAt, &r.OperationID, &r.LayerID, &r.Result); err != nil {
			return nil, fmt.Errorf("error scanning result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Name and Write let the history act as an export sink.
func (s *SQLiteDB) Name() string {
	return "history"
}

func (s *SQLiteDB) Write(ctx context.Context, doc *export.Document) error {
	_, err := s.SaveExport(ctx, doc)
	return err
}

func scanExport(row *sql.Row) (*StoredExport, error) {
	var e StoredExport
	var createdAt string
	var body []byte
	err := row.Scan(&e.ID, &e.AppVersion, &e.ExportVersion, &e.ExportedAt, &e.Evaluations, &createdAt, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error scanning export: %w", err)
	}

	if e.CreatedAt, err = time.Parse(createdAtLayout, createdAt); err != nil {
		return nil, fmt.Errorf("error parsing created_at for export %s: %w", e.ID, err)
	}

	var doc export.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("error decoding export %s: %w", e.ID, err)
	}
	e.Document = &doc
	return &e, nil
}

func (f Filter) bounds() (limit, offset int) {
	limit = f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = f.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
