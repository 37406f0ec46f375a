package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/de-tools/line-report/pkg/models/store"
	"github.com/de-tools/line-report/pkg/store/duckdb"
)

var ErrNotFound = errors.New("archived report not found")

const (
	defaultLimit     = 20
	processSeparator = ","
)

// Store keeps settled report collections as JSON payloads keyed by collection id.
type Store interface {
	Save(ctx context.Context, report store.ArchivedReport) error
	Get(ctx context.Context, id string) (*store.ArchivedReport, error)
	ListRecent(ctx context.Context, surface string, limit int) ([]store.ArchivedReport, error)
	ListByProcess(ctx context.Context, process string, limit int) ([]store.ArchivedReport, error)
	// Prune deletes all but the newest keep reports of a surface.
	Prune(ctx context.Context, surface string, keep int) (int64, error)
	// InTx runs fn in one transaction; Save and Prune called with its ctx join it.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type archiveStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &archiveStore{
		db: db,
	}, nil
}

func (s *archiveStore) conn(ctx context.Context) queryer {
	if tx := duckdb.GetTransaction(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *archiveStore) Save(ctx context.Context, report store.ArchivedReport) error {
	if report.ID == "" {
		return fmt.Errorf("archived report id is empty")
	}
	for _, p := range report.Processes {
		if p == "" || strings.Contains(p, processSeparator) {
			return fmt.Errorf("archived report %s: invalid process id %q", report.ID, p)
		}
	}

	query := `
		INSERT OR REPLACE INTO report_archive (
			id, surface, generation, time_range, state, processes, created_at, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.conn(ctx).ExecContext(ctx, query,
		report.ID,
		report.Surface,
		report.Generation,
		report.Range,
		report.State,
		strings.Join(report.Processes, processSeparator),
		report.CreatedAt.UTC(),
		string(report.Payload),
	)
	if err != nil {
		return fmt.Errorf("insert archived report: %w", err)
	}
	return nil
}

func (s *archiveStore) Get(ctx context.Context, id string) (*store.ArchivedReport, error) {
	query := `
		SELECT id, surface, generation, time_range, state, processes, created_at, payload
		FROM report_archive
		WHERE id = ?
	`
	report, err := scanReport(s.conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query archived report: %w", err)
	}
	return report, nil
}

func (s *archiveStore) ListRecent(ctx context.Context, surface string, limit int) ([]store.ArchivedReport, error) {
	query := `
		SELECT id, surface, generation, time_range, state, processes, created_at, payload
		FROM report_archive
		WHERE surface = ?
		ORDER BY created_at DESC, generation DESC
		LIMIT ?
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, surface, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query archived reports: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *archiveStore) ListByProcess(ctx context.Context, process string, limit int) ([]store.ArchivedReport, error) {
	query := `
		SELECT id, surface, generation, time_range, state, processes, created_at, payload
		FROM report_archive
		WHERE list_contains(string_split(processes, ','), ?)
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := s.conn(ctx).QueryContext(ctx, query, process, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query archived reports by process: %w", err)
	}
	defer rows.Close()
	return scanReports(rows)
}

func (s *archiveStore) Prune(ctx context.Context, surface string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, fmt.Errorf("prune keep must be positive, got %d", keep)
	}

	query := `
		DELETE FROM report_archive
		WHERE surface = ?
		  AND id NOT IN (
			SELECT id FROM report_archive
			WHERE surface = ?
			ORDER BY created_at DESC, generation DESC
			LIMIT ?
		  )
	`
	res, err := s.conn(ctx).ExecContext(ctx, query, surface, surface, keep)
	if err != nil {
		return 0, fmt.Errorf("prune archived reports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune archived reports: %w", err)
	}
	return n, nil
}

func (s *archiveStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return duckdb.RunInTx(ctx, s.db, fn)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*store.ArchivedReport, error) {
	var (
		r         store.ArchivedReport
		processes string
		payload   string
	)
	if err := row.Scan(&r.ID, &r.Surface, &r.Generation, &r.Range, &r.State, &processes, &r.CreatedAt, &payload); err != nil {
		return nil, err
	}
	if processes != "" {
		r.Processes = strings.Split(processes, processSeparator)
	}
	r.Payload = []byte(payload)
	return &r, nil
}

func scanReports(rows *sql.Rows) ([]store.ArchivedReport, error) {
	reports := []store.ArchivedReport{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archived report: %w", err)
		}
		reports = append(reports, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived reports: %w", err)
	}
	return reports, nil
}
