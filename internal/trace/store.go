package trace

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store is the durable trace journal. SQLite with WAL mode; one writer.
type Store struct {
	db *sql.DB
}

// Open creates or opens the journal database at path, applying pragmas
// and the schema. Idempotent — safe to call on an existing journal.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal: %w", err)
	}

	// SQLite supports one writer; a second connection would only buy
	// SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the journal.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WriteTrace stores events under name, replacing any prior trace of the
// same name. The whole write is one transaction.
func (s *Store) WriteTrace(ctx context.Context, name string, events []Event) error {
	if name == "" {
		return fmt.Errorf("trace name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM traces WHERE name = ?`, name); err != nil {
		return fmt.Errorf("drop prior trace: %w", err)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO traces (name) VALUES (?)`, name)
	if err != nil {
		return fmt.Errorf("insert trace: %w", err)
	}
	traceID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("trace id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace_events (trace_id, seq, cycle, op, kind, slot, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx, traceID, e.Seq, e.Cycle, e.Op, e.Kind, e.Slot, e.Detail); err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadTrace loads the events of the named trace in sequence order.
func (s *Store) ReadTrace(ctx context.Context, name string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.seq, e.cycle, e.op, e.kind, e.slot, e.detail
		FROM trace_events e
		JOIN traces t ON t.id = e.trace_id
		WHERE t.name = ?
		ORDER BY e.seq
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query trace %q: %w", name, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.Cycle, &e.Op, &e.Kind, &e.Slot, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// TraceInfo summarizes one stored trace.
type TraceInfo struct {
	Name      string
	CreatedAt string
	Events    int
}

// ListTraces returns every stored trace, newest first.
func (s *Store) ListTraces(ctx context.Context) ([]TraceInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name, t.created_at, COUNT(e.seq)
		FROM traces t
		LEFT JOIN trace_events e ON e.trace_id = t.id
		GROUP BY t.id
		ORDER BY t.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list traces: %w", err)
	}
	defer rows.Close()

	var infos []TraceInfo
	for rows.Next() {
		var info TraceInfo
		if err := rows.Scan(&info.Name, &info.CreatedAt, &info.Events); err != nil {
			return nil, fmt.Errorf("scan trace: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate traces: %w", err)
	}
	return infos, nil
}
