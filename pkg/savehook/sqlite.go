package savehook

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteSink keeps saved exchanges in a local SQLite database.
type SQLiteSink struct {
	db *sql.DB
}

var _ Sink = &SQLiteSink{}

// ExchangeQuery filters stored exchanges.
type ExchangeQuery struct {
	UserID  string
	SinceMs int64
	Limit   int
}

// StoredExchange is a row of the exchanges table.
type StoredExchange struct {
	ID        int64
	UserID    string
	Question  string
	Answer    string
	SavedAtMs int64
}

// SQLiteDSNForFile returns a DSN for a database file with WAL enabled.
func SQLiteDSNForFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("sqlite save sink: empty path")
	}
	return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path), nil
}

func NewSQLiteSink(dsn string) (*SQLiteSink, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlite save sink: empty dsn")
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite save sink: open")
	}
	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exchanges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			saved_at_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS exchanges_by_user ON exchanges(user_id, saved_at_ms DESC);`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return errors.Wrap(err, "sqlite save sink: migrate")
		}
	}
	return nil
}

func (s *SQLiteSink) Save(ctx context.Context, rec Record) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite save sink: db is nil")
	}
	if strings.TrimSpace(rec.Question) == "" {
		return errors.New("sqlite save sink: empty question")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges(user_id, question, answer, saved_at_ms) VALUES (?, ?, ?, ?)`,
		rec.UserID, rec.Question, rec.Answer, rec.SavedAt.UnixMilli(),
	)
	if err != nil {
		return errors.Wrap(err, "sqlite save sink: insert")
	}
	return nil
}

// List returns stored exchanges, oldest first.
func (s *SQLiteSink) List(ctx context.Context, q ExchangeQuery) ([]StoredExchange, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite save sink: db is nil")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	var where []string
	var args []any
	if q.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.SinceMs > 0 {
		where = append(where, "saved_at_ms >= ?")
		args = append(args, q.SinceMs)
	}
	query := `SELECT id, user_id, question, answer, saved_at_ms FROM exchanges`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY saved_at_ms ASC, id ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite save sink: query")
	}
	defer func() { _ = rows.Close() }()

	var out []StoredExchange
	for rows.Next() {
		var e StoredExchange
		if err := rows.Scan(&e.ID, &e.UserID, &e.Question, &e.Answer, &e.SavedAtMs); err != nil {
			return nil, errors.Wrap(err, "sqlite save sink: scan")
		}
		out = append(out, e)
	}
	return out, errors.Wrap(rows.Err(), "sqlite save sink: rows")
}

func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
