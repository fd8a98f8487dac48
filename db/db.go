package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/4epuha1337/nextcharge/charge"
)

var ErrNotFound = errors.New("subscription not found")

type Subscription struct {
	ID         int64         `json:"id,string"`
	Title      string        `json:"title"`
	Comment    string        `json:"comment"`
	StartDate  charge.Date   `json:"start_date"`
	Period     charge.Period `json:"period"`
	NextCharge charge.Date   `json:"next_charge"`
}

const createTableQuery = `
CREATE TABLE IF NOT EXISTS subscription (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	start_date CHAR(10) NOT NULL,
	period TEXT NOT NULL CHECK(period IN ('weekly', 'monthly', 'yearly')),
	next_charge CHAR(10) NOT NULL
);
CREATE INDEX IF NOT EXISTS subscription_next_charge ON subscription (next_charge);
`

type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating the file and schema when
// they do not exist yet.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers so concurrent requests never see
	// SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(createTableQuery); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, sub Subscription) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO subscription (title, comment, start_date, period, next_charge) VALUES (?, ?, ?, ?, ?)",
		sub.Title, sub.Comment, sub.StartDate.String(), sub.Period.String(), sub.NextCharge.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to add subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read subscription id: %w", err)
	}
	return id, nil
}

const selectColumns = "SELECT id, title, comment, start_date, period, next_charge FROM subscription"

// List returns all subscriptions ordered by next charge date.
func (s *Store) List(ctx context.Context) ([]Subscription, error) {
	return s.query(ctx, selectColumns+" ORDER BY next_charge ASC, id ASC")
}

// Due returns the subscriptions whose next charge falls on or before on.
func (s *Store) Due(ctx context.Context, on charge.Date) ([]Subscription, error) {
	return s.query(ctx, selectColumns+" WHERE next_charge <= ? ORDER BY next_charge ASC, id ASC", on.String())
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Subscription, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return subs, nil
}

func (s *Store) Get(ctx context.Context, id int64) (Subscription, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return sub, err
}

func (s *Store) Update(ctx context.Context, sub Subscription) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscription
		SET title = ?, comment = ?, start_date = ?, period = ?, next_charge = ?
		WHERE id = ?`,
		sub.Title, sub.Comment, sub.StartDate.String(), sub.Period.String(), sub.NextCharge.String(), sub.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return checkAffected(res, sub.ID)
}

// Advance moves the next charge of subscription id forward by one period
// and returns the updated subscription. The update only applies if the
// stored next charge is still the one it was computed from, so concurrent
// calls each move the date by one period.
func (s *Store) Advance(ctx context.Context, id int64) (Subscription, error) {
	for {
		sub, err := s.Get(ctx, id)
		if err != nil {
			return Subscription{}, err
		}
		current := sub.NextCharge
		sub.NextCharge = charge.Next(current, sub.Period)
		if err := charge.CheckRange(sub.NextCharge); err != nil {
			return Subscription{}, fmt.Errorf("subscription %d: %w", id, err)
		}
		res, err := s.db.ExecContext(ctx,
			"UPDATE subscription SET next_charge = ? WHERE id = ? AND next_charge = ?",
			sub.NextCharge.String(), id, current.String())
		if err != nil {
			return Subscription{}, fmt.Errorf("failed to advance subscription: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return Subscription{}, fmt.Errorf("failed to check rows affected: %w", err)
		}
		if n == 1 {
			return sub, nil
		}
		// Lost a race with another Advance or Update; reload and retry.
		if err := ctx.Err(); err != nil {
			return Subscription{}, err
		}
	}
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subscription WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return checkAffected(res, id)
}

func checkAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row scanner) (Subscription, error) {
	var (
		sub                     Subscription
		start, period, nextDate string
	)
	if err := row.Scan(&sub.ID, &sub.Title, &sub.Comment, &start, &period, &nextDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Subscription{}, err
		}
		return Subscription{}, fmt.Errorf("failed to scan subscription: %w", err)
	}
	var err error
	if sub.StartDate, err = charge.ParseDate(start); err != nil {
		return Subscription{}, fmt.Errorf("subscription %d: %w", sub.ID, err)
	}
	if sub.Period, err = charge.ParsePeriod(period); err != nil {
		return Subscription{}, fmt.Errorf("subscription %d: %w", sub.ID, err)
	}
	if sub.NextCharge, err = charge.ParseDate(nextDate); err != nil {
		return Subscription{}, fmt.Errorf("subscription %d: %w", sub.ID, err)
	}
	return sub, nil
}
