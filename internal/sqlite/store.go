// Package sqlite implements repository.Repository on an embedded SQLite
// database. It backs local development and the service tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/repository"
	"github.com/mattn/go-sqlite3"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs store and address statements against a database or a transaction.
type Queries struct {
	db DBTX
}

var _ repository.Querier = (*Queries)(nil)

// Repository implements repository.Repository on a *sql.DB.
type Repository struct {
	*Queries
	db *sql.DB
}

var _ repository.Repository = (*Repository)(nil)

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - a 5-second busy timeout for lock contention
//   - a single connection, since SQLite allows one writer at a time
//
// Migrations are not applied here; see internal.RunMigrations.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

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
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return db, nil
}

// New wraps an open database.
func New(db *sql.DB) *Repository {
	return &Repository{Queries: &Queries{db: db}, db: db}
}

// WithTx runs fn inside a transaction, committing only when fn returns nil.
// fn must use the Querier it is given: the pool holds a single connection.
func (r *Repository) WithTx(ctx context.Context, fn func(q repository.Querier) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// =============================================================================
// Stores
// =============================================================================

func (q *Queries) CreateStore(ctx context.Context, name string) (domain.Store, error) {
	var s domain.Store
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO stores (name) VALUES (?) RETURNING id, name`, name,
	).Scan(&s.ID, &s.Name)
	if err != nil {
		return domain.Store{}, mapError(err)
	}
	return s, nil
}

func (q *Queries) GetStore(ctx context.Context, id int64) (domain.Store, error) {
	var s domain.Store
	err := q.db.QueryRowContext(ctx, `SELECT id, name FROM stores WHERE id = ?`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		return domain.Store{}, mapError(err)
	}
	return s, nil
}

func (q *Queries) GetStoreByName(ctx context.Context, name string) (domain.Store, error) {
	var s domain.Store
	err := q.db.QueryRowContext(ctx, `SELECT id, name FROM stores WHERE name = ?`, name).Scan(&s.ID, &s.Name)
	if err != nil {
		return domain.Store{}, mapError(err)
	}
	return s, nil
}

func (q *Queries) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, name FROM stores ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	stores := []domain.Store{}
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func (q *Queries) UpdateStoreName(ctx context.Context, id int64, name string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE stores SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteStore(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// =============================================================================
// Addresses
// =============================================================================

const addressColumns = `id, owner_kind, owner_id, postal_code, state, city, neighborhood, street, street_number, complement`

type scanner interface {
	Scan(dest ...any) error
}

func scanAddress(row scanner) (domain.Address, error) {
	var a domain.Address
	var kind string
	err := row.Scan(&a.ID, &kind, &a.OwnerID, &a.PostalCode, &a.State, &a.City,
		&a.Neighborhood, &a.Street, &a.StreetNumber, &a.Complement)
	a.OwnerKind = domain.OwnerKind(kind)
	return a, err
}

func (q *Queries) CreateAddress(ctx context.Context, p repository.CreateAddressParams) (domain.Address, error) {
	if !p.OwnerKind.IsValid() {
		return domain.Address{}, fmt.Errorf("%w: %q", repository.ErrUnknownOwnerKind, p.OwnerKind)
	}

	a, err := scanAddress(q.db.QueryRowContext(ctx,
		`INSERT INTO addresses (owner_kind, owner_id, postal_code, state, city, neighborhood, street, street_number, complement)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 RETURNING `+addressColumns,
		p.OwnerKind.String(), p.OwnerID, p.PostalCode, p.State, p.City,
		p.Neighborhood, p.Street, p.StreetNumber, p.Complement,
	))
	if err != nil {
		return domain.Address{}, mapError(err)
	}
	return a, nil
}

func (q *Queries) GetAddressByOwner(ctx context.Context, kind domain.OwnerKind, ownerID int64) (domain.Address, error) {
	a, err := scanAddress(q.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE owner_kind = ? AND owner_id = ?`,
		kind.String(), ownerID,
	))
	if err != nil {
		return domain.Address{}, mapError(err)
	}
	return a, nil
}

func (q *Queries) ListAddressesByOwnerKind(ctx context.Context, kind domain.OwnerKind) ([]domain.Address, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE owner_kind = ? ORDER BY owner_id`,
		kind.String(),
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	addresses := []domain.Address{}
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (q *Queries) DeleteAddress(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

// mapError translates database/sql and sqlite3 errors into repository sentinels.
// SQLite does not report index names, so the table in the message picks the
// constraint: "UNIQUE constraint failed: addresses.owner_kind, addresses.owner_id".
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		constraint := ""
		switch {
		case strings.Contains(sqliteErr.Error(), "addresses."):
			constraint = repository.ConstraintAddressOwner
		case strings.Contains(sqliteErr.Error(), "stores."):
			constraint = repository.ConstraintStoreName
		}
		return &repository.ConstraintError{Constraint: constraint, Err: err}
	}
	return err
}
