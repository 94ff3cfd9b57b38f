package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries runs store and address statements against a pool or a transaction.
type Queries struct {
	db DBTX
}

// Compile-time check to ensure Queries implements repository.Querier.
var _ repository.Querier = (*Queries)(nil)

// Repository implements repository.Repository on a pgx pool.
type Repository struct {
	*Queries
	pool *pgxpool.Pool
}

var _ repository.Repository = (*Repository)(nil)

// New creates a Repository backed by the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{Queries: &Queries{db: pool}, pool: pool}
}

// WithTx runs fn inside a transaction. Any error from fn rolls the
// transaction back; otherwise it is committed.
func (r *Repository) WithTx(ctx context.Context, fn func(q repository.Querier) error) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(&Queries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close releases the pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// =============================================================================
// Stores
// =============================================================================

func (q *Queries) CreateStore(ctx context.Context, name string) (domain.Store, error) {
	var s domain.Store
	err := q.db.QueryRow(ctx,
		`INSERT INTO stores (name) VALUES ($1) RETURNING id, name`, name,
	).Scan(&s.ID, &s.Name)
	if err != nil {
		return domain.Store{}, mapError(err)
	}
	return s, nil
}

func (q *Queries) GetStore(ctx context.Context, id int64) (domain.Store, error) {
	var s domain.Store
	err := q.db.QueryRow(ctx, `SELECT id, name FROM stores WHERE id = $1`, id).Scan(&s.ID, &s.Name)
	if err != nil {
		return domain.Store{}, mapError(err)
	}
	return s, nil
}

func (q *Queries) GetStoreByName(ctx context.Context, name string) (domain.Store, error) {
	var s domain.Store
	err := q.db.QueryRow(ctx, `SELECT id, name FROM stores WHERE name = $1`, name).Scan(&s.ID, &s.Name)
	if err != nil {
		return domain.Store{}, mapError(err)
	}
	return s, nil
}

func (q *Queries) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := q.db.Query(ctx, `SELECT id, name FROM stores ORDER BY id`)
	if err != nil {
		return nil, mapError(err)
	}
	stores, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Store, error) {
		var s domain.Store
		err := row.Scan(&s.ID, &s.Name)
		return s, err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return stores, nil
}

func (q *Queries) UpdateStoreName(ctx context.Context, id int64, name string) error {
	tag, err := q.db.Exec(ctx, `UPDATE stores SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (q *Queries) DeleteStore(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// =============================================================================
// Addresses
// =============================================================================

const addressColumns = `id, owner_kind, owner_id, postal_code, state, city, neighborhood, street, street_number, complement`

func scanAddress(row pgx.Row) (domain.Address, error) {
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

	a, err := scanAddress(q.db.QueryRow(ctx,
		`INSERT INTO addresses (owner_kind, owner_id, postal_code, state, city, neighborhood, street, street_number, complement)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
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
	a, err := scanAddress(q.db.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE owner_kind = $1 AND owner_id = $2`,
		kind.String(), ownerID,
	))
	if err != nil {
		return domain.Address{}, mapError(err)
	}
	return a, nil
}

func (q *Queries) ListAddressesByOwnerKind(ctx context.Context, kind domain.OwnerKind) ([]domain.Address, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE owner_kind = $1 ORDER BY owner_id`,
		kind.String(),
	)
	if err != nil {
		return nil, mapError(err)
	}
	addresses, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Address, error) {
		return scanAddress(row)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return addresses, nil
}

func (q *Queries) DeleteAddress(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// mapError translates pgx errors into repository sentinels.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &repository.ConstraintError{Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
