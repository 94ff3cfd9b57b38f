// Package repository defines the persistence boundary for stores and their
// addresses. Backends live in internal/postgres and internal/sqlite.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/lojas/internal/domain"
)

// Constraint names shared by every backend's migrations.
const (
	ConstraintStoreName    = "stores_name_unique"
	ConstraintAddressOwner = "addresses_owner_unique"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("repository: no rows")

	// ErrUniqueViolation is matched by every ConstraintError.
	ErrUniqueViolation = errors.New("repository: unique violation")

	// ErrUnknownOwnerKind is returned when an address names an owner kind
	// no table backs.
	ErrUnknownOwnerKind = errors.New("repository: unknown owner kind")
)

// ConstraintError reports a unique constraint violation by name.
type ConstraintError struct {
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("unique constraint %q violated: %v", e.Constraint, e.Err)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrUniqueViolation) match.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrUniqueViolation
}

// IsConstraint reports whether err violates the named unique constraint.
func IsConstraint(err error, name string) bool {
	var ce *ConstraintError
	return errors.As(err, &ce) && ce.Constraint == name
}

// CreateAddressParams holds the columns of a new address row.
type CreateAddressParams struct {
	OwnerKind    domain.OwnerKind
	OwnerID      int64
	PostalCode   string
	State        string
	City         string
	Neighborhood string
	Street       string
	StreetNumber string
	Complement   string
}

// Querier is the set of statements the service runs. Implementations are
// bound either to a connection pool or to an open transaction.
type Querier interface {
	CreateStore(ctx context.Context, name string) (domain.Store, error)
	GetStore(ctx context.Context, id int64) (domain.Store, error)
	GetStoreByName(ctx context.Context, name string) (domain.Store, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
	UpdateStoreName(ctx context.Context, id int64, name string) error
	DeleteStore(ctx context.Context, id int64) (int64, error)

	CreateAddress(ctx context.Context, params CreateAddressParams) (domain.Address, error)
	GetAddressByOwner(ctx context.Context, kind domain.OwnerKind, ownerID int64) (domain.Address, error)
	ListAddressesByOwnerKind(ctx context.Context, kind domain.OwnerKind) ([]domain.Address, error)
	DeleteAddress(ctx context.Context, id int64) (int64, error)
}

// Repository is a Querier that can also run a function inside a transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Repository interface {
	Querier
	WithTx(ctx context.Context, fn func(q Querier) error) error
	Close() error
}
