package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/postalcode"
	"github.com/dukerupert/lojas/internal/repository"
)

// StoreService manages stores and keeps each store's single address in step
// with it.
type StoreService interface {
	// CreateStore validates the input, resolves the postal code and writes the
	// store and its address in one transaction. It returns the new store id.
	// An unresolvable postal code is a ValidationError (EINVALID) wrapping
	// postalcode.ErrPostalCodeNotFound; match it with errors.Is, not ErrorCode.
	CreateStore(ctx context.Context, params CreateStoreParams) (int64, error)

	// UpdateStore changes the supplied fields. When the postal code or street
	// number differs from the stored address, the address row is replaced.
	UpdateStore(ctx context.Context, id int64, params UpdateStoreParams) error

	// DeleteStore removes the store and its address. A store without an
	// address is an integrity error and nothing is removed.
	DeleteStore(ctx context.Context, id int64) error

	GetStore(ctx context.Context, id int64) (*domain.Store, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
}

// CreateStoreParams holds the fields of a new store. Every field except
// Complement is required.
type CreateStoreParams struct {
	Name         string
	PostalCode   string
	StreetNumber string
	Complement   string
}

// UpdateStoreParams holds the fields to change; nil means "not supplied".
// Supplying PostalCode, StreetNumber or a non-empty Complement requires both
// PostalCode and StreetNumber. An empty Complement alone is ignored.
type UpdateStoreParams struct {
	Name         *string
	PostalCode   *string
	StreetNumber *string
	Complement   *string
}

func (p UpdateStoreParams) hasAddress() bool {
	return p.PostalCode != nil || p.StreetNumber != nil || (p.Complement != nil && *p.Complement != "")
}

type storeService struct {
	repo      repository.Repository
	validator *Validator
	logger    *slog.Logger
}

// NewStoreService creates a StoreService. Postal codes are resolved through
// lookup before any transaction is opened.
func NewStoreService(repo repository.Repository, lookup postalcode.Lookup, logger *slog.Logger) StoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &storeService{
		repo:      repo,
		validator: NewValidator(lookup, repo),
		logger:    logger,
	}
}

func (s *storeService) CreateStore(ctx context.Context, params CreateStoreParams) (int64, error) {
	const op = "store.create"

	ve := &domain.ValidationError{Op: op}
	if err := s.validator.ValidateName(ctx, ve, &params.Name, 0); err != nil {
		return 0, domain.Internal(err, op, "failed to validate store")
	}
	resolved, err := s.validator.ValidatePostalCode(ctx, ve, &params.PostalCode)
	if err != nil {
		return 0, domain.Internal(err, op, "failed to validate store")
	}
	s.validator.ValidateStreetNumber(ve, &params.StreetNumber)
	if err := ve.Err(); err != nil {
		return 0, err
	}

	var storeID int64
	err = s.repo.WithTx(ctx, func(q repository.Querier) error {
		store, err := q.CreateStore(ctx, params.Name)
		if err != nil {
			return err
		}
		storeID = store.ID

		_, err = q.CreateAddress(ctx, newAddressParams(store.ID, params.PostalCode, params.StreetNumber, params.Complement, resolved))
		return err
	})
	if err != nil {
		return 0, s.mapWriteError(op, err)
	}

	s.logger.Info("store created",
		slog.Int64("store_id", storeID),
		slog.String("postal_code", params.PostalCode),
		slog.String("provider", resolved.Provider),
	)
	return storeID, nil
}

func (s *storeService) UpdateStore(ctx context.Context, id int64, params UpdateStoreParams) error {
	const op = "store.update"

	if _, err := s.repo.GetStore(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStoreNotFound.WithOp(op)
		}
		return domain.Internal(err, op, "failed to load store")
	}

	ve := &domain.ValidationError{Op: op}
	if params.Name != nil {
		if err := s.validator.ValidateName(ctx, ve, params.Name, id); err != nil {
			return domain.Internal(err, op, "failed to validate store")
		}
	}

	var resolved *postalcode.Address
	if params.hasAddress() {
		var err error
		resolved, err = s.validator.ValidatePostalCode(ctx, ve, params.PostalCode)
		if err != nil {
			return domain.Internal(err, op, "failed to validate store")
		}
		s.validator.ValidateStreetNumber(ve, params.StreetNumber)
	}
	if err := ve.Err(); err != nil {
		return err
	}

	var replaced, previous domain.Address
	err := s.repo.WithTx(ctx, func(q repository.Querier) error {
		if params.Name != nil {
			if err := q.UpdateStoreName(ctx, id, *params.Name); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrStoreNotFound.WithOp(op)
				}
				return err
			}
		}

		if resolved == nil {
			return nil
		}

		current, err := q.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAddressMissing.WithOp(op)
		}
		if err != nil {
			return err
		}

		// Complement-only changes leave the row as it is.
		if current.PostalCode == *params.PostalCode && current.StreetNumber == *params.StreetNumber {
			return nil
		}

		n, err := q.DeleteAddress(ctx, current.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAddressMissing.WithOp(op)
		}

		complement := ""
		if params.Complement != nil {
			complement = *params.Complement
		}
		replaced, err = q.CreateAddress(ctx, newAddressParams(id, *params.PostalCode, *params.StreetNumber, complement, resolved))
		previous = current
		return err
	})
	if err != nil {
		return s.mapWriteError(op, err)
	}

	if replaced.ID != 0 {
		s.logger.Info("store address replaced",
			slog.Int64("store_id", id),
			slog.Int64("old_address_id", previous.ID),
			slog.Int64("new_address_id", replaced.ID),
			slog.String("postal_code", replaced.PostalCode),
			slog.String("provider", resolved.Provider),
		)
	}
	return nil
}

func (s *storeService) DeleteStore(ctx context.Context, id int64) error {
	const op = "store.delete"

	err := s.repo.WithTx(ctx, func(q repository.Querier) error {
		if _, err := q.GetStore(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrStoreNotFound.WithOp(op)
			}
			return err
		}

		addr, err := q.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAddressMissing.WithOp(op)
		}
		if err != nil {
			return err
		}

		n, err := q.DeleteAddress(ctx, addr.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrAddressMissing.WithOp(op)
		}

		n, err = q.DeleteStore(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrStoreNotFound.WithOp(op)
		}
		return nil
	})
	if err != nil {
		return s.mapWriteError(op, err)
	}

	s.logger.Info("store deleted", slog.Int64("store_id", id))
	return nil
}

func (s *storeService) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	const op = "store.get"

	store, err := s.repo.GetStore(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrStoreNotFound.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load store")
	}

	addr, err := s.repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	switch {
	case err == nil:
		store.Address = &addr
	case !errors.Is(err, repository.ErrNotFound):
		return nil, domain.Internal(err, op, "failed to load store address")
	}

	return &store, nil
}

func (s *storeService) ListStores(ctx context.Context) ([]domain.Store, error) {
	const op = "store.list"

	stores, err := s.repo.ListStores(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list stores")
	}

	addresses, err := s.repo.ListAddressesByOwnerKind(ctx, domain.OwnerKindStores)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list store addresses")
	}

	byOwner := make(map[int64]domain.Address, len(addresses))
	for _, a := range addresses {
		byOwner[a.OwnerID] = a
	}
	for i := range stores {
		if a, ok := byOwner[stores[i].ID]; ok {
			stores[i].Address = &a
		}
	}

	return stores, nil
}

// mapWriteError converts a failed transaction into the caller-facing error.
// Domain errors pass through; a name race becomes a field failure.
func (s *storeService) mapWriteError(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	switch {
	case repository.IsConstraint(err, repository.ConstraintStoreName):
		return domain.NewValidationError(op, FieldName, MsgNameTaken)
	case repository.IsConstraint(err, repository.ConstraintAddressOwner):
		return domain.Integrity(err, op, ErrAddressConflict.Message)
	}

	return domain.Internal(err, op, "failed to save store")
}

func newAddressParams(storeID int64, postalCode, streetNumber, complement string, resolved *postalcode.Address) repository.CreateAddressParams {
	return repository.CreateAddressParams{
		OwnerKind:    domain.OwnerKindStores,
		OwnerID:      storeID,
		PostalCode:   postalCode,
		State:        resolved.State,
		City:         resolved.City,
		Neighborhood: resolved.Neighborhood,
		Street:       resolved.Street,
		StreetNumber: streetNumber,
		Complement:   complement,
	}
}
