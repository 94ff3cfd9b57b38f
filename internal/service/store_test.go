package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/dukerupert/lojas/internal"
	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/postalcode"
	"github.com/dukerupert/lojas/internal/repository"
	"github.com/dukerupert/lojas/internal/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLookup resolves from a fixed table and counts calls.
type stubLookup struct {
	addresses map[string]postalcode.Address
	calls     []string
}

func (s *stubLookup) Resolve(ctx context.Context, code string) (*postalcode.Address, error) {
	s.calls = append(s.calls, code)
	addr, ok := s.addresses[code]
	if !ok {
		return nil, postalcode.ErrPostalCodeNotFound.WithOp("postalcode.resolve")
	}
	return &addr, nil
}

func newStubLookup() *stubLookup {
	return &stubLookup{addresses: map[string]postalcode.Address{
		"01001000": {
			Street:       "Praça da Sé",
			Neighborhood: "Sé",
			City:         "São Paulo",
			State:        "SP",
			AreaCode:     "3550308",
			Provider:     postalcode.ProviderCepAberto,
		},
		"20040002": {
			Street:       "Rua da Assembleia",
			Neighborhood: "Centro",
			City:         "Rio de Janeiro",
			State:        "RJ",
			AreaCode:     "3304557",
			Provider:     postalcode.ProviderViaCep,
		},
	}}
}

func newTestRepo(t *testing.T) *sqlite.Repository {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "lojas.db"))
	require.NoError(t, err)
	require.NoError(t, internal.RunMigrations(db, internal.DriverSQLite))

	repo := sqlite.New(db)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestService(t *testing.T) (StoreService, *sqlite.Repository, *stubLookup) {
	t.Helper()
	repo := newTestRepo(t)
	lookup := newStubLookup()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStoreService(repo, lookup, logger), repo, lookup
}

func strPtr(s string) *string {
	return &s
}

func mustCreate(t *testing.T, svc StoreService, name, code, number string) int64 {
	t.Helper()
	id, err := svc.CreateStore(context.Background(), CreateStoreParams{
		Name:         name,
		PostalCode:   code,
		StreetNumber: number,
	})
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, repo *sqlite.Repository) (stores, addresses int) {
	t.Helper()
	ctx := context.Background()

	s, err := repo.ListStores(ctx)
	require.NoError(t, err)
	a, err := repo.ListAddressesByOwnerKind(ctx, domain.OwnerKindStores)
	require.NoError(t, err)
	return len(s), len(a)
}

func TestStoreService_CreateStore(t *testing.T) {
	svc, repo, lookup := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateStore(ctx, CreateStoreParams{
		Name:         "Loja Centro",
		PostalCode:   "01001000",
		StreetNumber: "100",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, []string{"01001000"}, lookup.calls, "resolved exactly once")

	store, err := repo.GetStore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Loja Centro", store.Name)

	addr, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	assert.Equal(t, domain.OwnerKindStores, addr.OwnerKind)
	assert.Equal(t, int64(1), addr.OwnerID)
	assert.Equal(t, "01001000", addr.PostalCode)
	assert.Equal(t, "100", addr.StreetNumber)
	assert.Equal(t, "SP", addr.State)
	assert.Equal(t, "São Paulo", addr.City)
	assert.Equal(t, "Sé", addr.Neighborhood)
	assert.Equal(t, "Praça da Sé", addr.Street)
	assert.Equal(t, "", addr.Complement)
}

func TestStoreService_CreateStore_UnresolvablePostalCode(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.CreateStore(context.Background(), CreateStoreParams{
		Name:         "Loja Fantasma",
		PostalCode:   "99999999",
		StreetNumber: "1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, postalcode.ErrPostalCodeNotFound)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err), "reported as a field failure, matched by sentinel")
	assert.Equal(t, MsgPostalCodeNotFound, domain.GetValidationFields(err)[0].Message)

	stores, addresses := countRows(t, repo)
	assert.Zero(t, stores)
	assert.Zero(t, addresses)
}

func TestStoreService_CreateStore_Validation(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}

	tests := []struct {
		name       string
		params     CreateStoreParams
		wantFields []domain.FieldError
		wantLookup int
	}{
		{
			name:   "everything missing",
			params: CreateStoreParams{},
			wantFields: []domain.FieldError{
				{Field: FieldName, Message: MsgNameRequired},
				{Field: FieldPostalCode, Message: MsgPostalCodeRequired},
				{Field: FieldStreetNumber, Message: MsgStreetNumberRequired},
			},
		},
		{
			name: "postal code too long skips lookup",
			params: CreateStoreParams{
				Name:         "Loja",
				PostalCode:   "010010001",
				StreetNumber: "1",
			},
			wantFields: []domain.FieldError{
				{Field: FieldPostalCode, Message: MsgPostalCodeTooLong},
			},
		},
		{
			name: "name and street number too long",
			params: CreateStoreParams{
				Name:         string(long),
				PostalCode:   "01001000",
				StreetNumber: string(long),
			},
			wantFields: []domain.FieldError{
				{Field: FieldName, Message: MsgNameTooLong},
				{Field: FieldStreetNumber, Message: MsgStreetNumberTooLong},
			},
			wantLookup: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, lookup := newTestService(t)

			_, err := svc.CreateStore(context.Background(), tt.params)
			require.Error(t, err)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantFields, domain.GetValidationFields(err))
			assert.Len(t, lookup.calls, tt.wantLookup)

			stores, addresses := countRows(t, repo)
			assert.Zero(t, stores)
			assert.Zero(t, addresses)
		})
	}
}

func TestStoreService_CreateStore_DuplicateName(t *testing.T) {
	svc, repo, _ := newTestService(t)
	mustCreate(t, svc, "Loja Centro", "01001000", "100")

	_, err := svc.CreateStore(context.Background(), CreateStoreParams{
		Name:         "Loja Centro",
		PostalCode:   "20040002",
		StreetNumber: "5",
	})
	require.Error(t, err)
	assert.Equal(t, []domain.FieldError{{Field: FieldName, Message: MsgNameTaken}}, domain.GetValidationFields(err))

	stores, addresses := countRows(t, repo)
	assert.Equal(t, 1, stores)
	assert.Equal(t, 1, addresses)
}

func TestStoreService_CreateStore_AddressConflictRollsBack(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// A stray row already claims the owner id the next store will get.
	_, err := repo.CreateAddress(ctx, repository.CreateAddressParams{
		OwnerKind:    domain.OwnerKindStores,
		OwnerID:      1,
		PostalCode:   "01001000",
		State:        "SP",
		City:         "São Paulo",
		StreetNumber: "1",
	})
	require.NoError(t, err)

	_, err = svc.CreateStore(ctx, CreateStoreParams{
		Name:         "Loja Centro",
		PostalCode:   "01001000",
		StreetNumber: "100",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAddressConflict)
	assert.Equal(t, domain.EINTEGRITY, domain.ErrorCode(err))

	stores, addresses := countRows(t, repo)
	assert.Zero(t, stores, "store insert must be rolled back")
	assert.Equal(t, 1, addresses)
}

func TestStoreService_OneAddressPerStore(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	names := []string{"Loja A", "Loja B", "Loja C", "Loja D"}
	for i, name := range names {
		code := "01001000"
		if i%2 == 1 {
			code = "20040002"
		}
		mustCreate(t, svc, name, code, "10")
	}

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	addresses, err := repo.ListAddressesByOwnerKind(ctx, domain.OwnerKindStores)
	require.NoError(t, err)

	perOwner := map[int64]int{}
	for _, a := range addresses {
		perOwner[a.OwnerID]++
	}
	require.Len(t, stores, len(names))
	for _, s := range stores {
		assert.Equal(t, 1, perOwner[s.ID], "store %d", s.ID)
	}
}

func TestStoreService_UpdateStore_NameOnly(t *testing.T) {
	svc, repo, lookup := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Loja Centro", "01001000", "100")

	before, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	lookup.calls = nil

	err = svc.UpdateStore(ctx, id, UpdateStoreParams{Name: strPtr("Loja Sé")})
	require.NoError(t, err)
	assert.Empty(t, lookup.calls)

	store, err := repo.GetStore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Loja Sé", store.Name)

	after, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreService_UpdateStore_EmptyComplementIsNotAnAddress(t *testing.T) {
	svc, repo, lookup := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Loja Centro", "01001000", "100")

	before, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	lookup.calls = nil

	// Forms post every field; an empty complement must not demand an address.
	err = svc.UpdateStore(ctx, id, UpdateStoreParams{
		Name:       strPtr("Loja 2"),
		Complement: strPtr(""),
	})
	require.NoError(t, err)
	assert.Empty(t, lookup.calls)

	store, err := repo.GetStore(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Loja 2", store.Name)

	after, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStoreService_UpdateStore_SameAddressIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Loja Centro", "01001000", "100")

	before, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)

	err = svc.UpdateStore(ctx, id, UpdateStoreParams{
		PostalCode:   strPtr("01001000"),
		StreetNumber: strPtr("100"),
		Complement:   strPtr("Sala 2"),
	})
	require.NoError(t, err)

	after, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	assert.Equal(t, before, after, "complement-only change leaves the row untouched")
}

func TestStoreService_UpdateStore_PostalCodeChange(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Loja Centro", "01001000", "100")

	before, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)

	err = svc.UpdateStore(ctx, id, UpdateStoreParams{
		PostalCode:   strPtr("20040002"),
		StreetNumber: strPtr("100"),
		Complement:   strPtr("Loja 3"),
	})
	require.NoError(t, err)

	after, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID, "address row is replaced")
	assert.Equal(t, "20040002", after.PostalCode)
	assert.Equal(t, "RJ", after.State)
	assert.Equal(t, "Rio de Janeiro", after.City)
	assert.Equal(t, "Centro", after.Neighborhood)
	assert.Equal(t, "Rua da Assembleia", after.Street)
	assert.Equal(t, "Loja 3", after.Complement)

	addresses, err := repo.ListAddressesByOwnerKind(ctx, domain.OwnerKindStores)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, after.ID, addresses[0].ID)
}

func TestStoreService_UpdateStore_StreetNumberChange(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Loja Centro", "01001000", "100")

	before, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)

	err = svc.UpdateStore(ctx, id, UpdateStoreParams{
		PostalCode:   strPtr("01001000"),
		StreetNumber: strPtr("200"),
	})
	require.NoError(t, err)

	after, err := repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID)
	assert.Equal(t, "200", after.StreetNumber)
}

func TestStoreService_UpdateStore_Errors(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.UpdateStore(context.Background(), 42, UpdateStoreParams{Name: strPtr("Loja")})
		assert.ErrorIs(t, err, ErrStoreNotFound)
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("address fields must come together", func(t *testing.T) {
		svc, _, lookup := newTestService(t)
		id := mustCreate(t, svc, "Loja Centro", "01001000", "100")
		lookup.calls = nil

		err := svc.UpdateStore(context.Background(), id, UpdateStoreParams{Complement: strPtr("Fundos")})
		require.Error(t, err)
		assert.Equal(t, []domain.FieldError{
			{Field: FieldPostalCode, Message: MsgPostalCodeRequired},
			{Field: FieldStreetNumber, Message: MsgStreetNumberRequired},
		}, domain.GetValidationFields(err))
		assert.Empty(t, lookup.calls)
	})

	t.Run("unresolvable postal code writes nothing", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		ctx := context.Background()
		id := mustCreate(t, svc, "Loja Centro", "01001000", "100")

		err := svc.UpdateStore(ctx, id, UpdateStoreParams{
			Name:         strPtr("Loja Nova"),
			PostalCode:   strPtr("99999999"),
			StreetNumber: strPtr("100"),
		})
		assert.ErrorIs(t, err, postalcode.ErrPostalCodeNotFound)

		store, err := repo.GetStore(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Loja Centro", store.Name)
	})

	t.Run("name taken by another store", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustCreate(t, svc, "Loja A", "01001000", "1")
		id := mustCreate(t, svc, "Loja B", "01001000", "2")

		err := svc.UpdateStore(context.Background(), id, UpdateStoreParams{Name: strPtr("Loja A")})
		assert.Equal(t, []domain.FieldError{{Field: FieldName, Message: MsgNameTaken}}, domain.GetValidationFields(err))
	})

	t.Run("keeping its own name is allowed", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		id := mustCreate(t, svc, "Loja A", "01001000", "1")

		assert.NoError(t, svc.UpdateStore(context.Background(), id, UpdateStoreParams{Name: strPtr("Loja A")}))
	})

	t.Run("missing address is an integrity error and rolls back", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		ctx := context.Background()

		store, err := repo.CreateStore(ctx, "Loja Sem Endereço")
		require.NoError(t, err)

		err = svc.UpdateStore(ctx, store.ID, UpdateStoreParams{
			Name:         strPtr("Loja Renomeada"),
			PostalCode:   strPtr("01001000"),
			StreetNumber: strPtr("1"),
		})
		assert.ErrorIs(t, err, ErrAddressMissing)
		assert.Equal(t, domain.EINTEGRITY, domain.ErrorCode(err))

		got, err := repo.GetStore(ctx, store.ID)
		require.NoError(t, err)
		assert.Equal(t, "Loja Sem Endereço", got.Name)
	})
}

func TestStoreService_DeleteStore(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := mustCreate(t, svc, "Loja Centro", "01001000", "100")
	other := mustCreate(t, svc, "Loja Rio", "20040002", "5")

	require.NoError(t, svc.DeleteStore(ctx, id))

	_, err := repo.GetStore(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetAddressByOwner(ctx, domain.OwnerKindStores, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.GetAddressByOwner(ctx, domain.OwnerKindStores, other)
	assert.NoError(t, err, "other stores keep their address")
}

func TestStoreService_DeleteStore_Errors(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		svc, _, _ := newTestService(t)

		err := svc.DeleteStore(context.Background(), 7)
		assert.ErrorIs(t, err, ErrStoreNotFound)
	})

	t.Run("store without address removes nothing", func(t *testing.T) {
		svc, repo, _ := newTestService(t)
		ctx := context.Background()

		store, err := repo.CreateStore(ctx, "Loja Sem Endereço")
		require.NoError(t, err)

		err = svc.DeleteStore(ctx, store.ID)
		assert.ErrorIs(t, err, ErrAddressMissing)
		assert.Equal(t, domain.EINTEGRITY, domain.ErrorCode(err))

		_, err = repo.GetStore(ctx, store.ID)
		assert.NoError(t, err)
	})
}

func TestStoreService_GetAndList(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "Loja A", "01001000", "1")
	b := mustCreate(t, svc, "Loja B", "20040002", "2")

	bare, err := repo.CreateStore(ctx, "Loja C")
	require.NoError(t, err)

	store, err := svc.GetStore(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, store.Address)
	assert.Equal(t, "01001-000", store.Address.MaskedPostalCode())

	_, err = svc.GetStore(ctx, 999)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	stores, err := svc.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 3)
	assert.Equal(t, a, stores[0].ID)
	assert.Equal(t, "SP", stores[0].Address.State)
	assert.Equal(t, b, stores[1].ID)
	assert.Equal(t, "RJ", stores[1].Address.State)
	assert.Equal(t, bare.ID, stores[2].ID)
	assert.Nil(t, stores[2].Address)
}
