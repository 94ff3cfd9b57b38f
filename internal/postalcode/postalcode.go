// Package postalcode resolves Brazilian postal codes (CEP) into a canonical
// address using CEP Aberto first and ViaCEP as the fallback.
package postalcode

import (
	"context"

	"github.com/dukerupert/lojas/internal/domain"
)

//go:generate mockgen -source=postalcode.go -destination=mock_lookup.go -package=postalcode Lookup

// Lookup resolves a postal code into a canonical address.
type Lookup interface {
	// Resolve returns ErrPostalCodeNotFound when no provider knows the code.
	Resolve(ctx context.Context, code string) (*Address, error)
}

// Address is the canonical shape produced no matter which provider answered.
type Address struct {
	Street       string
	Neighborhood string
	City         string
	State        string

	// AreaCode is the IBGE municipality code.
	AreaCode string

	// Provider names the service that answered.
	Provider string
}

// ErrPostalCodeNotFound is returned when neither provider resolves a code.
// Transport failures end up here too: providers cannot tell them apart.
var ErrPostalCodeNotFound = &domain.Error{
	Code:    domain.ENOTFOUND,
	Message: "Postal code not found",
}
