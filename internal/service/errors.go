package service

import (
	"github.com/dukerupert/lojas/internal/domain"
)

// Store errors - use domain.ENOTFOUND
var (
	ErrStoreNotFound = &domain.Error{Code: domain.ENOTFOUND, Message: "Store not found"}
)

// Address invariant errors - use domain.EINTEGRITY
var (
	ErrAddressMissing  = &domain.Error{Code: domain.EINTEGRITY, Message: "Store has no address"}
	ErrAddressConflict = &domain.Error{Code: domain.EINTEGRITY, Message: "Store already has an address"}
)

// Field validation messages.
const (
	MsgNameRequired         = "Name is required"
	MsgNameTooLong          = "Name must be at most 200 characters"
	MsgNameTaken            = "Name already in use"
	MsgPostalCodeRequired   = "Postal code is required"
	MsgPostalCodeTooLong    = "Postal code must be at most 8 characters"
	MsgPostalCodeNotFound   = "Postal code not found"
	MsgStreetNumberRequired = "Street number is required"
	MsgStreetNumberTooLong  = "Street number must be at most 200 characters"
)

// Validated field names, as reported in domain.FieldError.
const (
	FieldName         = "name"
	FieldPostalCode   = "postal_code"
	FieldStreetNumber = "street_number"
)
