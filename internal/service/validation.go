package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/lojas/internal/domain"
	"github.com/dukerupert/lojas/internal/postalcode"
	"github.com/dukerupert/lojas/internal/repository"
	"github.com/go-playground/validator/v10"
)

// Validator checks store input before anything is written. Each method
// records at most one failure per field on the given ValidationError and
// returns a non-nil error only when the check itself could not run.
type Validator struct {
	lookup   postalcode.Lookup
	stores   repository.Querier
	validate *validator.Validate
}

// NewValidator creates a Validator. stores is used for the name uniqueness
// check; lookup resolves postal codes.
func NewValidator(lookup postalcode.Lookup, stores repository.Querier) *Validator {
	return &Validator{
		lookup:   lookup,
		stores:   stores,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

var (
	nameRule         = fmt.Sprintf("required,max=%d", domain.StoreNameMaxLength)
	postalCodeRule   = fmt.Sprintf("required,max=%d", domain.PostalCodeLength)
	streetNumberRule = fmt.Sprintf("required,max=%d", domain.StreetNumberMaxLength)
)

// ValidateName checks that name is present, short enough and not used by
// another store. excludeID is the store being updated, or 0 on create.
func (v *Validator) ValidateName(ctx context.Context, ve *domain.ValidationError, name *string, excludeID int64) error {
	if !v.checkRule(ve, FieldName, name, nameRule, MsgNameRequired, MsgNameTooLong) {
		return nil
	}

	existing, err := v.stores.GetStoreByName(ctx, *name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check store name: %w", err)
	}
	if existing.ID != excludeID {
		ve.Add(FieldName, MsgNameTaken)
	}
	return nil
}

// ValidatePostalCode checks the code's shape and then resolves it. The
// resolved address is returned so the caller does not have to ask the
// providers a second time; it is nil whenever the field failed.
func (v *Validator) ValidatePostalCode(ctx context.Context, ve *domain.ValidationError, code *string) (*postalcode.Address, error) {
	if !v.checkRule(ve, FieldPostalCode, code, postalCodeRule, MsgPostalCodeRequired, MsgPostalCodeTooLong) {
		return nil, nil
	}

	addr, err := v.lookup.Resolve(ctx, *code)
	if errors.Is(err, postalcode.ErrPostalCodeNotFound) {
		ve.Add(FieldPostalCode, MsgPostalCodeNotFound)
		if ve.Cause == nil {
			ve.Cause = err
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve postal code: %w", err)
	}
	return addr, nil
}

// ValidateStreetNumber checks that number is present and short enough.
func (v *Validator) ValidateStreetNumber(ve *domain.ValidationError, number *string) {
	v.checkRule(ve, FieldStreetNumber, number, streetNumberRule, MsgStreetNumberRequired, MsgStreetNumberTooLong)
}

// checkRule applies a "required,max=N" rule to an optional value and records
// the matching message. It reports whether the value passed.
func (v *Validator) checkRule(ve *domain.ValidationError, field string, value *string, rule, requiredMsg, tooLongMsg string) bool {
	if value == nil {
		ve.Add(field, requiredMsg)
		return false
	}

	err := v.validate.Var(*value, rule)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		ve.Add(field, tooLongMsg)
	} else {
		ve.Add(field, requiredMsg)
	}
	return false
}
