package domain

// OwnerKind identifies the entity type that owns an address row.
type OwnerKind string

const (
	// OwnerKindStores tags addresses owned by a store.
	OwnerKindStores OwnerKind = "stores"
)

// String returns the string representation of the OwnerKind.
func (o OwnerKind) String() string {
	return string(o)
}

// IsValid checks if the OwnerKind is a known value.
func (o OwnerKind) IsValid() bool {
	switch o {
	case OwnerKindStores:
		return true
	default:
		return false
	}
}

// Column limits shared by validation and the schema.
const (
	PostalCodeLength      = 8
	StoreNameMaxLength    = 200
	StreetNumberMaxLength = 200
)

// Store is a physical shop. It owns zero or one Address.
type Store struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Address *Address `json:"address,omitempty"`
}

// Address is the single postal address of an owner.
// (OwnerKind, OwnerID) is unique across the table.
type Address struct {
	ID           int64     `json:"id"`
	OwnerKind    OwnerKind `json:"owner_kind"`
	OwnerID      int64     `json:"owner_id"`
	PostalCode   string    `json:"postal_code"`
	State        string    `json:"state"`
	City         string    `json:"city"`
	Neighborhood string    `json:"neighborhood"`
	Street       string    `json:"street"`
	StreetNumber string    `json:"street_number"`
	Complement   string    `json:"complement"`
}

// MaskedPostalCode formats the postal code as 12345-678.
// Codes that are not 8 characters long are returned unchanged.
func (a Address) MaskedPostalCode() string {
	return MaskPostalCode(a.PostalCode)
}

// MaskPostalCode formats an 8-character CEP as 12345-678.
func MaskPostalCode(code string) string {
	if len(code) != PostalCodeLength {
		return code
	}
	return code[:5] + "-" + code[5:]
}
