package model

import "fmt"

// CurrencyType distinguishes fiat from crypto currencies.
type CurrencyType string

const (
	CurrencyTypeFiat   CurrencyType = "FIAT"
	CurrencyTypeCrypto CurrencyType = "CRYPTO"
)

// ParseCurrencyType converts a stored type string back to a CurrencyType.
func ParseCurrencyType(s string) (CurrencyType, error) {
	switch CurrencyType(s) {
	case CurrencyTypeFiat:
		return CurrencyTypeFiat, nil
	case CurrencyTypeCrypto:
		return CurrencyTypeCrypto, nil
	default:
		return "", fmt.Errorf("unknown currency type %q", s)
	}
}

// Currency is a fiat or crypto currency definition.
type Currency struct {
	Code      string // Primary key (e.g., "USD", "BTC")
	Precision uint8  // Number of decimal places
	ISO4217   uint16 // ISO 4217 numeric code, 0 for crypto
	Name      string // Display name
	Type      CurrencyType
}

// NewCurrency creates a Currency definition.
func NewCurrency(code string, precision uint8, iso4217 uint16, name string, typ CurrencyType) Currency {
	return Currency{
		Code:      code,
		Precision: precision,
		ISO4217:   iso4217,
		Name:      name,
		Type:      typ,
	}
}

// Valid reports whether the currency has the required identity fields.
func (c Currency) Valid() bool {
	return c.Code != "" && (c.Type == CurrencyTypeFiat || c.Type == CurrencyTypeCrypto)
}
