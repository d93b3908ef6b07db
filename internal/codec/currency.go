package codec

import (
	"fmt"

	"github.com/rickgao/cachedb/internal/model"
)

// CurrencyRow is the relational form of a model.Currency.
type CurrencyRow struct {
	Code      string
	Precision int16
	ISO4217   int32
	Name      string
	Type      string
}

// EncodeCurrency converts a currency to its row form.
func EncodeCurrency(c model.Currency) CurrencyRow {
	return CurrencyRow{
		Code:      c.Code,
		Precision: int16(c.Precision),
		ISO4217:   int32(c.ISO4217),
		Name:      c.Name,
		Type:      string(c.Type),
	}
}

// DecodeCurrency reconstructs a currency from its row form.
func DecodeCurrency(r CurrencyRow) (model.Currency, error) {
	typ, err := model.ParseCurrencyType(r.Type)
	if err != nil {
		return model.Currency{}, &DecodeError{Entity: "currency", Key: r.Code, Reason: err.Error()}
	}
	if r.Precision < 0 || r.Precision > model.MaxPrecision {
		return model.Currency{}, &DecodeError{
			Entity: "currency",
			Key:    r.Code,
			Reason: fmt.Sprintf("precision %d out of range", r.Precision),
		}
	}
	return model.Currency{
		Code:      r.Code,
		Precision: uint8(r.Precision),
		ISO4217:   uint16(r.ISO4217),
		Name:      r.Name,
		Type:      typ,
	}, nil
}
