package codec

import (
	"fmt"

	"github.com/rickgao/cachedb/internal/model"
)

// InstrumentRow is the relational form of an instrument: the superset of all
// variant columns, with pointers for columns that are null when not applicable
// to the row's kind.
//
// Column mapping notes:
//   - CryptoFuture.Underlying (a currency code) is stored in BaseCurrency.
//   - The single settlement currency of Equity/FuturesContract/OptionsContract
//     is stored in QuoteCurrency.
type InstrumentRow struct {
	ID                 string
	Kind               string
	RawSymbol          string
	BaseCurrency       *string
	QuoteCurrency      *string
	SettlementCurrency *string
	ISIN               *string
	AssetClass         *string
	Underlying         *string
	OptionKind         *string
	StrikePrice        *string
	IsInverse          *bool
	ActivationNs       *int64
	ExpirationNs       *int64
	Multiplier         *string
	PricePrecision     int16
	SizePrecision      int16
	PriceIncrement     string
	SizeIncrement      string
	MakerFee           string
	TakerFee           string
	TsEvent            int64
	TsInit             int64
}

// EncodeInstrument converts an instrument variant to its row form. The type
// switch is exhaustive over the closed variant set; an unknown concrete type
// is a programming error and returns an error rather than a corrupt row.
func EncodeInstrument(inst model.Instrument) (InstrumentRow, error) {
	row := InstrumentRow{
		ID:   inst.ID().String(),
		Kind: string(inst.Kind()),
	}

	switch v := inst.(type) {
	case model.CryptoFuture:
		row.RawSymbol = v.RawSymbol
		row.BaseCurrency = ptr(v.Underlying)
		row.QuoteCurrency = ptr(v.QuoteCurrency)
		row.SettlementCurrency = ptr(v.SettlementCurrency)
		row.IsInverse = ptr(v.IsInverse)
		row.ActivationNs = ptr(v.ActivationNs)
		row.ExpirationNs = ptr(v.ExpirationNs)
		fillCommon(&row, v.PricePrecision, v.SizePrecision, v.PriceIncrement, v.SizeIncrement, v.MakerFee, v.TakerFee, v.TsEvent, v.TsInit)

	case model.CryptoPerpetual:
		row.RawSymbol = v.RawSymbol
		row.BaseCurrency = ptr(v.BaseCurrency)
		row.QuoteCurrency = ptr(v.QuoteCurrency)
		row.SettlementCurrency = ptr(v.SettlementCurrency)
		row.IsInverse = ptr(v.IsInverse)
		fillCommon(&row, v.PricePrecision, v.SizePrecision, v.PriceIncrement, v.SizeIncrement, v.MakerFee, v.TakerFee, v.TsEvent, v.TsInit)

	case model.CurrencyPair:
		row.RawSymbol = v.RawSymbol
		row.BaseCurrency = ptr(v.BaseCurrency)
		row.QuoteCurrency = ptr(v.QuoteCurrency)
		fillCommon(&row, v.PricePrecision, v.SizePrecision, v.PriceIncrement, v.SizeIncrement, v.MakerFee, v.TakerFee, v.TsEvent, v.TsInit)

	case model.Equity:
		row.RawSymbol = v.RawSymbol
		row.ISIN = ptr(v.ISIN)
		row.QuoteCurrency = ptr(v.Currency)
		fillCommon(&row, v.PricePrecision, v.SizePrecision, v.PriceIncrement, v.SizeIncrement, v.MakerFee, v.TakerFee, v.TsEvent, v.TsInit)

	case model.FuturesContract:
		row.RawSymbol = v.RawSymbol
		row.AssetClass = ptr(v.AssetClass)
		row.Underlying = ptr(v.Underlying)
		row.QuoteCurrency = ptr(v.Currency)
		row.ActivationNs = ptr(v.ActivationNs)
		row.ExpirationNs = ptr(v.ExpirationNs)
		row.Multiplier = ptr(v.Multiplier.String())
		fillCommon(&row, v.PricePrecision, v.SizePrecision, v.PriceIncrement, v.SizeIncrement, v.MakerFee, v.TakerFee, v.TsEvent, v.TsInit)

	case model.OptionsContract:
		row.RawSymbol = v.RawSymbol
		row.AssetClass = ptr(v.AssetClass)
		row.Underlying = ptr(v.Underlying)
		row.OptionKind = ptr(string(v.OptionKind))
		row.StrikePrice = ptr(v.StrikePrice.String())
		row.QuoteCurrency = ptr(v.Currency)
		row.ActivationNs = ptr(v.ActivationNs)
		row.ExpirationNs = ptr(v.ExpirationNs)
		row.Multiplier = ptr(v.Multiplier.String())
		fillCommon(&row, v.PricePrecision, v.SizePrecision, v.PriceIncrement, v.SizeIncrement, v.MakerFee, v.TakerFee, v.TsEvent, v.TsInit)

	default:
		return InstrumentRow{}, fmt.Errorf("encode instrument: unsupported type %T", inst)
	}

	return row, nil
}

// DecodeInstrument reconstructs an instrument variant from its row form.
// An unknown discriminator or a missing required column yields a DecodeError.
func DecodeInstrument(r InstrumentRow) (model.Instrument, error) {
	id, err := model.ParseInstrumentID(r.ID)
	if err != nil {
		return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
	}

	priceInc, err := model.PriceFromString(r.PriceIncrement)
	if err != nil {
		return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
	}
	sizeInc, err := model.QuantityFromString(r.SizeIncrement)
	if err != nil {
		return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
	}

	switch model.InstrumentKind(r.Kind) {
	case model.KindCryptoFuture:
		if err := require(r, "base_currency", r.BaseCurrency, "quote_currency", r.QuoteCurrency,
			"settlement_currency", r.SettlementCurrency); err != nil {
			return nil, err
		}
		if r.IsInverse == nil || r.ActivationNs == nil || r.ExpirationNs == nil {
			return nil, missing(r, "is_inverse/activation_ns/expiration_ns")
		}
		return model.CryptoFuture{
			InstrumentID:       id,
			RawSymbol:          r.RawSymbol,
			Underlying:         *r.BaseCurrency,
			QuoteCurrency:      *r.QuoteCurrency,
			SettlementCurrency: *r.SettlementCurrency,
			IsInverse:          *r.IsInverse,
			ActivationNs:       *r.ActivationNs,
			ExpirationNs:       *r.ExpirationNs,
			PricePrecision:     uint8(r.PricePrecision),
			SizePrecision:      uint8(r.SizePrecision),
			PriceIncrement:     priceInc,
			SizeIncrement:      sizeInc,
			MakerFee:           r.MakerFee,
			TakerFee:           r.TakerFee,
			TsEvent:            r.TsEvent,
			TsInit:             r.TsInit,
		}, nil

	case model.KindCryptoPerpetual:
		if err := require(r, "base_currency", r.BaseCurrency, "quote_currency", r.QuoteCurrency,
			"settlement_currency", r.SettlementCurrency); err != nil {
			return nil, err
		}
		if r.IsInverse == nil {
			return nil, missing(r, "is_inverse")
		}
		return model.CryptoPerpetual{
			InstrumentID:       id,
			RawSymbol:          r.RawSymbol,
			BaseCurrency:       *r.BaseCurrency,
			QuoteCurrency:      *r.QuoteCurrency,
			SettlementCurrency: *r.SettlementCurrency,
			IsInverse:          *r.IsInverse,
			PricePrecision:     uint8(r.PricePrecision),
			SizePrecision:      uint8(r.SizePrecision),
			PriceIncrement:     priceInc,
			SizeIncrement:      sizeInc,
			MakerFee:           r.MakerFee,
			TakerFee:           r.TakerFee,
			TsEvent:            r.TsEvent,
			TsInit:             r.TsInit,
		}, nil

	case model.KindCurrencyPair:
		if err := require(r, "base_currency", r.BaseCurrency, "quote_currency", r.QuoteCurrency); err != nil {
			return nil, err
		}
		return model.CurrencyPair{
			InstrumentID:   id,
			RawSymbol:      r.RawSymbol,
			BaseCurrency:   *r.BaseCurrency,
			QuoteCurrency:  *r.QuoteCurrency,
			PricePrecision: uint8(r.PricePrecision),
			SizePrecision:  uint8(r.SizePrecision),
			PriceIncrement: priceInc,
			SizeIncrement:  sizeInc,
			MakerFee:       r.MakerFee,
			TakerFee:       r.TakerFee,
			TsEvent:        r.TsEvent,
			TsInit:         r.TsInit,
		}, nil

	case model.KindEquity:
		if err := require(r, "quote_currency", r.QuoteCurrency, "isin", r.ISIN); err != nil {
			return nil, err
		}
		return model.Equity{
			InstrumentID:   id,
			RawSymbol:      r.RawSymbol,
			ISIN:           *r.ISIN,
			Currency:       *r.QuoteCurrency,
			PricePrecision: uint8(r.PricePrecision),
			SizePrecision:  uint8(r.SizePrecision),
			PriceIncrement: priceInc,
			SizeIncrement:  sizeInc,
			MakerFee:       r.MakerFee,
			TakerFee:       r.TakerFee,
			TsEvent:        r.TsEvent,
			TsInit:         r.TsInit,
		}, nil

	case model.KindFuturesContract:
		if err := require(r, "quote_currency", r.QuoteCurrency, "asset_class", r.AssetClass,
			"underlying", r.Underlying, "multiplier", r.Multiplier); err != nil {
			return nil, err
		}
		if r.ActivationNs == nil || r.ExpirationNs == nil {
			return nil, missing(r, "activation_ns/expiration_ns")
		}
		mult, err := model.QuantityFromString(*r.Multiplier)
		if err != nil {
			return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
		}
		return model.FuturesContract{
			InstrumentID:   id,
			RawSymbol:      r.RawSymbol,
			AssetClass:     *r.AssetClass,
			Underlying:     *r.Underlying,
			Currency:       *r.QuoteCurrency,
			ActivationNs:   *r.ActivationNs,
			ExpirationNs:   *r.ExpirationNs,
			Multiplier:     mult,
			PricePrecision: uint8(r.PricePrecision),
			SizePrecision:  uint8(r.SizePrecision),
			PriceIncrement: priceInc,
			SizeIncrement:  sizeInc,
			MakerFee:       r.MakerFee,
			TakerFee:       r.TakerFee,
			TsEvent:        r.TsEvent,
			TsInit:         r.TsInit,
		}, nil

	case model.KindOptionsContract:
		if err := require(r, "quote_currency", r.QuoteCurrency, "asset_class", r.AssetClass,
			"underlying", r.Underlying, "option_kind", r.OptionKind,
			"strike_price", r.StrikePrice, "multiplier", r.Multiplier); err != nil {
			return nil, err
		}
		if r.ActivationNs == nil || r.ExpirationNs == nil {
			return nil, missing(r, "activation_ns/expiration_ns")
		}
		optKind, err := model.ParseOptionKind(*r.OptionKind)
		if err != nil {
			return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
		}
		strike, err := model.PriceFromString(*r.StrikePrice)
		if err != nil {
			return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
		}
		mult, err := model.QuantityFromString(*r.Multiplier)
		if err != nil {
			return nil, &DecodeError{Entity: "instrument", Key: r.ID, Reason: err.Error()}
		}
		return model.OptionsContract{
			InstrumentID:   id,
			RawSymbol:      r.RawSymbol,
			AssetClass:     *r.AssetClass,
			Underlying:     *r.Underlying,
			OptionKind:     optKind,
			StrikePrice:    strike,
			Currency:       *r.QuoteCurrency,
			ActivationNs:   *r.ActivationNs,
			ExpirationNs:   *r.ExpirationNs,
			Multiplier:     mult,
			PricePrecision: uint8(r.PricePrecision),
			SizePrecision:  uint8(r.SizePrecision),
			PriceIncrement: priceInc,
			SizeIncrement:  sizeInc,
			MakerFee:       r.MakerFee,
			TakerFee:       r.TakerFee,
			TsEvent:        r.TsEvent,
			TsInit:         r.TsInit,
		}, nil

	default:
		return nil, &DecodeError{
			Entity: "instrument",
			Key:    r.ID,
			Reason: fmt.Sprintf("unknown kind discriminator %q", r.Kind),
		}
	}
}

func fillCommon(row *InstrumentRow, pricePrec, sizePrec uint8, priceInc model.Price, sizeInc model.Quantity, makerFee, takerFee string, tsEvent, tsInit int64) {
	row.PricePrecision = int16(pricePrec)
	row.SizePrecision = int16(sizePrec)
	row.PriceIncrement = priceInc.String()
	row.SizeIncrement = sizeInc.String()
	row.MakerFee = makerFee
	row.TakerFee = takerFee
	row.TsEvent = tsEvent
	row.TsInit = tsInit
}

func ptr[T any](v T) *T { return &v }

// require checks alternating name/pointer pairs and reports the first nil.
func require(r InstrumentRow, pairs ...any) error {
	for i := 0; i < len(pairs); i += 2 {
		name := pairs[i].(string)
		if isNil(pairs[i+1]) {
			return missing(r, name)
		}
	}
	return nil
}

func isNil(v any) bool {
	switch p := v.(type) {
	case *string:
		return p == nil
	case *bool:
		return p == nil
	case *int64:
		return p == nil
	default:
		return v == nil
	}
}

func missing(r InstrumentRow, column string) error {
	return &DecodeError{
		Entity: "instrument",
		Key:    r.ID,
		Reason: fmt.Sprintf("kind %s missing required column %s", r.Kind, column),
	}
}
