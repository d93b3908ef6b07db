package model

import (
	"fmt"
	"strings"
)

// InstrumentID identifies an instrument as symbol plus venue (e.g., "BTCUSDT.BINANCE").
type InstrumentID struct {
	Symbol string
	Venue  string
}

// String returns the canonical "SYMBOL.VENUE" form.
func (id InstrumentID) String() string {
	return id.Symbol + "." + id.Venue
}

// ParseInstrumentID splits a "SYMBOL.VENUE" string. The venue is everything
// after the last dot, so symbols may themselves contain dots.
func ParseInstrumentID(s string) (InstrumentID, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return InstrumentID{}, fmt.Errorf("invalid instrument id %q: want SYMBOL.VENUE", s)
	}
	return InstrumentID{Symbol: s[:i], Venue: s[i+1:]}, nil
}

// InstrumentKind discriminates the instrument variants.
type InstrumentKind string

const (
	KindCryptoFuture    InstrumentKind = "CRYPTO_FUTURE"
	KindCryptoPerpetual InstrumentKind = "CRYPTO_PERPETUAL"
	KindCurrencyPair    InstrumentKind = "CURRENCY_PAIR"
	KindEquity          InstrumentKind = "EQUITY"
	KindFuturesContract InstrumentKind = "FUTURES_CONTRACT"
	KindOptionsContract InstrumentKind = "OPTIONS_CONTRACT"
)

// OptionKind is the side of an options contract.
type OptionKind string

const (
	OptionKindCall OptionKind = "CALL"
	OptionKindPut  OptionKind = "PUT"
)

// ParseOptionKind converts a stored option kind string back to an OptionKind.
func ParseOptionKind(s string) (OptionKind, error) {
	switch OptionKind(s) {
	case OptionKindCall:
		return OptionKindCall, nil
	case OptionKindPut:
		return OptionKindPut, nil
	default:
		return "", fmt.Errorf("unknown option kind %q", s)
	}
}

// Instrument is the closed set of tradable instrument variants. Implementations
// are the six concrete structs in this package; the persistence codec type-switches
// over them exhaustively.
type Instrument interface {
	ID() InstrumentID
	Kind() InstrumentKind

	// CurrencyCodes returns the currency codes the instrument references.
	// Every returned code must exist in the currencies table before the
	// instrument can be persisted.
	CurrencyCodes() []string
}

// CryptoFuture is a deliverable crypto futures contract.
type CryptoFuture struct {
	InstrumentID       InstrumentID
	RawSymbol          string
	Underlying         string // Underlying currency code (e.g., "BTC")
	QuoteCurrency      string
	SettlementCurrency string
	IsInverse          bool
	ActivationNs       int64
	ExpirationNs       int64
	PricePrecision     uint8
	SizePrecision      uint8
	PriceIncrement     Price
	SizeIncrement      Quantity
	MakerFee           string // Decimal fee rate (e.g., "0.0002")
	TakerFee           string
	TsEvent            int64
	TsInit             int64
}

func (i CryptoFuture) ID() InstrumentID     { return i.InstrumentID }
func (i CryptoFuture) Kind() InstrumentKind { return KindCryptoFuture }
func (i CryptoFuture) CurrencyCodes() []string {
	return []string{i.Underlying, i.QuoteCurrency, i.SettlementCurrency}
}

// CryptoPerpetual is a perpetual swap.
type CryptoPerpetual struct {
	InstrumentID       InstrumentID
	RawSymbol          string
	BaseCurrency       string
	QuoteCurrency      string
	SettlementCurrency string
	IsInverse          bool
	PricePrecision     uint8
	SizePrecision      uint8
	PriceIncrement     Price
	SizeIncrement      Quantity
	MakerFee           string
	TakerFee           string
	TsEvent            int64
	TsInit             int64
}

func (i CryptoPerpetual) ID() InstrumentID     { return i.InstrumentID }
func (i CryptoPerpetual) Kind() InstrumentKind { return KindCryptoPerpetual }
func (i CryptoPerpetual) CurrencyCodes() []string {
	return []string{i.BaseCurrency, i.QuoteCurrency, i.SettlementCurrency}
}

// CurrencyPair is a spot FX or crypto pair.
type CurrencyPair struct {
	InstrumentID   InstrumentID
	RawSymbol      string
	BaseCurrency   string
	QuoteCurrency  string
	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement Price
	SizeIncrement  Quantity
	MakerFee       string
	TakerFee       string
	TsEvent        int64
	TsInit         int64
}

func (i CurrencyPair) ID() InstrumentID     { return i.InstrumentID }
func (i CurrencyPair) Kind() InstrumentKind { return KindCurrencyPair }
func (i CurrencyPair) CurrencyCodes() []string {
	return []string{i.BaseCurrency, i.QuoteCurrency}
}

// Equity is a cash equity.
type Equity struct {
	InstrumentID   InstrumentID
	RawSymbol      string
	ISIN           string
	Currency       string // Quote/settlement currency code
	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement Price
	SizeIncrement  Quantity
	MakerFee       string
	TakerFee       string
	TsEvent        int64
	TsInit         int64
}

func (i Equity) ID() InstrumentID        { return i.InstrumentID }
func (i Equity) Kind() InstrumentKind    { return KindEquity }
func (i Equity) CurrencyCodes() []string { return []string{i.Currency} }

// FuturesContract is an exchange-listed futures contract.
type FuturesContract struct {
	InstrumentID   InstrumentID
	RawSymbol      string
	AssetClass     string // e.g., "INDEX", "COMMODITY"
	Underlying     string // Underlying symbol (e.g., "ES"), not a currency
	Currency       string
	ActivationNs   int64
	ExpirationNs   int64
	Multiplier     Quantity
	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement Price
	SizeIncrement  Quantity
	MakerFee       string
	TakerFee       string
	TsEvent        int64
	TsInit         int64
}

func (i FuturesContract) ID() InstrumentID        { return i.InstrumentID }
func (i FuturesContract) Kind() InstrumentKind    { return KindFuturesContract }
func (i FuturesContract) CurrencyCodes() []string { return []string{i.Currency} }

// OptionsContract is an exchange-listed options contract.
type OptionsContract struct {
	InstrumentID   InstrumentID
	RawSymbol      string
	AssetClass     string
	Underlying     string
	OptionKind     OptionKind
	StrikePrice    Price
	Currency       string
	ActivationNs   int64
	ExpirationNs   int64
	Multiplier     Quantity
	PricePrecision uint8
	SizePrecision  uint8
	PriceIncrement Price
	SizeIncrement  Quantity
	MakerFee       string
	TakerFee       string
	TsEvent        int64
	TsInit         int64
}

func (i OptionsContract) ID() InstrumentID        { return i.InstrumentID }
func (i OptionsContract) Kind() InstrumentKind    { return KindOptionsContract }
func (i OptionsContract) CurrencyCodes() []string { return []string{i.Currency} }
