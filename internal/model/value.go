package model

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxPrecision is the largest supported fixed-point precision.
const MaxPrecision = 16

// Price is a fixed-point price value: Raw scaled by 10^Precision.
type Price struct {
	Raw       int64
	Precision uint8
}

// Quantity is a fixed-point size value: Raw scaled by 10^Precision.
type Quantity struct {
	Raw       int64
	Precision uint8
}

// NewPrice creates a Price from a raw scaled value.
func NewPrice(raw int64, precision uint8) Price {
	return Price{Raw: raw, Precision: precision}
}

// NewQuantity creates a Quantity from a raw scaled value.
func NewQuantity(raw int64, precision uint8) Quantity {
	return Quantity{Raw: raw, Precision: precision}
}

// String renders the price as a decimal with exactly Precision fraction digits.
func (p Price) String() string {
	return formatFixed(p.Raw, p.Precision)
}

// String renders the quantity as a decimal with exactly Precision fraction digits.
func (q Quantity) String() string {
	return formatFixed(q.Raw, q.Precision)
}

// PriceFromString parses a decimal string into a Price. The precision is taken
// from the number of fraction digits, so String and PriceFromString round-trip
// exactly.
func PriceFromString(s string) (Price, error) {
	raw, prec, err := parseFixed(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, err)
	}
	return Price{Raw: raw, Precision: prec}, nil
}

// QuantityFromString parses a decimal string into a Quantity.
func QuantityFromString(s string) (Quantity, error) {
	raw, prec, err := parseFixed(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return Quantity{Raw: raw, Precision: prec}, nil
}

func formatFixed(raw int64, prec uint8) string {
	if prec == 0 {
		return strconv.FormatInt(raw, 10)
	}
	neg := raw < 0
	if neg {
		raw = -raw
	}
	pow := pow10(prec)
	s := fmt.Sprintf("%d.%0*d", raw/pow, prec, raw%pow)
	if neg {
		return "-" + s
	}
	return s
}

func parseFixed(s string) (int64, uint8, error) {
	if s == "" {
		return 0, 0, fmt.Errorf("empty value")
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var prec uint8
	if hasFrac {
		if len(fracPart) == 0 || len(fracPart) > MaxPrecision {
			return 0, 0, fmt.Errorf("fraction must have 1-%d digits", MaxPrecision)
		}
		prec = uint8(len(fracPart))
	}

	neg := strings.HasPrefix(intPart, "-")
	digits := strings.TrimPrefix(intPart, "-") + fracPart
	raw, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid decimal: %w", err)
	}
	if neg {
		raw = -raw
	}
	return raw, prec, nil
}

func pow10(n uint8) int64 {
	p := int64(1)
	for i := uint8(0); i < n; i++ {
		p *= 10
	}
	return p
}
