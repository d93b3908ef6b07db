package model

import "testing"

func TestPriceString(t *testing.T) {
	tests := []struct {
		name string
		p    Price
		want string
	}{
		{"zero precision", NewPrice(42, 0), "42"},
		{"two decimals", NewPrice(1050, 2), "10.50"},
		{"leading fraction zeros", NewPrice(101, 4), "0.0101"},
		{"negative", NewPrice(-2575, 2), "-25.75"},
		{"sub-unit", NewPrice(1, 6), "0.000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPriceFromString(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    Price
		wantErr bool
	}{
		{"integer", "42", NewPrice(42, 0), false},
		{"two decimals", "10.50", NewPrice(1050, 2), false},
		{"negative", "-25.75", NewPrice(-2575, 2), false},
		{"tick size", "0.000001", NewPrice(1, 6), false},
		{"empty", "", Price{}, true},
		{"trailing dot", "10.", Price{}, true},
		{"not a number", "abc", Price{}, true},
		{"too many fraction digits", "0.00000000000000001", Price{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceFromString(tt.s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PriceFromString(%q) error = %v, wantErr %v", tt.s, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("PriceFromString(%q) = %+v, want %+v", tt.s, got, tt.want)
			}
		})
	}
}

func TestPriceRoundTrip(t *testing.T) {
	prices := []Price{
		NewPrice(0, 0),
		NewPrice(1, 8),
		NewPrice(123456789, 4),
		NewPrice(-9999, 2),
	}

	for _, p := range prices {
		got, err := PriceFromString(p.String())
		if err != nil {
			t.Fatalf("PriceFromString(%q) error = %v", p.String(), err)
		}
		if got != p {
			t.Errorf("round trip of %+v via %q = %+v", p, p.String(), got)
		}
	}
}

func TestQuantityRoundTrip(t *testing.T) {
	quantities := []Quantity{
		NewQuantity(1, 0),
		NewQuantity(1, 6),
		NewQuantity(250000, 3),
	}

	for _, q := range quantities {
		got, err := QuantityFromString(q.String())
		if err != nil {
			t.Fatalf("QuantityFromString(%q) error = %v", q.String(), err)
		}
		if got != q {
			t.Errorf("round trip of %+v via %q = %+v", q, q.String(), got)
		}
	}
}
