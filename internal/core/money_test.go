package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "plain integer", input: "1000", want: "1000"},
		{name: "dot separator", input: "500.50", want: "500.5"},
		{name: "comma separator", input: "500,50", want: "500.5"},
		{name: "comma and dot keeps dot", input: "1,000.25", wantErr: ErrInvalidAmount},
		{name: "surrounding whitespace", input: "  42.5  ", want: "42.5"},
		{name: "non-breaking space separator", input: "12 500,75", want: "12500.75"},
		{name: "inner space separator", input: "12 500", want: "12500"},
		{name: "negative accepted", input: "-150,25", want: "-150.25"},
		{name: "empty", input: "", wantErr: ErrEmptyAmount},
		{name: "only whitespace", input: "   ", wantErr: ErrEmptyAmount},
		{name: "non numeric", input: "abc", wantErr: ErrInvalidAmount},
		{name: "two commas", input: "1,2,3", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseAmount(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestAmountUnitsRoundTrip(t *testing.T) {
	tests := []struct {
		amount string
		units  int64
	}{
		{amount: "1000", units: 10000000},
		{amount: "500.5", units: 5005000},
		{amount: "0.0001", units: 1},
		{amount: "-42.25", units: -422500},
		{amount: "0", units: 0},
	}

	for _, tt := range tests {
		d, _ := decimal.NewFromString(tt.amount)
		if got := AmountUnits(d); got != tt.units {
			t.Errorf("AmountUnits(%s) = %d, want %d", tt.amount, got, tt.units)
		}
		back := AmountFromUnits(tt.units)
		if !back.Equal(d) {
			t.Errorf("AmountFromUnits(%d) = %s, want %s", tt.units, back, d)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name        string
		numerator   string
		denominator string
		want        float64
	}{
		{name: "zero denominator", numerator: "100", denominator: "0", want: 0.0},
		{name: "negative denominator", numerator: "100", denominator: "-5", want: 0.0},
		{name: "half", numerator: "50", denominator: "100", want: 50.0},
		{name: "over plan", numerator: "150", denominator: "100", want: 150.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := decimal.NewFromString(tt.numerator)
			d, _ := decimal.NewFromString(tt.denominator)
			if got := Percent(n, d); got != tt.want {
				t.Errorf("Percent(%s, %s) = %v, want %v", tt.numerator, tt.denominator, got, tt.want)
			}
		})
	}
}

func TestPercentTwelvethousandths(t *testing.T) {
	// 10000 / 12000 * 100 should be close to 83.33.
	n := decimal.NewFromInt(10000)
	d := decimal.NewFromInt(12000)
	got := Percent(n, d)
	if got < 83.32 || got > 83.34 {
		t.Errorf("Percent(10000, 12000) = %v, want ~83.33", got)
	}
}
