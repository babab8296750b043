package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "iso", input: "2024-03-01", want: Date(2024, 3, 1)},
		{name: "dotted day first", input: "01.03.2024", want: Date(2024, 3, 1)},
		{name: "slashed", input: "2024/03/01", want: Date(2024, 3, 1)},
		{name: "datetime", input: "2024-03-01 00:00:00", want: Date(2024, 3, 1)},
		{name: "trailing whitespace", input: " 2024-03-01 ", want: Date(2024, 3, 1)},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "not-a-date", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("ParseDate(%q) error = %v, want ErrInvalidDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDateEquivalentForms(t *testing.T) {
	iso, err := ParseDate("2024-03-01")
	if err != nil {
		t.Fatalf("iso form: %v", err)
	}
	dotted, err := ParseDate("01.03.2024")
	if err != nil {
		t.Fatalf("dotted form: %v", err)
	}
	if !iso.Equal(dotted) {
		t.Errorf("forms differ: %v vs %v", iso, dotted)
	}
}

func TestMonthBounds(t *testing.T) {
	tests := []struct {
		in    time.Time
		start time.Time
		end   time.Time
	}{
		{in: Date(2024, 3, 15), start: Date(2024, 3, 1), end: Date(2024, 3, 31)},
		{in: Date(2024, 2, 5), start: Date(2024, 2, 1), end: Date(2024, 2, 29)},
		{in: Date(2023, 2, 28), start: Date(2023, 2, 1), end: Date(2023, 2, 28)},
		{in: Date(2024, 12, 31), start: Date(2024, 12, 1), end: Date(2024, 12, 31)},
	}

	for _, tt := range tests {
		if got := MonthStart(tt.in); !got.Equal(tt.start) {
			t.Errorf("MonthStart(%v) = %v, want %v", tt.in, got, tt.start)
		}
		if got := MonthEnd(tt.in); !got.Equal(tt.end) {
			t.Errorf("MonthEnd(%v) = %v, want %v", tt.in, got, tt.end)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	if got := DaysBetween(Date(2024, 3, 1), Date(2024, 3, 11)); got != 10 {
		t.Errorf("DaysBetween = %d, want 10", got)
	}
	if got := DaysBetween(Date(2024, 3, 11), Date(2024, 3, 1)); got != -10 {
		t.Errorf("DaysBetween reversed = %d, want -10", got)
	}
	if got := DaysBetween(Date(2024, 3, 1), Date(2024, 3, 1)); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
}
