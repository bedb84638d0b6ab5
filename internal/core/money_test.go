package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "0.00"},
		{"1", "1.00"},
		{"999.999", "1,000.00"},
		{"1234.5", "1,234.50"},
		{"1234567.891", "1,234,567.89"},
		{"-300", "-300.00"},
		{"-0.001", "0.00"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.in))
		if got != tc.out {
			t.Fatalf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount string
		code   string
		out    string
	}{
		{"1234.5", "MXN", "$1,234.50 MXN"},
		{"10", "eur", "€10.00 EUR"},
		{"-20", "USD", "-$20.00 USD"},
		{"5", "XYZ", "5.00 XYZ"},
		{"5", "", "5.00"},
	}
	for _, tc := range cases {
		got := FormatMoney(decimal.RequireFromString(tc.amount), tc.code)
		if got != tc.out {
			t.Fatalf("FormatMoney(%s, %s) = %q, want %q", tc.amount, tc.code, got, tc.out)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"20", "+20.0%"},
		{"-20", "-20.0%"},
		{"0", "0.0%"},
		{"12.345", "+12.3%"},
		{"100", "+100.0%"},
	}
	for _, tc := range cases {
		got := FormatPercent(decimal.RequireFromString(tc.in))
		if got != tc.out {
			t.Fatalf("FormatPercent(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
