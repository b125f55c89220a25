package utils

import "testing"

func TestFormatMinutes(t *testing.T) {
	cases := []struct {
		minutes  int
		expected string
	}{
		{0, "0m"},
		{-10, "0m"},
		{45, "45m"},
		{60, "1h"},
		{125, "2h 5m"},
		{600, "10h"},
	}
	for _, tc := range cases {
		if got := FormatMinutes(tc.minutes); got != tc.expected {
			t.Errorf("FormatMinutes(%d) = %q, expected %q", tc.minutes, got, tc.expected)
		}
	}
}
