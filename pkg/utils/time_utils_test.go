package utils

import (
	"testing"
	"time"
)

func TestGetCurrentTimeMillis(t *testing.T) {
	before := time.Now().UnixMilli()
	got := GetCurrentTimeMillis()
	after := time.Now().UnixMilli()

	if got < before || got > after {
		t.Errorf("GetCurrentTimeMillis() = %d, want between %d and %d", got, before, after)
	}
}

func TestFormatEffectiveDate(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{
			name:     "Single digit day",
			input:    time.Date(2026, time.January, 2, 0, 0, 0, 0, time.UTC),
			expected: "January 2, 2026",
		},
		{
			name:     "Double digit day",
			input:    time.Date(2025, time.October, 19, 23, 59, 0, 0, time.UTC),
			expected: "October 19, 2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatEffectiveDate(tt.input); got != tt.expected {
				t.Errorf("FormatEffectiveDate(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
