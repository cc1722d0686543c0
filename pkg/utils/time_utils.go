package utils

import (
	"time"
)

// GetCurrentTimeMillis returns current time in milliseconds since epoch
func GetCurrentTimeMillis() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// FormatEffectiveDate formats the "Effective Date" line of the legal pages, e.g. "January 2, 2026"
func FormatEffectiveDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
