package utils

import "time"

// ISODateFormat is the canonical record date layout.
const ISODateFormat = "2006-01-02"

// ValidDate reports whether s is a well-formed ISO date (YYYY-MM-DD).
func ValidDate(s string) bool {
	_, err := time.Parse(ISODateFormat, s)
	return err == nil
}

// Today returns the current date in the canonical layout.
func Today() string {
	return time.Now().Format(ISODateFormat)
}
