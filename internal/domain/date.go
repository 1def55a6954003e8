package domain

import "time"

// DateLayout is the wire format of calendar-date columns such as lease_start.
const DateLayout = "2006-01-02"

// ValidDate reports whether s is a calendar date in DateLayout.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
