package parser

import (
	"fmt"
	"regexp"
	"time"
)

// timestampLayout is the DD/MM/YYYY HH:MM:SS prefix every log line starts with
const (
	timestampLayout = "02/01/2006 15:04:05"
	dateLayout      = "02/01/2006"
	clockLayout     = "15:04:05"
)

var (
	datePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// parseTimestamp parses a log timestamp in local time
// Format: 23/04/2024 15:34:22
func parseTimestamp(ts string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, ts, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %s: %w", ts, err)
	}
	return t, nil
}

// FormatTimestamp renders t in the log timestamp format
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// validDate reports whether s is a well formed, existing calendar date
func validDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// validClock reports whether s is a well formed HH:MM:SS time of day
func validClock(s string) bool {
	if !clockPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(clockLayout, s)
	return err == nil
}
