package parser

import "fmt"

// Reason explains why a log-like line could not be decoded
type Reason string

const (
	ReasonBadDate          Reason = "bad_date"
	ReasonBadTime          Reason = "bad_time"
	ReasonMissingSeparator Reason = "missing_separator"
	ReasonUnknownEvent     Reason = "unknown_event"
)

// Diagnostic describes one malformed line. Diagnostics are collected, never thrown.
type Diagnostic struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Reason  Reason `json:"reason"`
	Segment string `json:"segment,omitempty"`
}

// Message is the human readable reason without the line reference
func (d Diagnostic) Message() string {
	switch d.Reason {
	case ReasonBadDate:
		return fmt.Sprintf("invalid date %q, expected DD/MM/YYYY", d.Segment)
	case ReasonBadTime:
		return fmt.Sprintf("invalid time %q, expected HH:MM:SS", d.Segment)
	case ReasonMissingSeparator:
		return `missing " - " separator after the timestamp`
	case ReasonUnknownEvent:
		return fmt.Sprintf("unrecognized event %q", d.Segment)
	default:
		return "unparseable line"
	}
}

// String formats the diagnostic for display
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Message(), d.Text)
}

func (d Diagnostic) Error() string {
	return d.String()
}
