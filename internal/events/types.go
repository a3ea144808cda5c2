package events

import "fmt"

// EventType represents the kinds of entries the replay engine understands
type EventType int

const (
	EventMatchStart EventType = iota
	EventMatchEnd
	EventKill
)

// Event type names as they appear on the wire
const (
	TypeMatchStart = "match_start"
	TypeMatchEnd   = "match_end"
	TypeKill       = "kill"
)

// ParseEventType converts a string to EventType
func ParseEventType(s string) (EventType, bool) {
	switch s {
	case TypeMatchStart:
		return EventMatchStart, true
	case TypeMatchEnd:
		return EventMatchEnd, true
	case TypeKill:
		return EventKill, true
	default:
		return 0, false
	}
}

// String returns the string representation of the event type
func (e EventType) String() string {
	switch e {
	case EventMatchStart:
		return TypeMatchStart
	case EventMatchEnd:
		return TypeMatchEnd
	case EventKill:
		return TypeKill
	default:
		return "unknown"
	}
}

// MarshalText lets EventType render as its name in JSON
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (e *EventType) UnmarshalText(text []byte) error {
	t, ok := ParseEventType(string(text))
	if !ok {
		return fmt.Errorf("unknown event type %q", text)
	}
	*e = t
	return nil
}
