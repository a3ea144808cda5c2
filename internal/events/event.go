package events

import (
	"time"

	"fraglog/internal/match"
)

// LogEvent is one typed entry of a parsed log, in log order.
//
// MatchID is the declared id for start/end events. For kills it is the id of
// the match that was open when the line was read, or empty when no match was
// open. HasTeams follows the same rule.
type LogEvent struct {
	Type      EventType
	Line      int
	Timestamp time.Time
	MatchID   string
	HasTeams  bool
	Kill      *match.KillEvent
}

// NewMatchStart builds a match_start event
func NewMatchStart(line int, ts time.Time, matchID string, hasTeams bool) LogEvent {
	return LogEvent{Type: EventMatchStart, Line: line, Timestamp: ts, MatchID: matchID, HasTeams: hasTeams}
}

// NewMatchEnd builds a match_end event
func NewMatchEnd(line int, ts time.Time, matchID string, hasTeams bool) LogEvent {
	return LogEvent{Type: EventMatchEnd, Line: line, Timestamp: ts, MatchID: matchID, HasTeams: hasTeams}
}

// NewKill builds a kill event bound to the currently open match (if any)
func NewKill(line int, kill match.KillEvent, matchID string, hasTeams bool) LogEvent {
	return LogEvent{Type: EventKill, Line: line, Timestamp: kill.Timestamp, MatchID: matchID, HasTeams: hasTeams, Kill: &kill}
}

// Count returns how many events of the given type are in the list
func Count(list []LogEvent, t EventType) int {
	n := 0
	for _, e := range list {
		if e.Type == t {
			n++
		}
	}
	return n
}
