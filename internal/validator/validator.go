// Package validator runs the structural checks a parsed log must pass before
// it can be replayed. Validation is all or nothing.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"fraglog/internal/events"
	"fraglog/internal/match"
	"fraglog/internal/parser"
)

const (
	maxReportedDiagnostics = 3
	maxReportedNames       = 5
)

// Kind identifies which rule rejected a log
type Kind string

const (
	KindFormatErrors      Kind = "format_errors"
	KindNoEntries         Kind = "no_entries"
	KindNoMatches         Kind = "no_matches"
	KindIncompleteMatch   Kind = "incomplete_match"
	KindOrphanEnd         Kind = "orphan_end"
	KindMissingTeamPrefix Kind = "missing_team_prefix"
	KindTooManyTeams      Kind = "too_many_teams"
)

// ValidationError is returned when a parsed log is rejected
type ValidationError struct {
	Kind        Kind
	Message     string
	MatchIDs    []string
	Names       []string
	Remaining   int
	Diagnostics []parser.Diagnostic
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks a parsed session. It returns nil or a *ValidationError.
func Validate(s *parser.Session) error {
	if len(s.Diagnostics) > 0 {
		return formatErrors(s.Diagnostics)
	}

	if len(s.Events) == 0 {
		return &ValidationError{Kind: KindNoEntries, Message: "no valid log entries found"}
	}

	if events.Count(s.Events, events.EventMatchStart) == 0 {
		return &ValidationError{Kind: KindNoMatches, Message: "log contains no match start"}
	}

	if err := checkPairs(s); err != nil {
		return err
	}

	if err := checkTeamPrefixes(s); err != nil {
		return err
	}

	return checkTeamCount(s)
}

func formatErrors(diags []parser.Diagnostic) *ValidationError {
	shown := diags[:min(len(diags), maxReportedDiagnostics)]

	lines := make([]string, 0, len(shown))
	for _, d := range shown {
		lines = append(lines, d.String())
	}

	msg := fmt.Sprintf("invalid log format (%d malformed lines):\n%s", len(diags), strings.Join(lines, "\n"))
	if extra := len(diags) - len(shown); extra > 0 {
		msg += fmt.Sprintf("\n... and %d more", extra)
	}

	return &ValidationError{
		Kind:        KindFormatErrors,
		Message:     msg,
		Remaining:   len(diags) - len(shown),
		Diagnostics: shown,
	}
}

// checkPairs verifies every start has an end and every end has a start.
// Every abandoned match instance is incomplete, even when its id is ended
// elsewhere in the log.
func checkPairs(s *parser.Session) error {
	started := map[string]bool{}
	ended := map[string]bool{}
	var startOrder, endOrder []string

	for _, e := range s.Events {
		switch e.Type {
		case events.EventMatchStart:
			if !started[e.MatchID] {
				startOrder = append(startOrder, e.MatchID)
			}
			started[e.MatchID] = true
		case events.EventMatchEnd:
			if !ended[e.MatchID] {
				endOrder = append(endOrder, e.MatchID)
			}
			ended[e.MatchID] = true
		}
	}

	abandoned := map[string]bool{}
	for _, a := range s.Abandoned {
		abandoned[a.MatchID] = true
	}

	var incomplete []string
	for _, id := range startOrder {
		if !ended[id] || abandoned[id] {
			incomplete = append(incomplete, id)
		}
	}
	if len(incomplete) > 0 {
		return &ValidationError{
			Kind:     KindIncompleteMatch,
			Message:  fmt.Sprintf("matches started but never ended: %s", strings.Join(incomplete, ", ")),
			MatchIDs: incomplete,
		}
	}

	var orphans []string
	for _, id := range endOrder {
		if !started[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		return &ValidationError{
			Kind:     KindOrphanEnd,
			Message:  fmt.Sprintf("matches ended without a start: %s", strings.Join(orphans, ", ")),
			MatchIDs: orphans,
		}
	}

	return nil
}

// checkTeamPrefixes requires every participant of a team match to carry a team tag
func checkTeamPrefixes(s *parser.Session) error {
	seen := map[string]bool{}
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, e := range s.Events {
		if e.Type != events.EventKill || e.Kill == nil || e.MatchID == "" || !e.HasTeams {
			continue
		}
		k := e.Kill
		if !k.IsWorldKill && k.KillerTeam == "" {
			add(k.KillerName)
		}
		if k.VictimTeam == "" {
			add(k.VictimName)
		}
	}

	if len(names) == 0 {
		return nil
	}

	shown := names[:min(len(names), maxReportedNames)]
	remaining := len(names) - len(shown)

	msg := fmt.Sprintf("team match players without a team prefix: %s", strings.Join(shown, ", "))
	if remaining > 0 {
		msg += fmt.Sprintf(" and %d more", remaining)
	}

	return &ValidationError{
		Kind:      KindMissingTeamPrefix,
		Message:   msg,
		Names:     shown,
		Remaining: remaining,
	}
}

// checkTeamCount rejects a team match whose kills name more than two team tags.
// Tags are counted per match instance, so a reused id starts from zero.
func checkTeamCount(s *parser.Session) error {
	var tags []match.Team
	add := func(t match.Team) {
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}

	for _, e := range s.Events {
		switch {
		case e.Type == events.EventMatchStart:
			tags = tags[:0]
		case e.Type == events.EventKill && e.Kill != nil && e.MatchID != "" && e.HasTeams:
			add(e.Kill.KillerTeam)
			add(e.Kill.VictimTeam)
			if len(tags) > 2 {
				names := make([]string, len(tags))
				for i, t := range tags {
					names[i] = string(t)
				}
				return &ValidationError{
					Kind:     KindTooManyTeams,
					Message:  fmt.Sprintf("team match %s has more than two teams: %s", e.MatchID, strings.Join(names, ", ")),
					MatchIDs: []string{e.MatchID},
					Names:    names,
				}
			}
		}
	}
	return nil
}
