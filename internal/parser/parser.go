package parser

import (
	"regexp"
	"strings"
	"time"

	"fraglog/internal/match"
)

// EntryKind classifies a decoded line
type EntryKind int

const (
	EntryMatchStart EntryKind = iota + 1
	EntryMatchEnd
	EntryWorldKill
	EntryPlayerKill
)

// Entry is a single decoded log line. Kill names are raw; team prefixes are
// only split off once the owning match is known.
type Entry struct {
	Kind      EntryKind
	Timestamp time.Time
	MatchID   string
	WithTeams bool
	Killer    string
	Victim    string
	Weapon    string
}

// logPatterns contains compiled regex patterns for log parsing
type logPatterns struct {
	MatchStart *regexp.Regexp
	MatchEnd   *regexp.Regexp
	WorldKill  *regexp.Regexp
	PlayerKill *regexp.Regexp
	TeamPrefix *regexp.Regexp
	DateLike   *regexp.Regexp
	TimeLike   *regexp.Regexp
}

func newLogPatterns() *logPatterns {
	const ts = `(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})`
	return &logPatterns{
		// MatchStart: timestamp, matchID, " with teams"
		MatchStart: regexp.MustCompile(`^` + ts + ` - New match (\d+) has started( with teams)?$`),
		MatchEnd:   regexp.MustCompile(`^` + ts + ` - Match (\d+) has ended( with teams)?$`),

		// WorldKill must be tried before PlayerKill: timestamp, victim, cause
		WorldKill: regexp.MustCompile(`^` + ts + ` - <WORLD> killed (.+) by (.+)$`),

		// PlayerKill: timestamp, killer, victim, weapon
		PlayerKill: regexp.MustCompile(`^` + ts + ` - (.+) killed (.+) using (.+)$`),

		TeamPrefix: regexp.MustCompile(`^\[([A-Za-z0-9]{2})\](.+)$`),

		// Loose shapes used to decide whether a rejected line was meant to be a log line
		DateLike: regexp.MustCompile(`\d{1,4}[/.\-]\d{1,2}[/.\-]\d{1,4}`),
		TimeLike: regexp.MustCompile(`\d{1,2}:\d{1,2}`),
	}
}

var eventKeywords = []string{"killed", "New match", "has started", "has ended", "<WORLD>"}

// Grammar decodes single log lines. It holds no state and is safe for concurrent use.
type Grammar struct {
	patterns *logPatterns
}

// NewGrammar creates a line grammar
func NewGrammar() *Grammar {
	return &Grammar{patterns: newLogPatterns()}
}

// ParseLine decodes one line.
//
// Return values:
//   - (*Entry, nil): the line is a recognized event
//   - (nil, *Diagnostic): the line looks like a log line but is malformed
//   - (nil, nil): blank or noise, ignored
func (g *Grammar) ParseLine(lineNo int, line string) (*Entry, *Diagnostic) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	if entry, ok := g.match(line); ok {
		if entry != nil {
			return entry, nil
		}
		// Shape matched but the timestamp is not a real date/time
		return nil, g.diagnose(lineNo, line)
	}

	if !g.looksLikeLog(line) {
		return nil, nil
	}
	return nil, g.diagnose(lineNo, line)
}

// match tries each pattern from most to least specific. ok is true when a
// pattern matched; entry is nil when the timestamp failed to parse.
func (g *Grammar) match(line string) (entry *Entry, ok bool) {
	p := g.patterns

	if m := p.MatchStart.FindStringSubmatch(line); m != nil {
		ts, err := parseTimestamp(m[1])
		if err != nil {
			return nil, true
		}
		return &Entry{Kind: EntryMatchStart, Timestamp: ts, MatchID: m[2], WithTeams: m[3] != ""}, true
	}

	if m := p.MatchEnd.FindStringSubmatch(line); m != nil {
		ts, err := parseTimestamp(m[1])
		if err != nil {
			return nil, true
		}
		return &Entry{Kind: EntryMatchEnd, Timestamp: ts, MatchID: m[2], WithTeams: m[3] != ""}, true
	}

	if m := p.WorldKill.FindStringSubmatch(line); m != nil {
		ts, err := parseTimestamp(m[1])
		if err != nil {
			return nil, true
		}
		return &Entry{
			Kind:      EntryWorldKill,
			Timestamp: ts,
			Killer:    match.WorldKiller,
			Victim:    strings.TrimSpace(m[2]),
			Weapon:    strings.TrimSpace(m[3]),
		}, true
	}

	if m := p.PlayerKill.FindStringSubmatch(line); m != nil {
		ts, err := parseTimestamp(m[1])
		if err != nil {
			return nil, true
		}
		return &Entry{
			Kind:      EntryPlayerKill,
			Timestamp: ts,
			Killer:    strings.TrimSpace(m[2]),
			Victim:    strings.TrimSpace(m[3]),
			Weapon:    strings.TrimSpace(m[4]),
		}, true
	}

	return nil, false
}

func (g *Grammar) looksLikeLog(line string) bool {
	if strings.Contains(line, " - ") {
		return true
	}
	if g.patterns.DateLike.MatchString(line) || g.patterns.TimeLike.MatchString(line) {
		return true
	}
	for _, kw := range eventKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

// diagnose works out which segment of a rejected line is wrong
func (g *Grammar) diagnose(lineNo int, line string) *Diagnostic {
	d := &Diagnostic{Line: lineNo, Text: line}

	head, body, found := strings.Cut(line, " - ")
	if !found {
		d.Reason = ReasonMissingSeparator
		return d
	}

	fields := strings.Fields(head)
	date := ""
	if len(fields) > 0 {
		date = fields[0]
	}
	if !validDate(date) {
		d.Reason, d.Segment = ReasonBadDate, date
		return d
	}

	clock := strings.Join(fields[1:], " ")
	if !validClock(clock) || head != date+" "+clock {
		d.Reason, d.Segment = ReasonBadTime, strings.TrimSpace(strings.TrimPrefix(head, date))
		return d
	}

	d.Reason, d.Segment = ReasonUnknownEvent, body
	return d
}

// SplitTeam splits a "[T1]Name" style name into its team tag and bare name.
// ok is false when the name carries no team prefix.
func (g *Grammar) SplitTeam(name string) (team match.Team, bare string, ok bool) {
	m := g.patterns.TeamPrefix.FindStringSubmatch(name)
	if m == nil {
		return "", name, false
	}
	return match.Team(m[1]), m[2], true
}

// KillEvent turns a kill entry into a match kill. Team prefixes are only
// stripped for team matches; otherwise names are kept verbatim.
func (g *Grammar) KillEvent(e *Entry, hasTeams bool) match.KillEvent {
	var k match.KillEvent
	if e.Kind == EntryWorldKill {
		k = match.NewWorldKill(e.Timestamp, e.Victim, e.Weapon)
	} else {
		k = match.NewPlayerKill(e.Timestamp, e.Killer, e.Victim, e.Weapon)
	}

	if !hasTeams {
		return k
	}

	if !k.IsWorldKill {
		k.KillerTeam, k.KillerName, _ = g.SplitTeam(k.KillerName)
	}
	k.VictimTeam, k.VictimName, _ = g.SplitTeam(k.VictimName)
	return k
}
