package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"fraglog/internal/events"
	"fraglog/internal/match"
)

// maxLineSize bounds a single log line read through ParseReader
const maxLineSize = 1024 * 1024

// Abandonment records a match that was never finalized: either a new start
// replaced it or the log ended while it was open. ReplacedBy is empty in the
// second case and Line is then the last line of the log.
type Abandonment struct {
	MatchID    string `json:"matchId"`
	Line       int    `json:"line"`
	ReplacedBy string `json:"replacedBy"`
}

// Session is the result of parsing a whole log
type Session struct {
	Events      []events.LogEvent
	Matches     []*match.Match
	Diagnostics []Diagnostic
	Abandoned   []Abandonment
	Lines       int
}

// parseState is the session parser state: idle, open(match) or closed
type parseState interface {
	isParseState()
}

type idleState struct{}

type openState struct {
	match *match.Match
}

type closedState struct {
	last *match.Match
}

func (idleState) isParseState()   {}
func (openState) isParseState()   {}
func (closedState) isParseState() {}

// LogParser drives the grammar across a log and assembles completed matches
type LogParser struct {
	grammar *Grammar
}

// NewLogParser creates a log session parser
func NewLogParser() *LogParser {
	return &LogParser{grammar: NewGrammar()}
}

// ParseLog parses a full log held in memory
func (p *LogParser) ParseLog(content string) *Session {
	b := p.newBuilder()
	for i, line := range strings.Split(content, "\n") {
		b.feed(i+1, line)
	}
	return b.finish()
}

// ParseReader parses a log streamed from r
func (p *LogParser) ParseReader(r io.Reader) (*Session, error) {
	b := p.newBuilder()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		b.feed(lineNo, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log at line %d: %w", lineNo+1, err)
	}
	return b.finish(), nil
}

// ParseLog parses content with a fresh LogParser
func ParseLog(content string) *Session {
	return NewLogParser().ParseLog(content)
}

type sessionBuilder struct {
	grammar *Grammar
	state   parseState
	session *Session
}

func (p *LogParser) newBuilder() *sessionBuilder {
	return &sessionBuilder{
		grammar: p.grammar,
		state:   idleState{},
		session: &Session{},
	}
}

func (b *sessionBuilder) feed(lineNo int, line string) {
	b.session.Lines = lineNo

	entry, diag := b.grammar.ParseLine(lineNo, line)
	if diag != nil {
		b.session.Diagnostics = append(b.session.Diagnostics, *diag)
		return
	}
	if entry == nil {
		return
	}

	switch entry.Kind {
	case EntryMatchStart:
		b.startMatch(lineNo, entry)
	case EntryMatchEnd:
		b.endMatch(lineNo, entry)
	case EntryWorldKill, EntryPlayerKill:
		b.kill(lineNo, entry)
	}
}

// finish closes the session. A match still open at the end is recorded as
// abandoned so the validator can reject it.
func (b *sessionBuilder) finish() *Session {
	if open, ok := b.state.(openState); ok {
		b.session.Abandoned = append(b.session.Abandoned, Abandonment{
			MatchID: open.match.ID,
			Line:    b.session.Lines,
		})
		b.state = idleState{}
	}
	return b.session
}

func (b *sessionBuilder) startMatch(lineNo int, e *Entry) {
	if open, ok := b.state.(openState); ok {
		b.session.Abandoned = append(b.session.Abandoned, Abandonment{
			MatchID:    open.match.ID,
			Line:       lineNo,
			ReplacedBy: e.MatchID,
		})
	}

	b.session.Events = append(b.session.Events, events.NewMatchStart(lineNo, e.Timestamp, e.MatchID, e.WithTeams))
	b.state = openState{match: match.New(e.MatchID, e.Timestamp, e.WithTeams)}
}

func (b *sessionBuilder) endMatch(lineNo int, e *Entry) {
	b.session.Events = append(b.session.Events, events.NewMatchEnd(lineNo, e.Timestamp, e.MatchID, e.WithTeams))

	open, ok := b.state.(openState)
	if !ok || open.match.ID != e.MatchID {
		// Orphan end: left for the validator
		return
	}

	// End cannot fail on an open match
	_ = open.match.End(e.Timestamp)
	b.session.Matches = append(b.session.Matches, open.match)
	b.state = closedState{last: open.match}
}

func (b *sessionBuilder) kill(lineNo int, e *Entry) {
	open, ok := b.state.(openState)
	if !ok {
		kill := b.grammar.KillEvent(e, false)
		b.session.Events = append(b.session.Events, events.NewKill(lineNo, kill, "", false))
		return
	}

	kill := b.grammar.KillEvent(e, open.match.HasTeams)
	_ = open.match.Apply(kill)
	b.session.Events = append(b.session.Events, events.NewKill(lineNo, kill, open.match.ID, open.match.HasTeams))
}
