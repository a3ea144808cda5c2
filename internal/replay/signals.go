package replay

import (
	"context"
	"time"

	"fraglog/internal/match"
	"fraglog/internal/stats"
	"fraglog/internal/validator"
)

// SignalKind names a replay signal on the wire
type SignalKind string

const (
	KindValidated     SignalKind = "validated"
	KindFailed        SignalKind = "failed"
	KindSnapshot      SignalKind = "snapshot"
	KindMatchComplete SignalKind = "matchComplete"
	KindComplete      SignalKind = "complete"
)

// Signal is one item of a session's ordered output stream
type Signal interface {
	Kind() SignalKind
}

// Validated is sent once the log passed validation
type Validated struct {
	TotalEvents int `json:"totalEvents"`
}

// Failed is sent instead of Validated when the log is rejected
type Failed struct {
	Reason  validator.Kind `json:"reason"`
	Message string         `json:"message"`
}

// LastEvent describes the kill that produced a snapshot
type LastEvent struct {
	Timestamp      time.Time  `json:"timestamp"`
	Killer         string     `json:"killer"`
	Victim         string     `json:"victim"`
	Weapon         string     `json:"weapon"`
	KillerTeam     match.Team `json:"killerTeam,omitempty"`
	VictimTeam     match.Team `json:"victimTeam,omitempty"`
	IsWorldKill    bool       `json:"isWorldKill"`
	IsFriendlyFire bool       `json:"isFriendlyFire"`
}

// Snapshot is the live ranking after a match start or a kill
type Snapshot struct {
	MatchID      string        `json:"matchId"`
	EventNumber  int           `json:"eventNumber"`
	TotalEvents  int           `json:"totalEvents"`
	HasTeams     bool          `json:"hasTeams"`
	Ranking      []stats.Entry `json:"ranking"`
	MatchStarted bool          `json:"matchStarted,omitempty"`
	LastEvent    *LastEvent    `json:"lastEvent,omitempty"`
}

// MatchComplete carries the final result of one match. It is sent for every
// finalized match, skipping or not.
type MatchComplete struct {
	MatchID    string            `json:"matchId"`
	HasTeams   bool              `json:"hasTeams"`
	Ranking    stats.Ranking     `json:"ranking"`
	Highlights []stats.Highlight `json:"highlights"`
}

// Complete ends the stream
type Complete struct {
	TotalMatches int `json:"totalMatches"`
}

func (Validated) Kind() SignalKind     { return KindValidated }
func (Failed) Kind() SignalKind        { return KindFailed }
func (Snapshot) Kind() SignalKind      { return KindSnapshot }
func (MatchComplete) Kind() SignalKind { return KindMatchComplete }
func (Complete) Kind() SignalKind      { return KindComplete }

// Emitter delivers signals to an observer. A returned error stops the replay.
type Emitter interface {
	Emit(ctx context.Context, sig Signal) error
}

// EmitterFunc adapts a function to Emitter
type EmitterFunc func(ctx context.Context, sig Signal) error

func (f EmitterFunc) Emit(ctx context.Context, sig Signal) error {
	return f(ctx, sig)
}

// Store persists finalized matches. It must be safe for concurrent use by
// several sessions.
type Store interface {
	Save(ctx context.Context, m *match.Match) error
}

func newLastEvent(k match.KillEvent) *LastEvent {
	return &LastEvent{
		Timestamp:      k.Timestamp,
		Killer:         k.KillerName,
		Victim:         k.VictimName,
		Weapon:         k.Weapon,
		KillerTeam:     k.KillerTeam,
		VictimTeam:     k.VictimTeam,
		IsWorldKill:    k.IsWorldKill,
		IsFriendlyFire: k.IsFriendlyFire(),
	}
}
