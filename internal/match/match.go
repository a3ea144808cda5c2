package match

import (
	"errors"
	"fmt"
	"time"
)

// ErrMatchClosed is returned when a finished match is mutated
var ErrMatchClosed = errors.New("match already ended")

// Match is the aggregate of one match: roster, running stats and the kill log.
// It is owned by a single goroutine while open and read-only once ended.
type Match struct {
	ID         string
	StartedAt  time.Time
	EndedAt    *time.Time
	HasTeams   bool
	KillEvents []KillEvent

	players map[string]*Player
	order   []string
}

// New opens a match
func New(id string, startedAt time.Time, hasTeams bool) *Match {
	return &Match{
		ID:        id,
		StartedAt: startedAt,
		HasTeams:  hasTeams,
		players:   make(map[string]*Player),
	}
}

// Apply records a kill. World kills only touch the victim.
func (m *Match) Apply(event KillEvent) error {
	if m.Closed() {
		return fmt.Errorf("apply kill to match %s: %w", m.ID, ErrMatchClosed)
	}

	m.KillEvents = append(m.KillEvents, event)

	if !event.IsWorldKill {
		killer := m.getOrCreatePlayer(event.KillerName, event.KillerTeam)
		killer.addKill(event.Weapon, event.Timestamp)
		if m.HasTeams && event.IsFriendlyFire() {
			killer.FriendlyKills++
		}
	}

	victim := m.getOrCreatePlayer(event.VictimName, event.VictimTeam)
	victim.addDeath()

	return nil
}

// End closes the match
func (m *Match) End(endedAt time.Time) error {
	if m.Closed() {
		return fmt.Errorf("end match %s: %w", m.ID, ErrMatchClosed)
	}
	m.EndedAt = &endedAt
	return nil
}

// Closed reports whether the match has ended
func (m *Match) Closed() bool {
	return m.EndedAt != nil
}

// Player looks up a participant by name
func (m *Match) Player(name string) (*Player, bool) {
	p, ok := m.players[name]
	return p, ok
}

// Players returns participants in order of first appearance
func (m *Match) Players() []*Player {
	out := make([]*Player, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.players[name])
	}
	return out
}

func (m *Match) getOrCreatePlayer(name string, team Team) *Player {
	p, ok := m.players[name]
	if !ok {
		p = newPlayer(name)
		m.players[name] = p
		m.order = append(m.order, name)
	}
	if m.HasTeams && p.Team == "" && team != "" {
		p.Team = team
	}
	return p
}
