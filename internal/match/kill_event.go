package match

import "time"

// WorldKiller is the killer name used for environment deaths
const WorldKiller = "<WORLD>"

// Team is a team tag parsed from a "[T1]Name" style prefix
type Team string

// KillEvent is a single kill read from the log. It is never mutated after parsing.
type KillEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	KillerName  string    `json:"killer"`
	VictimName  string    `json:"victim"`
	Weapon      string    `json:"weapon"`
	IsWorldKill bool      `json:"isWorldKill"`
	KillerTeam  Team      `json:"killerTeam,omitempty"`
	VictimTeam  Team      `json:"victimTeam,omitempty"`
}

// NewPlayerKill builds a kill made by another player
func NewPlayerKill(ts time.Time, killer, victim, weapon string) KillEvent {
	return KillEvent{
		Timestamp:  ts,
		KillerName: killer,
		VictimName: victim,
		Weapon:     weapon,
	}
}

// NewWorldKill builds a kill caused by the environment
func NewWorldKill(ts time.Time, victim, cause string) KillEvent {
	return KillEvent{
		Timestamp:   ts,
		KillerName:  WorldKiller,
		VictimName:  victim,
		Weapon:      cause,
		IsWorldKill: true,
	}
}

// IsFriendlyFire reports whether killer and victim share a team
func (k KillEvent) IsFriendlyFire() bool {
	if k.IsWorldKill {
		return false
	}
	return k.KillerTeam != "" && k.VictimTeam != "" && k.KillerTeam == k.VictimTeam
}
