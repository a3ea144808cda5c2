// Package stats derives rankings, awards and cross-match totals from match aggregates.
// Everything here is a pure function of its input.
package stats

import (
	"sort"
	"time"

	"fraglog/internal/match"
)

// Standing holds the fields every ranking entry carries
type Standing struct {
	Position int     `json:"position"`
	Name     string  `json:"name"`
	Frags    int     `json:"frags"`
	Deaths   int     `json:"deaths"`
	KD       float64 `json:"kd"`
	IsWinner bool    `json:"isWinner"`
}

// Entry is one line of a match ranking: a StandardEntry or a TeamEntry,
// depending on whether the match was played with teams.
type Entry interface {
	Base() Standing
	isEntry()
}

// StandardEntry is a ranking line of a free-for-all match
type StandardEntry struct {
	Standing
}

// TeamEntry is a ranking line of a team match
type TeamEntry struct {
	Standing
	Team          match.Team `json:"team"`
	FriendlyKills int        `json:"friendlyKills"`
	Score         int        `json:"score"`
}

func (e StandardEntry) Base() Standing { return e.Standing }
func (e TeamEntry) Base() Standing     { return e.Standing }

func (StandardEntry) isEntry() {}
func (TeamEntry) isEntry()     {}

// Ranking is the ordered result of a match
type Ranking struct {
	MatchID   string     `json:"matchId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
	HasTeams  bool       `json:"hasTeams"`
	Entries   []Entry    `json:"ranking"`
}

// SortedPlayers orders players by frags desc, then deaths asc. Remaining ties
// keep first-appearance order.
func SortedPlayers(m *match.Match) []*match.Player {
	players := m.Players()
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Frags != players[j].Frags {
			return players[i].Frags > players[j].Frags
		}
		return players[i].Deaths < players[j].Deaths
	})
	return players
}

// Winner returns the top ranked player, if the match has any
func Winner(m *match.Match) (*match.Player, bool) {
	players := SortedPlayers(m)
	if len(players) == 0 {
		return nil, false
	}
	return players[0], true
}

// Rank builds the ranking of a match. Works on open matches too.
func Rank(m *match.Match) Ranking {
	players := SortedPlayers(m)

	r := Ranking{
		MatchID:   m.ID,
		StartedAt: m.StartedAt,
		EndedAt:   m.EndedAt,
		HasTeams:  m.HasTeams,
		Entries:   make([]Entry, 0, len(players)),
	}

	for i, p := range players {
		base := Standing{
			Position: i + 1,
			Name:     p.Name,
			Frags:    p.Frags,
			Deaths:   p.Deaths,
			KD:       p.KD(),
			IsWinner: i == 0,
		}

		if m.HasTeams {
			r.Entries = append(r.Entries, TeamEntry{
				Standing:      base,
				Team:          p.Team,
				FriendlyKills: p.FriendlyKills,
				Score:         p.Score(),
			})
			continue
		}
		r.Entries = append(r.Entries, StandardEntry{Standing: base})
	}

	return r
}

// Winner returns the winning entry of the ranking
func (r Ranking) Winner() (Entry, bool) {
	if len(r.Entries) == 0 {
		return nil, false
	}
	return r.Entries[0], true
}
