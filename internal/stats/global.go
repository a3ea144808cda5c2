package stats

import (
	"sort"

	"fraglog/internal/match"
)

// GlobalEntry is a player's totals across many matches
type GlobalEntry struct {
	Name          string  `json:"name"`
	Frags         int     `json:"frags"`
	Deaths        int     `json:"deaths"`
	FriendlyKills int     `json:"friendlyKills"`
	Matches       int     `json:"matches"`
	Wins          int     `json:"wins"`
	Score         int     `json:"score"`
	KD            float64 `json:"kd"`
}

// GlobalRanking sums player stats over finished matches and sorts by score
func GlobalRanking(matches []*match.Match) []GlobalEntry {
	totals := map[string]*GlobalEntry{}

	for _, m := range matches {
		winner, hasWinner := Winner(m)
		for _, p := range m.Players() {
			e, ok := totals[p.Name]
			if !ok {
				e = &GlobalEntry{Name: p.Name}
				totals[p.Name] = e
			}
			e.Frags += p.Frags
			e.Deaths += p.Deaths
			e.FriendlyKills += p.FriendlyKills
			e.Matches++
			if hasWinner && winner == p {
				e.Wins++
			}
		}
	}

	out := make([]GlobalEntry, 0, len(totals))
	for _, e := range totals {
		e.Score = e.Frags - e.FriendlyKills
		e.KD = match.KD(e.Frags, e.Deaths)
		out = append(out, *e)
	}

	SortGlobal(out)
	return out
}

// SortGlobal orders entries by score desc, frags desc, then name
func SortGlobal(entries []GlobalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Frags != b.Frags {
			return a.Frags > b.Frags
		}
		return a.Name < b.Name
	})
}
