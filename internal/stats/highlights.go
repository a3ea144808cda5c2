package stats

import (
	"fmt"

	"fraglog/internal/match"
)

// HighlightType names an award
type HighlightType string

const (
	HighlightFavoriteWeapon HighlightType = "favorite_weapon"
	HighlightBestStreak     HighlightType = "best_streak"
	HighlightFlawless       HighlightType = "flawless"
	HighlightFrenzy         HighlightType = "frenzy"
)

// Highlight is a display ready award
type Highlight struct {
	Type        HighlightType `json:"type"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
}

// WeaponUse is the winner's most used weapon
type WeaponUse struct {
	Player string `json:"player"`
	Weapon string `json:"weapon"`
	Kills  int    `json:"kills"`
}

// Streak is the longest run of kills without dying
type Streak struct {
	Player string `json:"player"`
	Streak int    `json:"streak"`
}

// Highlights are the awards of one match
type Highlights struct {
	MatchID        string     `json:"matchId"`
	FavoriteWeapon *WeaponUse `json:"favoriteWeapon,omitempty"`
	BestStreak     *Streak    `json:"bestStreak,omitempty"`
	Flawless       []string   `json:"flawless"`
	Frenzy         []string   `json:"frenzy"`
}

// BuildHighlights computes the awards of a match.
//
// The favorite weapon and flawless award only consider the winner. Best streak
// is taken over every player and only kept when above one. Frenzy is checked
// for every player.
func BuildHighlights(m *match.Match) Highlights {
	h := Highlights{
		MatchID:  m.ID,
		Flawless: []string{},
		Frenzy:   []string{},
	}

	players := SortedPlayers(m)
	if len(players) == 0 {
		return h
	}
	winner := players[0]

	if weapon, kills, ok := winner.FavoriteWeapon(); ok {
		h.FavoriteWeapon = &WeaponUse{Player: winner.Name, Weapon: weapon, Kills: kills}
	}

	var best *match.Player
	for _, p := range players {
		if best == nil || p.MaxStreak > best.MaxStreak {
			best = p
		}
	}
	if best.MaxStreak > 1 {
		h.BestStreak = &Streak{Player: best.Name, Streak: best.MaxStreak}
	}

	if winner.HasFlawlessVictory() {
		h.Flawless = append(h.Flawless, winner.Name)
	}

	for _, p := range players {
		if p.HasFrenzy() {
			h.Frenzy = append(h.Frenzy, p.Name)
		}
	}

	return h
}

// Items flattens the awards into display order
func (h Highlights) Items() []Highlight {
	items := []Highlight{}

	if w := h.FavoriteWeapon; w != nil {
		items = append(items, Highlight{
			Type:        HighlightFavoriteWeapon,
			Title:       "Winner's Favorite Weapon",
			Description: fmt.Sprintf("%s (%d kills)", w.Weapon, w.Kills),
		})
	}

	if s := h.BestStreak; s != nil {
		items = append(items, Highlight{
			Type:        HighlightBestStreak,
			Title:       "Best Streak",
			Description: fmt.Sprintf("%s - %d kills without dying", s.Player, s.Streak),
		})
	}

	for _, name := range h.Flawless {
		items = append(items, Highlight{
			Type:        HighlightFlawless,
			Title:       "FLAWLESS Award",
			Description: fmt.Sprintf("%s (won without dying)", name),
		})
	}

	for _, name := range h.Frenzy {
		items = append(items, Highlight{
			Type:        HighlightFrenzy,
			Title:       "FRENZY Award",
			Description: fmt.Sprintf("%s (5 kills in 1 minute)", name),
		})
	}

	return items
}
