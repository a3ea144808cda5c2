package match

import (
	"math"
	"slices"
	"time"
)

// frenzyKills kills inside frenzyWindow earn the frenzy award
const (
	frenzyKills  = 5
	frenzyWindow = 60 * time.Second
)

// Player holds the running stats of one participant inside one match
type Player struct {
	Name           string
	Team           Team
	Frags          int
	Deaths         int
	CurrentStreak  int
	MaxStreak      int
	FriendlyKills  int
	WeaponKills    map[string]int
	KillTimestamps []time.Time

	weaponOrder []string
}

func newPlayer(name string) *Player {
	return &Player{
		Name:        name,
		WeaponKills: make(map[string]int),
	}
}

func (p *Player) addKill(weapon string, ts time.Time) {
	p.Frags++
	p.CurrentStreak++
	if p.CurrentStreak > p.MaxStreak {
		p.MaxStreak = p.CurrentStreak
	}

	if _, seen := p.WeaponKills[weapon]; !seen {
		p.weaponOrder = append(p.weaponOrder, weapon)
	}
	p.WeaponKills[weapon]++

	p.KillTimestamps = append(p.KillTimestamps, ts)
}

func (p *Player) addDeath() {
	p.Deaths++
	p.CurrentStreak = 0
}

// FavoriteWeapon returns the weapon with most kills. Ties go to the weapon used first.
func (p *Player) FavoriteWeapon() (weapon string, kills int, ok bool) {
	for _, w := range p.weaponOrder {
		if n := p.WeaponKills[w]; n > kills {
			weapon, kills = w, n
		}
	}
	return weapon, kills, kills > 0
}

// HasFlawlessVictory is true for a player that scored without dying.
// Only meaningful for the match winner.
func (p *Player) HasFlawlessVictory() bool {
	return p.Deaths == 0 && p.Frags > 0
}

// HasFrenzy reports whether any 5 consecutive kills happened within one minute
func (p *Player) HasFrenzy() bool {
	if len(p.KillTimestamps) < frenzyKills {
		return false
	}

	sorted := slices.Clone(p.KillTimestamps)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	for i := 0; i+frenzyKills-1 < len(sorted); i++ {
		if sorted[i+frenzyKills-1].Sub(sorted[i]) <= frenzyWindow {
			return true
		}
	}
	return false
}

// KD returns frags per death rounded to two decimals, or frags when the player never died
func (p *Player) KD() float64 {
	return KD(p.Frags, p.Deaths)
}

// Score is frags minus friendly kills
func (p *Player) Score() int {
	return p.Frags - p.FriendlyKills
}

// KD computes a kill/death ratio rounded to two decimals
func KD(frags, deaths int) float64 {
	if deaths == 0 {
		return float64(frags)
	}
	return math.Round(float64(frags)/float64(deaths)*100) / 100
}
