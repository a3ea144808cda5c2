package stats

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"

	"fraglog/internal/events"
	"fraglog/internal/match"
	"fraglog/internal/parser"
)

var base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

func at(seconds int) time.Time {
	return base.Add(time.Duration(seconds) * time.Second)
}

func build(t *testing.T, hasTeams bool, kills ...match.KillEvent) *match.Match {
	t.Helper()
	m := match.New("1", base, hasTeams)
	for _, k := range kills {
		if err := m.Apply(k); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestRankTwoKillScenario(t *testing.T) {
	s := parser.ParseLog(strings.Join([]string{
		"01/01/2024 10:00:00 - New match 1 has started",
		"01/01/2024 10:00:10 - A killed B using AK47",
		"01/01/2024 10:00:20 - A killed B using AK47",
		"01/01/2024 10:01:00 - Match 1 has ended",
	}, "\n"))
	m := s.Matches[0]

	r := Rank(m)
	want := []Entry{
		StandardEntry{Standing{Position: 1, Name: "A", Frags: 2, Deaths: 0, KD: 2, IsWinner: true}},
		StandardEntry{Standing{Position: 2, Name: "B", Frags: 0, Deaths: 2, KD: 0}},
	}
	if !reflect.DeepEqual(r.Entries, want) {
		t.Errorf("Rank() = %+v, want %+v", r.Entries, want)
	}

	items := BuildHighlights(m).Items()
	var sawWeapon, sawFlawless bool
	for _, h := range items {
		if h.Type == HighlightFavoriteWeapon && h.Description == "AK47 (2 kills)" {
			sawWeapon = true
		}
		if h.Type == HighlightFlawless && h.Description == "A (won without dying)" {
			sawFlawless = true
		}
	}
	if !sawWeapon || !sawFlawless {
		t.Errorf("highlights = %+v", items)
	}
}

func TestRankOrdering(t *testing.T) {
	m := build(t, false,
		match.NewPlayerKill(at(1), "C", "D", "M4"),
		match.NewPlayerKill(at(2), "A", "D", "M4"),
		match.NewPlayerKill(at(3), "B", "D", "M4"),
		match.NewPlayerKill(at(4), "D", "B", "M4"),
		match.NewPlayerKill(at(5), "C", "A", "M4"),
	)

	var names []string
	for _, e := range Rank(m).Entries {
		names = append(names, e.Base().Name)
	}
	// C: 2/0, A: 1/1, B: 1/1 (A first seen), D: 1/3
	want := []string{"C", "A", "B", "D"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}

	for i, e := range Rank(m).Entries {
		if e.Base().Position != i+1 {
			t.Errorf("entry %d position = %d", i, e.Base().Position)
		}
	}
}

func TestRankTeamEntries(t *testing.T) {
	m := build(t, true,
		match.KillEvent{Timestamp: at(1), KillerName: "A", VictimName: "B", Weapon: "M4", KillerTeam: "T1", VictimTeam: "T2"},
		match.KillEvent{Timestamp: at(2), KillerName: "A", VictimName: "C", Weapon: "M4", KillerTeam: "T1", VictimTeam: "T1"},
	)

	r := Rank(m)
	top, ok := r.Entries[0].(TeamEntry)
	if !ok {
		t.Fatalf("entry type = %T, want TeamEntry", r.Entries[0])
	}
	if top.Team != "T1" || top.FriendlyKills != 1 || top.Score != 1 || !top.IsWinner {
		t.Errorf("team entry = %+v", top)
	}

	raw, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"friendlyKills":1`) || !strings.Contains(string(raw), `"name":"A"`) {
		t.Errorf("json = %s", raw)
	}
}

func TestRankEmptyMatch(t *testing.T) {
	m := match.New("1", base, false)
	if len(Rank(m).Entries) != 0 {
		t.Error("empty match should have no entries")
	}
	if _, ok := Winner(m); ok {
		t.Error("empty match has no winner")
	}
	if items := BuildHighlights(m).Items(); len(items) != 0 {
		t.Errorf("highlights = %v", items)
	}
}

func TestBestStreakAcrossAllPlayers(t *testing.T) {
	// A wins on frags but B holds the longest streak
	m := build(t, false,
		match.NewPlayerKill(at(1), "A", "C", "M4"),
		match.NewPlayerKill(at(2), "C", "A", "M4"),
		match.NewPlayerKill(at(3), "A", "C", "M4"),
		match.NewPlayerKill(at(4), "C", "A", "M4"),
		match.NewPlayerKill(at(5), "A", "C", "M4"),
		match.NewPlayerKill(at(6), "A", "B", "M4"),
		match.NewPlayerKill(at(7), "B", "C", "Knife"),
		match.NewPlayerKill(at(8), "B", "C", "Knife"),
		match.NewPlayerKill(at(9), "B", "C", "Knife"),
	)

	h := BuildHighlights(m)
	if h.BestStreak == nil || h.BestStreak.Player != "B" || h.BestStreak.Streak != 3 {
		t.Errorf("best streak = %+v, want B with 3", h.BestStreak)
	}
	if h.FavoriteWeapon == nil || h.FavoriteWeapon.Player != "A" || h.FavoriteWeapon.Weapon != "M4" {
		t.Errorf("favorite weapon = %+v, want winner A with M4", h.FavoriteWeapon)
	}
	if len(h.Flawless) != 0 {
		t.Errorf("flawless = %v, winner died", h.Flawless)
	}
}

func TestBestStreakOfOneIsNotReported(t *testing.T) {
	m := build(t, false,
		match.NewPlayerKill(at(1), "A", "B", "M4"),
		match.NewPlayerKill(at(2), "B", "A", "M4"),
	)
	if h := BuildHighlights(m); h.BestStreak != nil {
		t.Errorf("best streak = %+v, want none", h.BestStreak)
	}
}

func TestFrenzyForLosersToo(t *testing.T) {
	var kills []match.KillEvent
	for i := 0; i < 6; i++ {
		kills = append(kills, match.NewPlayerKill(at(i), "A", "X", "M4"))
	}
	for i := 0; i < 5; i++ {
		kills = append(kills, match.NewPlayerKill(at(100+i*10), "B", "Y", "M4"))
	}
	m := build(t, false, kills...)

	h := BuildHighlights(m)
	if !reflect.DeepEqual(h.Frenzy, []string{"A", "B"}) {
		t.Errorf("frenzy = %v, want [A B]", h.Frenzy)
	}

	var frenzyItems int
	for _, item := range h.Items() {
		if item.Type == HighlightFrenzy {
			frenzyItems++
			if !strings.HasSuffix(item.Description, "(5 kills in 1 minute)") {
				t.Errorf("description = %q", item.Description)
			}
		}
	}
	if frenzyItems != 2 {
		t.Errorf("frenzy items = %d", frenzyItems)
	}
}

// Ranking a match rebuilt from its parsed events matches the one built while parsing
func TestRankFromScratchMatchesIncremental(t *testing.T) {
	s := parser.ParseLog(strings.Join([]string{
		"01/01/2024 10:00:00 - New match 3 has started with teams",
		"01/01/2024 10:00:01 - [T1]A killed [T2]B using M4",
		"01/01/2024 10:00:02 - [T2]B killed [T1]A using AK47",
		"01/01/2024 10:00:03 - <WORLD> killed [T2]C by FALL",
		"01/01/2024 10:00:04 - [T1]A killed [T1]D using M4",
		"01/01/2024 10:00:05 - [T2]C killed [T1]D using Knife",
		"01/01/2024 10:00:06 - Match 3 has ended with teams",
	}, "\n"))
	incremental := s.Matches[0]

	var scratch *match.Match
	for _, e := range s.Events {
		switch e.Type {
		case events.EventMatchStart:
			scratch = match.New(e.MatchID, e.Timestamp, e.HasTeams)
		case events.EventKill:
			if err := scratch.Apply(*e.Kill); err != nil {
				t.Fatal(err)
			}
		case events.EventMatchEnd:
			if err := scratch.End(e.Timestamp); err != nil {
				t.Fatal(err)
			}
		}
	}

	if !reflect.DeepEqual(Rank(scratch), Rank(incremental)) {
		t.Errorf("rank mismatch:\n%+v\n%+v", Rank(scratch), Rank(incremental))
	}
	if !reflect.DeepEqual(BuildHighlights(scratch), BuildHighlights(incremental)) {
		t.Error("highlights mismatch")
	}
}

func TestGlobalRanking(t *testing.T) {
	m1 := build(t, false,
		match.NewPlayerKill(at(1), "A", "B", "M4"),
		match.NewPlayerKill(at(2), "A", "B", "M4"),
	)
	m2 := match.New("2", base, true)
	_ = m2.Apply(match.KillEvent{Timestamp: at(1), KillerName: "B", VictimName: "A", Weapon: "M4", KillerTeam: "T1", VictimTeam: "T2"})
	_ = m2.Apply(match.KillEvent{Timestamp: at(2), KillerName: "B", VictimName: "C", Weapon: "M4", KillerTeam: "T1", VictimTeam: "T1"})
	_ = m2.Apply(match.KillEvent{Timestamp: at(3), KillerName: "C", VictimName: "A", Weapon: "M4", KillerTeam: "T1", VictimTeam: "T2"})

	got := GlobalRanking([]*match.Match{m1, m2})
	want := []GlobalEntry{
		{Name: "A", Frags: 2, Deaths: 2, Matches: 2, Wins: 1, Score: 2, KD: 1},
		{Name: "B", Frags: 2, Deaths: 2, FriendlyKills: 1, Matches: 2, Wins: 1, Score: 1, KD: 1},
		{Name: "C", Frags: 1, Deaths: 1, Matches: 1, Score: 1, KD: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GlobalRanking() =\n%+v\nwant\n%+v", got, want)
	}
}
