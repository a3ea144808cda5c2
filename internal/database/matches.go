package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fraglog/internal/match"
	"fraglog/internal/stats"

	"github.com/pocketbase/pocketbase/core"
)

const (
	matchesCollection      = "matches"
	matchPlayersCollection = "match_players"
	killEventsCollection   = "kill_events"
)

// ErrMatchNotFound is returned when no stored match has the requested id
var ErrMatchNotFound = errors.New("match not found")

// MatchStore persists finalized matches as PocketBase records and reads them back.
// Matches are keyed by their log id; saving the same id again replaces the record.
type MatchStore struct {
	app    core.App
	logger *slog.Logger
}

// NewMatchStore creates a store on top of a bootstrapped PocketBase app
func NewMatchStore(app core.App) *MatchStore {
	return &MatchStore{
		app:    app,
		logger: app.Logger().With("component", "MATCH_STORE"),
	}
}

// Save stores one finalized match
func (s *MatchStore) Save(ctx context.Context, m *match.Match) error {
	if !m.Closed() {
		return fmt.Errorf("cannot save match %s: still open", m.ID)
	}

	err := s.app.RunInTransaction(func(txApp core.App) error {
		return saveMatch(ctx, txApp, m)
	})
	if err != nil {
		return fmt.Errorf("failed to save match %s: %w", m.ID, err)
	}

	s.logger.Debug("Saved match", "matchID", m.ID, "kills", len(m.KillEvents))
	return nil
}

// SaveMany stores several matches in one transaction. Either all are stored or none.
func (s *MatchStore) SaveMany(ctx context.Context, matches []*match.Match) error {
	for _, m := range matches {
		if !m.Closed() {
			return fmt.Errorf("cannot save match %s: still open", m.ID)
		}
	}

	err := s.app.RunInTransaction(func(txApp core.App) error {
		for _, m := range matches {
			if err := saveMatch(ctx, txApp, m); err != nil {
				return fmt.Errorf("match %s: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save matches: %w", err)
	}

	s.logger.Info("Saved matches", "count", len(matches))
	return nil
}

// saveMatch replaces any stored match with the same id. Deleting the old
// record cascades to its players and kill events.
func saveMatch(ctx context.Context, txApp core.App, m *match.Match) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	existing, err := txApp.FindFirstRecordByFilter(
		matchesCollection,
		"match_id = {:matchID}",
		map[string]any{"matchID": m.ID},
	)
	switch {
	case err == nil:
		if err := txApp.Delete(existing); err != nil {
			return fmt.Errorf("failed to replace existing match: %w", err)
		}
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to look up match %s: %w", m.ID, err)
	}

	matches, err := txApp.FindCollectionByNameOrId(matchesCollection)
	if err != nil {
		return err
	}

	ranking := stats.Rank(m)
	highlights := stats.BuildHighlights(m)

	record := core.NewRecord(matches)
	record.Set("match_id", m.ID)
	record.Set("started_at", m.StartedAt.UTC().Format(time.RFC3339))
	record.Set("ended_at", m.EndedAt.UTC().Format(time.RFC3339))
	record.Set("has_teams", m.HasTeams)
	record.Set("kill_count", len(m.KillEvents))
	if w := highlights.FavoriteWeapon; w != nil {
		record.Set("winner_weapon", w.Weapon)
	}
	if winner, ok := ranking.Winner(); ok {
		record.Set("winner_name", winner.Base().Name)
	}

	if err := txApp.Save(record); err != nil {
		return fmt.Errorf("failed to create match record: %w", err)
	}

	if err := savePlayers(txApp, record.Id, m, ranking, highlights); err != nil {
		return err
	}

	return saveKillEvents(txApp, record.Id, m)
}

func savePlayers(txApp core.App, recordID string, m *match.Match, ranking stats.Ranking, highlights stats.Highlights) error {
	collection, err := txApp.FindCollectionByNameOrId(matchPlayersCollection)
	if err != nil {
		return err
	}

	flawless := map[string]bool{}
	for _, name := range highlights.Flawless {
		flawless[name] = true
	}
	frenzy := map[string]bool{}
	for _, name := range highlights.Frenzy {
		frenzy[name] = true
	}

	for _, entry := range ranking.Entries {
		st := entry.Base()
		p, _ := m.Player(st.Name)

		record := core.NewRecord(collection)
		record.Set("match", recordID)
		record.Set("player_name", p.Name)
		record.Set("team", string(p.Team))
		record.Set("position", st.Position)
		record.Set("frags", p.Frags)
		record.Set("deaths", p.Deaths)
		record.Set("max_streak", p.MaxStreak)
		record.Set("friendly_kills", p.FriendlyKills)
		record.Set("score", p.Score())
		record.Set("is_winner", st.IsWinner)
		record.Set("has_flawless_award", flawless[p.Name])
		record.Set("has_frenzy_award", frenzy[p.Name])
		record.Set("weapon_kills", p.WeaponKills)

		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("failed to save player %s: %w", p.Name, err)
		}
	}

	return nil
}

func saveKillEvents(txApp core.App, recordID string, m *match.Match) error {
	collection, err := txApp.FindCollectionByNameOrId(killEventsCollection)
	if err != nil {
		return err
	}

	for i, k := range m.KillEvents {
		record := core.NewRecord(collection)
		record.Set("match", recordID)
		record.Set("seq", i)
		record.Set("timestamp", k.Timestamp.UTC().Format(time.RFC3339))
		record.Set("killer_name", k.KillerName)
		record.Set("victim_name", k.VictimName)
		record.Set("weapon", k.Weapon)
		record.Set("is_world_kill", k.IsWorldKill)
		record.Set("killer_team", string(k.KillerTeam))
		record.Set("victim_team", string(k.VictimTeam))
		record.Set("is_friendly_fire", k.IsFriendlyFire())

		if err := txApp.Save(record); err != nil {
			return fmt.Errorf("failed to save kill event %d: %w", i, err)
		}
	}

	return nil
}

// FindAll returns every stored match, most recently stored first
func (s *MatchStore) FindAll(ctx context.Context) ([]*match.Match, error) {
	records := []*core.Record{}
	err := s.app.RecordQuery(matchesCollection).
		OrderBy("created DESC", "started_at DESC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	out := make([]*match.Match, 0, len(records))
	for _, record := range records {
		m, err := s.rebuild(ctx, record)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// FindByID returns the stored match with the given log id
func (s *MatchStore) FindByID(ctx context.Context, matchID string) (*match.Match, error) {
	record, err := s.app.FindFirstRecordByFilter(
		matchesCollection,
		"match_id = {:matchID}",
		map[string]any{"matchID": matchID},
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up match %s: %w", matchID, err)
	}
	return s.rebuild(ctx, record)
}

// rebuild replays the stored kill log into a fresh aggregate
func (s *MatchStore) rebuild(ctx context.Context, record *core.Record) (*match.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := match.New(
		record.GetString("match_id"),
		record.GetDateTime("started_at").Time(),
		record.GetBool("has_teams"),
	)

	kills, err := s.app.FindRecordsByFilter(
		killEventsCollection,
		"match = {:match}",
		"seq",
		0,
		0,
		map[string]any{"match": record.Id},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load kill events of match %s: %w", m.ID, err)
	}

	for _, k := range kills {
		event := match.KillEvent{
			Timestamp:   k.GetDateTime("timestamp").Time(),
			KillerName:  k.GetString("killer_name"),
			VictimName:  k.GetString("victim_name"),
			Weapon:      k.GetString("weapon"),
			IsWorldKill: k.GetBool("is_world_kill"),
			KillerTeam:  match.Team(k.GetString("killer_team")),
			VictimTeam:  match.Team(k.GetString("victim_team")),
		}
		if err := m.Apply(event); err != nil {
			return nil, err
		}
	}

	if endedAt := record.GetDateTime("ended_at"); !endedAt.IsZero() {
		if err := m.End(endedAt.Time()); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// DeleteEndedBefore removes matches that ended before cutoff along with
// their players and kill events. It returns how many matches were removed.
func (s *MatchStore) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0

	err := s.app.RunInTransaction(func(txApp core.App) error {
		records, err := txApp.FindRecordsByFilter(
			matchesCollection,
			"ended_at != '' && ended_at < {:cutoff}",
			"-ended_at",
			10000,
			0,
			map[string]any{"cutoff": cutoff.UTC().Format("2006-01-02 15:04:05.000Z")},
		)
		if err != nil {
			return fmt.Errorf("failed to query old matches: %w", err)
		}

		for _, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := txApp.Delete(record); err != nil {
				return fmt.Errorf("failed to delete match %s: %w", record.GetString("match_id"), err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}
