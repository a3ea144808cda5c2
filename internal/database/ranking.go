package database

import (
	"context"
	"fmt"

	"fraglog/internal/match"
	"fraglog/internal/stats"
)

// GlobalRanking returns per-player totals over every stored match, best score first
func (s *MatchStore) GlobalRanking(ctx context.Context) ([]stats.GlobalEntry, error) {
	type rankingRow struct {
		Name          string `db:"player_name"`
		Frags         int    `db:"total_frags"`
		Deaths        int    `db:"total_deaths"`
		FriendlyKills int    `db:"total_friendly_kills"`
		Matches       int    `db:"matches_played"`
		Wins          int    `db:"wins"`
		Score         int    `db:"total_score"`
	}

	var rows []rankingRow

	err := s.app.DB().
		NewQuery(`
			SELECT
				player_name,
				total_frags,
				total_deaths,
				total_friendly_kills,
				matches_played,
				wins,
				total_score
			FROM player_global_ranking
			ORDER BY total_score DESC, total_frags DESC, player_name ASC
		`).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to query global ranking: %w", err)
	}

	out := make([]stats.GlobalEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, stats.GlobalEntry{
			Name:          row.Name,
			Frags:         row.Frags,
			Deaths:        row.Deaths,
			FriendlyKills: row.FriendlyKills,
			Matches:       row.Matches,
			Wins:          row.Wins,
			Score:         row.Score,
			KD:            match.KD(row.Frags, row.Deaths),
		})
	}

	return out, nil
}

// PlayerTotals returns the global entry of a single player
func (s *MatchStore) PlayerTotals(ctx context.Context, name string) (*stats.GlobalEntry, error) {
	entries, err := s.GlobalRanking(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == name {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("no stored matches for player %s", name)
}
