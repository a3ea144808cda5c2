package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fraglog/internal/parser"
	"fraglog/internal/replay"
	"fraglog/internal/stats"
)

// printer renders replay signals as text for the replay command
type printer struct {
	out io.Writer
}

func (p *printer) Emit(_ context.Context, sig replay.Signal) error {
	switch s := sig.(type) {
	case replay.Validated:
		fmt.Fprintf(p.out, "Log accepted: %d events\n", s.TotalEvents)
	case replay.Failed:
		fmt.Fprintf(p.out, "Log rejected (%s): %s\n", s.Reason, s.Message)
	case replay.Snapshot:
		p.snapshot(s)
	case replay.MatchComplete:
		p.matchComplete(s)
	case replay.Complete:
		fmt.Fprintf(p.out, "Replay finished: %d matches\n", s.TotalMatches)
	}
	return nil
}

func (p *printer) snapshot(s replay.Snapshot) {
	prefix := fmt.Sprintf("[%d/%d] match %s", s.EventNumber, s.TotalEvents, s.MatchID)
	switch {
	case s.MatchStarted:
		mode := ""
		if s.HasTeams {
			mode = " (teams)"
		}
		fmt.Fprintf(p.out, "%s started%s\n", prefix, mode)
	case s.LastEvent != nil:
		e := s.LastEvent
		note := ""
		if e.IsFriendlyFire {
			note = " [friendly fire]"
		}
		fmt.Fprintf(p.out, "%s %s: %s killed %s using %s%s\n", prefix, parser.FormatTimestamp(e.Timestamp), e.Killer, e.Victim, e.Weapon, note)
	}
}

func (p *printer) matchComplete(s replay.MatchComplete) {
	fmt.Fprintf(p.out, "\nMatch %s results\n", s.MatchID)
	writeRanking(p.out, s.Ranking)
	for _, h := range s.Highlights {
		fmt.Fprintf(p.out, "  %s: %s\n", h.Title, h.Description)
	}
	fmt.Fprintln(p.out)
}

func writeRanking(out io.Writer, r stats.Ranking) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if r.HasTeams {
		fmt.Fprintln(tw, "  #\tPLAYER\tTEAM\tFRAGS\tDEATHS\tK/D\tFF\tSCORE")
	} else {
		fmt.Fprintln(tw, "  #\tPLAYER\tFRAGS\tDEATHS\tK/D")
	}

	for _, entry := range r.Entries {
		switch e := entry.(type) {
		case stats.TeamEntry:
			fmt.Fprintf(tw, "  %d\t%s%s\t%s\t%d\t%d\t%.2f\t%d\t%d\n",
				e.Position, e.Name, winnerMark(e.IsWinner), e.Team, e.Frags, e.Deaths, e.KD, e.FriendlyKills, e.Score)
		case stats.StandardEntry:
			fmt.Fprintf(tw, "  %d\t%s%s\t%d\t%d\t%.2f\n",
				e.Position, e.Name, winnerMark(e.IsWinner), e.Frags, e.Deaths, e.KD)
		}
	}
	tw.Flush()
}

func writeGlobalRanking(out io.Writer, entries []stats.GlobalEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matches stored yet")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join([]string{"#", "PLAYER", "SCORE", "FRAGS", "DEATHS", "K/D", "MATCHES", "WINS"}, "\t"))
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%.2f\t%d\t%d\n",
			i+1, e.Name, e.Score, e.Frags, e.Deaths, e.KD, e.Matches, e.Wins)
	}
	tw.Flush()
}

func winnerMark(winner bool) string {
	if winner {
		return " *"
	}
	return ""
}
