// Package replay plays a parsed log back to an observer at a chosen pace.
package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"fraglog/internal/events"
	"fraglog/internal/match"
	"fraglog/internal/parser"
	"fraglog/internal/stats"
	"fraglog/internal/validator"
)

// State of a replay session
type State int

const (
	StateIdle State = iota
	StateValidating
	StateReplaying
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateReplaying:
		return "replaying"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Summary describes a finished replay
type Summary struct {
	TotalEvents int
	MatchIDs    []string
	Skipped     bool
}

// Session replays one log at a time for a single observer.
// Sessions share nothing but the store.
type Session struct {
	id      string
	store   Store
	emitter Emitter
	parser  *parser.LogParser
	logger  *slog.Logger

	mu    sync.Mutex
	state State

	skip atomic.Bool
	wake chan struct{}
}

// NewSession creates an idle session. store may be nil when results are not persisted.
func NewSession(id string, store Store, emitter Emitter, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:      id,
		store:   store,
		emitter: emitter,
		parser:  parser.NewLogParser(),
		logger:  logger.With("component", "REPLAY", "session", id),
		wake:    make(chan struct{}, 1),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Skip collapses every remaining pacing wait of the running replay,
// including one already in progress. Match results are still emitted.
func (s *Session) Skip() {
	s.skip.Store(true)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Session) skipping() bool {
	return s.skip.Load()
}

func (s *Session) resetSkip() {
	s.skip.Store(false)
	select {
	case <-s.wake:
	default:
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// begin moves the session into Validating unless a replay is running.
// A skip left over from before the run is cleared here, so any Skip after
// begin returns applies to the new run.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateValidating || s.state == StateReplaying {
		return ErrSessionBusy
	}
	s.state = StateValidating
	s.resetSkip()
	return nil
}

// ProcessLog parses, validates and replays content. Between events it waits
// delay unless the session is skipping. Validation failures are emitted as a
// Failed signal and also returned as *validator.ValidationError.
func (s *Session) ProcessLog(ctx context.Context, content string, delay time.Duration) (*Summary, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	return s.run(ctx, content, delay)
}

// Start claims the session and runs ProcessLog in a new goroutine, calling
// done with its result. The session is busy as soon as Start returns, so a
// Skip issued right after it applies to this run.
func (s *Session) Start(ctx context.Context, content string, delay time.Duration, done func(*Summary, error)) error {
	if err := s.begin(); err != nil {
		return err
	}
	go func() {
		summary, err := s.run(ctx, content, delay)
		if done != nil {
			done(summary, err)
		}
	}()
	return nil
}

// run validates and replays content on a claimed session, then releases it
func (s *Session) run(ctx context.Context, content string, delay time.Duration) (*Summary, error) {
	summary, final, err := s.execute(ctx, content, delay)

	// skip is cleared before the session is released so a Skip aimed at the
	// next run cannot be lost
	s.mu.Lock()
	s.resetSkip()
	s.state = final
	s.mu.Unlock()

	return summary, err
}

func (s *Session) execute(ctx context.Context, content string, delay time.Duration) (*Summary, State, error) {
	parsed := s.parser.ParseLog(content)
	if err := validator.Validate(parsed); err != nil {
		s.logger.Info("Log rejected", "error", err, "lines", parsed.Lines)

		failed := Failed{Message: err.Error()}
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			failed.Reason = ve.Kind
		}
		if emitErr := s.emit(ctx, failed); emitErr != nil {
			return nil, StateFailed, errors.Join(err, emitErr)
		}
		return nil, StateFailed, err
	}

	s.setState(StateReplaying)
	s.logger.Info("Log validated", "events", len(parsed.Events), "matches", len(parsed.Matches))

	summary, err := s.replay(ctx, parsed.Events, delay)
	if err != nil {
		return summary, StateIdle, err
	}
	return summary, StateCompleted, nil
}

func (s *Session) replay(ctx context.Context, list []events.LogEvent, delay time.Duration) (*Summary, error) {
	total := len(list)
	summary := &Summary{TotalEvents: total}

	if err := s.emit(ctx, Validated{TotalEvents: total}); err != nil {
		return summary, err
	}

	var current *match.Match

	for i, e := range list {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		eventNumber := i + 1

		switch e.Type {
		case events.EventMatchStart:
			current = match.New(e.MatchID, e.Timestamp, e.HasTeams)
			if !s.skipping() {
				err := s.emit(ctx, Snapshot{
					MatchID:      current.ID,
					EventNumber:  eventNumber,
					TotalEvents:  total,
					HasTeams:     current.HasTeams,
					Ranking:      []stats.Entry{},
					MatchStarted: true,
				})
				if err != nil {
					return summary, err
				}
			}

		case events.EventKill:
			if current == nil || current.Closed() || e.MatchID != current.ID {
				// Kill outside any match: nothing to apply
				continue
			}
			if err := current.Apply(*e.Kill); err != nil {
				return summary, err
			}
			if !s.skipping() {
				err := s.emit(ctx, Snapshot{
					MatchID:     current.ID,
					EventNumber: eventNumber,
					TotalEvents: total,
					HasTeams:    current.HasTeams,
					Ranking:     stats.Rank(current).Entries,
					LastEvent:   newLastEvent(*e.Kill),
				})
				if err != nil {
					return summary, err
				}
			}

		case events.EventMatchEnd:
			if current == nil || current.Closed() || e.MatchID != current.ID {
				continue
			}
			if err := s.finalize(ctx, current, e.Timestamp); err != nil {
				return summary, err
			}
			summary.MatchIDs = append(summary.MatchIDs, current.ID)
		}

		if eventNumber < total {
			if err := s.wait(ctx, delay); err != nil {
				return summary, err
			}
		}
	}

	summary.Skipped = s.skipping()
	if err := s.emit(ctx, Complete{TotalMatches: len(summary.MatchIDs)}); err != nil {
		return summary, err
	}

	s.logger.Info("Replay complete", "matches", len(summary.MatchIDs), "skipped", summary.Skipped)
	return summary, nil
}

// finalize closes the match, persists it and emits its result
func (s *Session) finalize(ctx context.Context, m *match.Match, endedAt time.Time) error {
	if err := m.End(endedAt); err != nil {
		return err
	}

	ranking := stats.Rank(m)
	highlights := stats.BuildHighlights(m)

	if s.store != nil {
		if err := s.store.Save(ctx, m); err != nil {
			s.logger.Error("Failed to persist match", "matchID", m.ID, "error", err)
			return &FaultError{MatchID: m.ID, Err: err}
		}
	}

	s.logger.Debug("Match finalized", "matchID", m.ID, "players", len(ranking.Entries))

	return s.emit(ctx, MatchComplete{
		MatchID:    m.ID,
		HasTeams:   m.HasTeams,
		Ranking:    ranking,
		Highlights: highlights.Items(),
	})
}

// wait suspends for delay. It returns early on skip and fails on cancellation.
func (s *Session) wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 || s.skipping() {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-s.wake:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Session) emit(ctx context.Context, sig Signal) error {
	if s.emitter == nil {
		return nil
	}
	if err := s.emitter.Emit(ctx, sig); err != nil {
		return fmt.Errorf("failed to emit %s: %w", sig.Kind(), err)
	}
	return nil
}
