package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"fraglog/internal/match"
	"fraglog/internal/parser"
	"fraglog/internal/stats"
	"fraglog/internal/validator"
)

// Saver stores finalized matches in one go
type Saver interface {
	SaveMany(ctx context.Context, matches []*match.Match) error
}

// MatchResult is the final ranking and awards of one imported match
type MatchResult struct {
	Ranking    stats.Ranking     `json:"ranking"`
	Highlights []stats.Highlight `json:"highlights"`
}

// Result summarizes an import
type Result struct {
	Lines   int           `json:"lines"`
	Events  int           `json:"events"`
	Matches []MatchResult `json:"matches"`
}

// Loader imports whole logs without pacing: parse, validate, store, report
type Loader struct {
	store  Saver
	parser *parser.LogParser
	logger *slog.Logger
}

// New creates a loader. store may be nil for a dry run.
func New(store Saver, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		store:  store,
		parser: parser.NewLogParser(),
		logger: logger.With("component", "LOG_LOADER"),
	}
}

// ImportFile loads a log file from disk
func (l *Loader) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	session, err := l.parser.ParseReader(f)
	if err != nil {
		return nil, err
	}

	res, err := l.load(ctx, session)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Log file loaded successfully", "path", path, "matches", len(res.Matches))
	return res, nil
}

// Import loads a log held in memory
func (l *Loader) Import(ctx context.Context, content string) (*Result, error) {
	return l.load(ctx, l.parser.ParseLog(content))
}

func (l *Loader) load(ctx context.Context, session *parser.Session) (*Result, error) {
	if err := validator.Validate(session); err != nil {
		return nil, err
	}

	if l.store != nil {
		if err := l.store.SaveMany(ctx, session.Matches); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Lines:   session.Lines,
		Events:  len(session.Events),
		Matches: make([]MatchResult, 0, len(session.Matches)),
	}
	for _, m := range session.Matches {
		res.Matches = append(res.Matches, MatchResult{
			Ranking:    stats.Rank(m),
			Highlights: stats.BuildHighlights(m).Items(),
		})
	}

	l.logger.Debug("Imported log", "lines", res.Lines, "events", res.Events, "matches", len(res.Matches))
	return res, nil
}
