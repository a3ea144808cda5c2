package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"fraglog/internal/config"

	"github.com/pocketbase/pocketbase/tests"
)

type fakePruner struct {
	cutoff  time.Time
	deleted int
	err     error
}

func (p *fakePruner) DeleteEndedBefore(_ context.Context, cutoff time.Time) (int, error) {
	p.cutoff = cutoff
	return p.deleted, p.err
}

func TestPruneOldMatches(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	now := time.Date(2024, 3, 31, 2, 0, 0, 0, time.UTC)

	p := &fakePruner{deleted: 3}
	n, err := PruneOldMatches(context.Background(), p, 30*24*time.Hour, now, logger)
	if err != nil {
		t.Fatalf("PruneOldMatches() error = %v", err)
	}
	if n != 3 {
		t.Errorf("deleted = %d, want 3", n)
	}
	if want := time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC); !p.cutoff.Equal(want) {
		t.Errorf("cutoff = %v, want %v", p.cutoff, want)
	}

	boom := errors.New("boom")
	p = &fakePruner{err: boom}
	if _, err := PruneOldMatches(context.Background(), p, time.Hour, now, logger); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestRegisterRetention(t *testing.T) {
	app, err := tests.NewTestApp(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create test app: %v", err)
	}
	defer app.Cleanup()

	logger := slog.New(slog.DiscardHandler)

	cases := []struct {
		name string
		cfg  config.RetentionConfig
		want bool
	}{
		{"disabled", config.RetentionConfig{Days: 0, Schedule: "0 2 * * *"}, false},
		{"enabled", config.RetentionConfig{Days: 30, Schedule: "0 2 * * *"}, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := RegisterRetention(app, &fakePruner{}, tt.cfg, logger); got != tt.want {
				t.Errorf("RegisterRetention() = %v, want %v", got, tt.want)
			}

			found := false
			for _, job := range app.Cron().Jobs() {
				if job.Id() == RetentionJobID {
					found = true
				}
			}
			if found != tt.want {
				t.Errorf("job registered = %v, want %v", found, tt.want)
			}
		})
	}
}
