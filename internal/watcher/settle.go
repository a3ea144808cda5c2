package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// settler debounces file events per path. A path fires once it has been quiet
// for the settle window, or after maxWait if it keeps changing.
type settler struct {
	logger  *slog.Logger
	window  time.Duration
	maxWait time.Duration
	fire    func(path string)

	mu             sync.Mutex
	timers         map[string]*time.Timer
	firstTriggerAt map[string]time.Time
	stopped        bool
}

func newSettler(window, maxWait time.Duration, logger *slog.Logger, fire func(string)) *settler {
	return &settler{
		logger:         logger,
		window:         window,
		maxWait:        maxWait,
		fire:           fire,
		timers:         make(map[string]*time.Timer),
		firstTriggerAt: make(map[string]time.Time),
	}
}

// Trigger records a change to path
func (s *settler) Trigger(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	now := time.Now()
	first, exists := s.firstTriggerAt[path]
	if !exists {
		s.firstTriggerAt[path] = now
		first = now
	}

	if timer, exists := s.timers[path]; exists {
		timer.Stop()
	}

	wait := s.window
	if since := now.Sub(first); since+wait > s.maxWait {
		wait = max(s.maxWait-since, 0)
		s.logger.Debug("File still changing, forcing replay", "path", path, "since", since)
	}

	s.timers[path] = time.AfterFunc(wait, func() {
		s.mu.Lock()
		delete(s.timers, path)
		delete(s.firstTriggerAt, path)
		stopped := s.stopped
		s.mu.Unlock()

		if !stopped {
			s.fire(path)
		}
	})
}

// Pending returns the number of paths waiting to settle
func (s *settler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all pending paths
func (s *settler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for path, timer := range s.timers {
		timer.Stop()
		s.logger.Debug("Dropped pending file", "path", path)
	}
	s.timers = make(map[string]*time.Timer)
	s.firstTriggerAt = make(map[string]time.Time)
}
