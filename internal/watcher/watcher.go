package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fraglog/internal/replay"
	"fraglog/internal/validator"

	"github.com/fsnotify/fsnotify"
)

// Result describes one replayed inbox file
type Result struct {
	Path     string
	MatchIDs []string
	Err      error
}

// Watcher replays .log files dropped into an inbox directory
type Watcher struct {
	watcher *fsnotify.Watcher
	store   replay.Store
	logger  *slog.Logger
	settle  *settler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	queue chan string

	mu       sync.Mutex
	seen     map[string]fileStamp // path -> stamp of the last replayed version
	onResult func(Result)
	stopOnce sync.Once
}

type fileStamp struct {
	size    int64
	modTime time.Time
}

// NewWatcher creates an inbox watcher. Files are replayed without pacing once
// they have not changed for settle.
func NewWatcher(store replay.Store, settle time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "INBOX_WATCHER")

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		watcher: fsw,
		store:   store,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan string, 100),
		seen:    make(map[string]fileStamp),
	}
	w.settle = newSettler(settle, 10*settle+time.Second, logger, w.enqueue)

	return w, nil
}

// OnResult sets a callback run after every replayed file
func (w *Watcher) OnResult(fn func(Result)) {
	w.mu.Lock()
	w.onResult = fn
	w.mu.Unlock()
}

// AddPath watches a directory and queues the .log files already in it
func (w *Watcher) AddPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for %s: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("path %s does not exist: %w", absPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inbox %s is not a directory", absPath)
	}

	if err := w.watcher.Add(absPath); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", absPath, err)
	}
	w.logger.Info("Watching inbox", "path", absPath)

	files, err := os.ReadDir(absPath)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", absPath, err)
	}
	for _, file := range files {
		if !file.IsDir() && isLogFile(file.Name()) {
			w.settle.Trigger(filepath.Join(absPath, file.Name()))
		}
	}
	return nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	w.wg.Add(2)
	go w.watchLoop()
	go w.worker()
}

// Stop stops the watcher and waits for the current replay to finish
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.settle.Stop()
		w.cancel()
		w.wg.Wait()
		w.watcher.Close()
	})
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFileEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleFileEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		if isLogFile(filepath.Base(event.Name)) {
			w.settle.Trigger(event.Name)
		}
	}
}

// enqueue hands a settled file to the worker without blocking the timer
func (w *Watcher) enqueue(path string) {
	select {
	case w.queue <- path:
	case <-w.ctx.Done():
	default:
		w.logger.Warn("Queue full, dropping file", "path", path)
	}
}

// worker replays files one at a time
func (w *Watcher) worker() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case path := <-w.queue:
			res, ok := w.processFile(path)
			if !ok {
				continue
			}

			w.mu.Lock()
			fn := w.onResult
			w.mu.Unlock()
			if fn != nil {
				fn(res)
			}
		}
	}
}

// processFile replays path unless this exact version was already replayed
func (w *Watcher) processFile(path string) (Result, bool) {
	info, err := os.Stat(path)
	if err != nil {
		// removed before it settled
		w.logger.Debug("Skipping vanished file", "path", path, "error", err)
		return Result{}, false
	}

	stamp := fileStamp{size: info.Size(), modTime: info.ModTime()}
	w.mu.Lock()
	last, exists := w.seen[path]
	w.mu.Unlock()
	if exists && last == stamp {
		return Result{}, false
	}

	res := Result{Path: path}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		w.logger.Error("Failed to read inbox file", "path", path, "error", err)
		return res, true
	}

	name := filepath.Base(path)
	session := replay.NewSession("inbox:"+name, w.store, replay.EmitterFunc(w.logSignal(name)), w.logger)
	summary, err := session.ProcessLog(w.ctx, string(content), 0)
	if summary != nil {
		res.MatchIDs = summary.MatchIDs
	}

	var ve *validator.ValidationError
	switch {
	case err == nil:
		w.logger.Info("Replayed inbox file", "file", name, "matches", len(res.MatchIDs))
	case errors.As(err, &ve):
		w.logger.Warn("Rejected inbox file", "file", name, "reason", ve.Kind)
	case errors.Is(err, context.Canceled):
		return res, false
	default:
		w.logger.Error("Inbox replay failed", "file", name, "error", err)
	}
	res.Err = err

	// a transient store failure should be retried on the next change
	if err == nil || ve != nil {
		w.mu.Lock()
		w.seen[path] = stamp
		w.mu.Unlock()
	}

	return res, true
}

func (w *Watcher) logSignal(file string) func(context.Context, replay.Signal) error {
	return func(_ context.Context, sig replay.Signal) error {
		switch s := sig.(type) {
		case replay.MatchComplete:
			winner := ""
			if entry, ok := s.Ranking.Winner(); ok {
				winner = entry.Base().Name
			}
			w.logger.Info("Match complete", "file", file, "matchID", s.MatchID, "players", len(s.Ranking.Entries), "winner", winner)
		case replay.Failed:
			w.logger.Debug("Validation failed", "file", file, "reason", s.Reason, "message", s.Message)
		}
		return nil
	}
}

func isLogFile(name string) bool {
	return strings.HasSuffix(name, ".log") && !strings.HasPrefix(name, ".")
}
