package logger

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	fileBufferSize = 8 << 10
	flushInterval  = 3 * time.Second
	defaultBackups = 5
)

// Logger is the application logger. Close flushes the file log, if any.
type Logger struct {
	*slog.Logger
	closer io.Closer
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options selects where application logs go besides PocketBase
type Options struct {
	Level      string
	FilePath   string // empty disables the file log
	MaxSizeMB  int    // 0 never rolls the file
	MaxBackups int
}

// New builds the application logger. Without a file path it is the PocketBase
// handler filtered by level; otherwise records are also written as JSON lines.
func New(pbHandler slog.Handler, opts Options) (*Logger, error) {
	level := ParseLevel(opts.Level)
	primary := &levelHandler{Handler: pbHandler, level: level}

	if opts.FilePath == "" {
		return &Logger{Logger: slog.New(primary)}, nil
	}

	file, err := openRollingFile(opts.FilePath, int64(opts.MaxSizeMB)<<20, opts.MaxBackups)
	if err != nil {
		return nil, err
	}
	jsonHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})

	return &Logger{
		Logger: slog.New(fanout{primary, jsonHandler}),
		closer: file,
	}, nil
}

// Close flushes and closes the file log
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// levelHandler drops records below a minimum level
type levelHandler struct {
	slog.Handler
	level slog.Level
}

func (h *levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.Handler.Enabled(ctx, level)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}

// fanout hands each record to every handler enabled for its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

// rollingFile is a buffered append-only log file. Once a write would push it
// past maxSize the file moves to path.1 and a fresh one is started.
type rollingFile struct {
	path    string
	maxSize int64
	backups int

	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	size int64

	stop     chan struct{}
	stopOnce sync.Once
	flushed  sync.WaitGroup
}

func openRollingFile(path string, maxSize int64, backups int) (*rollingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if backups <= 0 {
		backups = defaultBackups
	}

	rf := &rollingFile{path: path, maxSize: maxSize, backups: backups, stop: make(chan struct{})}
	if rf.full(0) {
		if err := shiftBackups(path, backups); err != nil {
			return nil, err
		}
	}
	if err := rf.reopen(); err != nil {
		return nil, err
	}

	rf.flushed.Add(1)
	go rf.flushLoop()
	return rf, nil
}

// full reports whether the file on disk cannot take n more bytes.
func (rf *rollingFile) full(n int64) bool {
	if rf.maxSize <= 0 {
		return false
	}
	size := rf.size
	if rf.file == nil {
		info, err := os.Stat(rf.path)
		if err != nil {
			return false
		}
		size = info.Size()
	}
	return size > 0 && size+n > rf.maxSize
}

func (rf *rollingFile) reopen() error {
	f, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	rf.file = f
	rf.size = info.Size()
	if rf.buf == nil {
		rf.buf = bufio.NewWriterSize(f, fileBufferSize)
	} else {
		rf.buf.Reset(f)
	}
	return nil
}

func (rf *rollingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return 0, fs.ErrClosed
	}
	if rf.full(int64(len(p))) {
		if err := rf.roll(); err != nil {
			return 0, err
		}
	}
	n, err := rf.buf.Write(p)
	rf.size += int64(n)
	return n, err
}

// roll must be called with mu held.
func (rf *rollingFile) roll() error {
	err := errors.Join(rf.buf.Flush(), rf.file.Close())
	rf.file = nil
	if err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	if err := shiftBackups(rf.path, rf.backups); err != nil {
		return err
	}
	return rf.reopen()
}

func (rf *rollingFile) flushLoop() {
	defer rf.flushed.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rf.mu.Lock()
			if rf.file != nil {
				rf.buf.Flush()
			}
			rf.mu.Unlock()
		case <-rf.stop:
			return
		}
	}
}

func (rf *rollingFile) Close() error {
	rf.stopOnce.Do(func() { close(rf.stop) })
	rf.flushed.Wait()

	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.file == nil {
		return nil
	}
	err := errors.Join(rf.buf.Flush(), rf.file.Sync(), rf.file.Close())
	rf.file = nil
	return err
}

// shiftBackups moves path to path.1, bumping each path.N to path.N+1.
// Anything beyond path.keep is overwritten.
func shiftBackups(path string, keep int) error {
	for i := keep - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.%d", path, i)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, fmt.Sprintf("%s.%d", path, i+1)); err != nil {
			return fmt.Errorf("failed to shift log backup: %w", err)
		}
	}
	if err := os.Rename(path, path+".1"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return nil
}
