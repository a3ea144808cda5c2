package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	l, err := New(base, Options{Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Info("hidden")
	l.With("component", "TEST").Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record passed a warn filter: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "component=TEST") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, nil)
	path := filepath.Join(t.TempDir(), "logs", "fraglog.log")

	l, err := New(base, Options{Level: "info", FilePath: path, MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("match saved", "matchID", "42")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &rec); err != nil {
		t.Fatalf("file line is not JSON: %q", data)
	}
	if rec["msg"] != "match saved" || rec["matchID"] != "42" {
		t.Errorf("record = %v", rec)
	}
	if !strings.Contains(buf.String(), "match saved") {
		t.Error("primary handler did not receive the record")
	}
}

func TestShiftBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), 100), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".1", []byte("older"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := shiftBackups(path, 3); err != nil {
		t.Fatalf("shiftBackups() error = %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("current log should have been moved")
	}
	if b, _ := os.ReadFile(path + ".2"); string(b) != "older" {
		t.Errorf("backup .2 = %q, want older", b)
	}
	if info, err := os.Stat(path + ".1"); err != nil || info.Size() != 100 {
		t.Errorf("backup .1 missing or wrong size: %v", err)
	}
}

func TestRollingFileRollsWhenFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rf, err := openRollingFile(path, 64, 2)
	if err != nil {
		t.Fatal(err)
	}

	for _, c := range "abcd" {
		line := strings.Repeat(string(c), 39) + "\n"
		if _, err := rf.Write([]byte(line)); err != nil {
			t.Fatalf("Write(%c) error = %v", c, err)
		}
	}
	if err := rf.Close(); err != nil {
		t.Fatal(err)
	}

	tests := map[string]byte{"": 'd', ".1": 'c', ".2": 'b'}
	for suffix, want := range tests {
		b, err := os.ReadFile(path + suffix)
		if err != nil {
			t.Fatalf("read app.log%s: %v", suffix, err)
		}
		if len(b) != 40 || b[0] != want {
			t.Errorf("app.log%s = %q, want one line of %c", suffix, b, want)
		}
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Error("only two backups should be kept")
	}
	if _, err := rf.Write([]byte("late")); err == nil {
		t.Error("Write after Close should fail")
	}
}

func TestFanoutRespectsEachHandlersLevel(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	h := fanout{
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	}
	l := slog.New(h).With("component", "TEST")

	l.Info("routine")
	l.Error("broken")

	if !strings.Contains(debugBuf.String(), "routine") || !strings.Contains(debugBuf.String(), "broken") {
		t.Errorf("debug handler = %q", debugBuf.String())
	}
	if strings.Contains(errorBuf.String(), "routine") {
		t.Errorf("error handler received an info record: %q", errorBuf.String())
	}
	if !strings.Contains(errorBuf.String(), "component=TEST") {
		t.Errorf("attrs not passed through: %q", errorBuf.String())
	}
}
