package loader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fraglog/internal/match"
	"fraglog/internal/validator"
)

type memoryStore struct {
	saved [][]*match.Match
	err   error
}

func (m *memoryStore) SaveMany(_ context.Context, matches []*match.Match) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, matches)
	return nil
}

const sampleLog = `01/01/2024 10:00:00 - New match 1 has started
01/01/2024 10:00:10 - A killed B using AK47
01/01/2024 10:00:20 - A killed B using AK47
01/01/2024 10:01:00 - Match 1 has ended
01/01/2024 11:00:00 - New match 2 has started
01/01/2024 11:00:10 - B killed A using M16
01/01/2024 11:01:00 - Match 2 has ended
`

func TestImport(t *testing.T) {
	store := &memoryStore{}
	res, err := New(store, nil).Import(context.Background(), sampleLog)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if len(res.Matches) != 2 || res.Events != 7 {
		t.Fatalf("result = %+v", res)
	}
	if len(store.saved) != 1 || len(store.saved[0]) != 2 {
		t.Errorf("SaveMany calls = %v", store.saved)
	}

	first := res.Matches[0]
	if first.Ranking.MatchID != "1" || first.Ranking.Entries[0].Base().Name != "A" {
		t.Errorf("first ranking = %+v", first.Ranking)
	}
	if len(first.Highlights) == 0 || first.Highlights[0].Description != "AK47 (2 kills)" {
		t.Errorf("first highlights = %+v", first.Highlights)
	}
}

func TestImportRejectsInvalidLog(t *testing.T) {
	store := &memoryStore{}
	_, err := New(store, nil).Import(context.Background(), "01/01/2024 10:00:00 - New match 1 has started\n")

	var ve *validator.ValidationError
	if !errors.As(err, &ve) || ve.Kind != validator.KindIncompleteMatch {
		t.Fatalf("error = %v, want incomplete match", err)
	}
	if len(store.saved) != 0 {
		t.Error("nothing may be stored for an invalid log")
	}
}

func TestImportStoreError(t *testing.T) {
	boom := errors.New("locked")
	_, err := New(&memoryStore{err: boom}, nil).Import(context.Background(), sampleLog)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want store error", err)
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.log")
	if err := os.WriteFile(path, []byte(strings.ReplaceAll(sampleLog, "\n", "\r\n")), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := New(nil, nil).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile() error = %v", err)
	}
	if len(res.Matches) != 2 {
		t.Errorf("matches = %d, want 2", len(res.Matches))
	}

	if _, err := New(nil, nil).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("missing file should fail")
	}
}
