package validator

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"fraglog/internal/parser"
)

func validate(lines ...string) error {
	return Validate(parser.ParseLog(strings.Join(lines, "\n")))
}

func kindOf(t *testing.T, err error) *ValidationError {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	return ve
}

func TestValidateAcceptsWellFormedLog(t *testing.T) {
	err := validate(
		"01/01/2024 10:00:00 - New match 1 has started",
		"01/01/2024 10:00:10 - A killed B using AK47",
		"01/01/2024 10:01:00 - Match 1 has ended",
		"01/01/2024 11:00:00 - New match 2 has started with teams",
		"01/01/2024 11:00:10 - [T1]A killed [T2]B using AK47",
		"01/01/2024 11:00:20 - <WORLD> killed [T1]A by FALL",
		"01/01/2024 11:01:00 - Match 2 has ended with teams",
	)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		kind     Kind
		matchIDs []string
	}{
		{
			name:  "format errors",
			lines: []string{"01/01/2024 10:00:00 - New match 1 has started", "01/13/2024 10:00:00 - Match 1 has ended"},
			kind:  KindFormatErrors,
		},
		{
			name:  "empty log",
			lines: []string{"", "just some text"},
			kind:  KindNoEntries,
		},
		{
			name:  "kills only",
			lines: []string{"01/01/2024 10:00:10 - A killed B using AK47"},
			kind:  KindNoMatches,
		},
		{
			name:     "missing end",
			lines:    []string{"01/01/2024 10:00:00 - New match 1 has started", "01/01/2024 10:00:10 - A killed B using AK47"},
			kind:     KindIncompleteMatch,
			matchIDs: []string{"1"},
		},
		{
			name: "abandoned match",
			lines: []string{
				"01/01/2024 10:00:00 - New match 1 has started",
				"01/01/2024 10:00:30 - New match 2 has started",
				"01/01/2024 10:01:00 - Match 2 has ended",
				"01/01/2024 10:02:00 - Match 1 has ended",
			},
			kind:     KindIncompleteMatch,
			matchIDs: []string{"1"},
		},
		{
			name: "id reopened and left open",
			lines: []string{
				"01/01/2024 10:00:00 - New match 1 has started",
				"01/01/2024 10:00:10 - A killed B using AK47",
				"01/01/2024 10:01:00 - Match 1 has ended",
				"01/01/2024 10:02:00 - New match 1 has started",
				"01/01/2024 10:02:10 - C killed D using AK47",
			},
			kind:     KindIncompleteMatch,
			matchIDs: []string{"1"},
		},
		{
			name: "id restarted while open",
			lines: []string{
				"01/01/2024 10:00:00 - New match 1 has started",
				"01/01/2024 10:00:10 - A killed B using AK47",
				"01/01/2024 10:00:20 - New match 1 has started",
				"01/01/2024 10:01:00 - Match 1 has ended",
			},
			kind:     KindIncompleteMatch,
			matchIDs: []string{"1"},
		},
		{
			name: "orphan end",
			lines: []string{
				"01/01/2024 10:00:00 - New match 1 has started",
				"01/01/2024 10:01:00 - Match 1 has ended",
				"01/01/2024 10:02:00 - Match 3 has ended",
			},
			kind:     KindOrphanEnd,
			matchIDs: []string{"3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := kindOf(t, validate(tt.lines...))
			if ve.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s (%s)", ve.Kind, tt.kind, ve.Message)
			}
			if tt.matchIDs != nil && !slices.Equal(ve.MatchIDs, tt.matchIDs) {
				t.Errorf("match ids = %v, want %v", ve.MatchIDs, tt.matchIDs)
			}
			if ve.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestValidateReportsAtMostThreeDiagnostics(t *testing.T) {
	ve := kindOf(t, validate(
		"01/01/2024 10:00:00 - New match 1 has started",
		"01/01/2024 10:00:01 - bad one",
		"01/01/2024 10:00:02 - bad two",
		"01/01/2024 10:00:03 - bad three",
		"01/01/2024 10:00:04 - bad four",
		"01/01/2024 10:01:00 - Match 1 has ended",
	))

	if ve.Kind != KindFormatErrors {
		t.Fatalf("kind = %s", ve.Kind)
	}
	if len(ve.Diagnostics) != 3 || ve.Remaining != 1 {
		t.Errorf("diagnostics = %d remaining = %d, want 3 and 1", len(ve.Diagnostics), ve.Remaining)
	}
	if !strings.Contains(ve.Message, "line 2:") || strings.Contains(ve.Message, "bad four") {
		t.Errorf("message = %q", ve.Message)
	}
}

func TestValidateMissingTeamPrefix(t *testing.T) {
	ve := kindOf(t, validate(
		"01/01/2024 10:00:00 - New match 1 has started with teams",
		"01/01/2024 10:00:10 - [T1]A killed [T2]B using AK47",
		"01/01/2024 10:00:20 - [T1]A killed Nick using AK47",
		"01/01/2024 10:01:00 - Match 1 has ended with teams",
	))

	if ve.Kind != KindMissingTeamPrefix {
		t.Fatalf("kind = %s", ve.Kind)
	}
	if !slices.Equal(ve.Names, []string{"Nick"}) || ve.Remaining != 0 {
		t.Errorf("names = %v remaining = %d", ve.Names, ve.Remaining)
	}
}

func TestValidateMissingTeamPrefixTruncates(t *testing.T) {
	lines := []string{"01/01/2024 10:00:00 - New match 1 has started with teams"}
	for _, n := range []string{"P1", "P2", "P3", "P4", "P5", "P6", "P7"} {
		lines = append(lines, "01/01/2024 10:00:10 - [T1]A killed "+n+" using AK47")
	}
	lines = append(lines, "01/01/2024 10:01:00 - Match 1 has ended with teams")

	ve := kindOf(t, validate(lines...))
	if len(ve.Names) != 5 || ve.Remaining != 2 {
		t.Errorf("names = %v remaining = %d, want 5 and 2", ve.Names, ve.Remaining)
	}
	if !strings.HasSuffix(ve.Message, "and 2 more") {
		t.Errorf("message = %q", ve.Message)
	}
}

func TestValidateTooManyTeams(t *testing.T) {
	ve := kindOf(t, validate(
		"01/01/2024 10:00:00 - New match 7 has started with teams",
		"01/01/2024 10:00:10 - [T1]A killed [T2]B using AK47",
		"01/01/2024 10:00:20 - [T1]A killed [B2]Nick using AK47",
		"01/01/2024 10:01:00 - Match 7 has ended with teams",
	))

	if ve.Kind != KindTooManyTeams {
		t.Fatalf("kind = %s", ve.Kind)
	}
	if !slices.Equal(ve.MatchIDs, []string{"7"}) || !slices.Equal(ve.Names, []string{"T1", "T2", "B2"}) {
		t.Errorf("match ids = %v names = %v", ve.MatchIDs, ve.Names)
	}
}

func TestValidateTeamCountIsPerMatch(t *testing.T) {
	err := validate(
		"01/01/2024 10:00:00 - New match 1 has started with teams",
		"01/01/2024 10:00:10 - [T1]A killed [T2]B using AK47",
		"01/01/2024 10:01:00 - Match 1 has ended with teams",
		"01/01/2024 10:02:00 - New match 1 has started with teams",
		"01/01/2024 10:02:10 - [R1]A killed [B2]B using AK47",
		"01/01/2024 10:02:20 - <WORLD> killed [R1]C by FALL",
		"01/01/2024 10:03:00 - Match 1 has ended with teams",
	)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateIgnoresPrefixesOutsideTeamMatches(t *testing.T) {
	err := validate(
		"01/01/2024 10:00:00 - New match 1 has started",
		"01/01/2024 10:00:10 - A killed B using AK47",
		"01/01/2024 10:01:00 - Match 1 has ended",
	)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
