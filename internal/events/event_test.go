package events

import (
	"encoding/json"
	"testing"
	"time"

	"fraglog/internal/match"
)

func TestEventTypeText(t *testing.T) {
	for _, et := range []EventType{EventMatchStart, EventMatchEnd, EventKill} {
		data, err := json.Marshal(et)
		if err != nil {
			t.Fatalf("Marshal(%v) error = %v", et, err)
		}

		var back EventType
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", data, err)
		}
		if back != et {
			t.Errorf("round trip of %s = %v", data, back)
		}
	}

	var bad EventType
	if err := json.Unmarshal([]byte(`"objective"`), &bad); err == nil {
		t.Error("expected error for unknown event type")
	}
	if EventType(42).String() != "unknown" {
		t.Errorf("String() of unknown type = %q", EventType(42).String())
	}
}

func TestConstructorsAndCount(t *testing.T) {
	ts := time.Date(2024, 4, 23, 15, 34, 22, 0, time.Local)
	kill := match.NewPlayerKill(ts.Add(time.Second), "Roman", "Nick", "M16")

	list := []LogEvent{
		NewMatchStart(1, ts, "11348965", false),
		NewKill(2, kill, "11348965", false),
		NewKill(3, kill, "", false),
		NewMatchEnd(4, ts.Add(time.Minute), "11348965", false),
	}

	if got := Count(list, EventKill); got != 2 {
		t.Errorf("Count(kill) = %d, want 2", got)
	}
	if got := Count(list, EventMatchStart); got != 1 {
		t.Errorf("Count(start) = %d, want 1", got)
	}

	if list[1].Kill == nil || list[1].Kill.KillerName != "Roman" {
		t.Fatalf("kill payload = %+v", list[1].Kill)
	}
	if !list[1].Timestamp.Equal(kill.Timestamp) {
		t.Errorf("kill timestamp = %v, want %v", list[1].Timestamp, kill.Timestamp)
	}
	if list[2].MatchID != "" {
		t.Errorf("kill outside a match should carry no match id, got %q", list[2].MatchID)
	}
}
