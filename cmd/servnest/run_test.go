package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/servnest/servnest"
)

func TestEventRingRecent(t *testing.T) {
	r := newEventRing(4)
	for i := 0; i < 6; i++ {
		r.Add(servnest.Event{Text: fmt.Sprintf("line %d", i)})
	}
	got := r.Recent(0)
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	if got[0].Text != "line 2" || got[3].Text != "line 5" {
		t.Fatalf("unexpected window: %q .. %q", got[0].Text, got[3].Text)
	}
	last := r.Recent(2)
	if len(last) != 2 || last[1].Text != "line 5" {
		t.Fatalf("unexpected tail: %+v", last)
	}
}

func TestEventRingEmpty(t *testing.T) {
	r := newEventRing(8)
	if got := r.Recent(5); len(got) != 0 {
		t.Fatalf("expected no events, got %d", len(got))
	}
}

func TestRenderLineColorsBySeverity(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	line := renderLine(at, "boom", servnest.SevError)
	if !strings.Contains(line, ansiRed) || !strings.Contains(line, "boom") {
		t.Fatalf("error line not rendered in red: %q", line)
	}
	if !strings.Contains(line, "09:30:00") {
		t.Fatalf("timestamp missing: %q", line)
	}
	plain := renderLine(at, "hello", servnest.SevInfo)
	if strings.Contains(strings.TrimPrefix(plain, ansiGray), ansiRed) {
		t.Fatalf("info line should be uncolored: %q", plain)
	}
}

func TestBuildRootCommands(t *testing.T) {
	root := buildRoot()
	want := map[string]bool{"run": false, "status": false, "stop": false, "events": false}
	for _, c := range root.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("missing %s command", name)
		}
	}
}
