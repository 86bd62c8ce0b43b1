package repl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestHistory_WriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	h := NewHistory(path)

	if err := h.Load(); err != nil {
		t.Fatalf("Load() of missing file: %v", err)
	}

	writes := []HistoryEntry{
		{`add "a"`, modeBuild},
		{"show", modeCtrl},
		{`add "a"`, modeBuild}, // moves to the end
		{"show", modeCtrl},
		{"show", modeCtrl}, // repeats are ignored
		{"add", modeCtrl},  // same line, other mode
		{"  ", modeBuild},  // blank lines are ignored
	}

	for _, w := range writes {
		if _, err := h.Write(w.Line, w.Mode); err != nil {
			t.Fatalf("Write(%q) error: %v", w.Line, err)
		}
	}

	want := []HistoryEntry{
		{`add "a"`, modeBuild},
		{"show", modeCtrl},
		{"add", modeCtrl},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	reloaded := NewHistory(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if diff := cmp.Diff(want, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded Entries() mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := string(data); got != "B:add \"a\"\nC:show\nC:add\n" {
		t.Errorf("history file = %q", got)
	}
}

func TestHistory_LegacyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)
	if err := os.WriteFile(path, []byte("indent\n\nC:undo\nB:end\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	want := []HistoryEntry{
		{"indent", modeBuild},
		{"undo", modeCtrl},
		{"end", modeBuild},
	}

	if diff := cmp.Diff(want, h.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory_GetEntry(t *testing.T) {
	h := NewHistory(filepath.Join(t.TempDir(), baseHistory))

	if _, err := h.Write("indent", modeBuild); err != nil {
		t.Fatal(err)
	}

	if e, err := h.GetEntry(0); err != nil || e.Line != "indent" {
		t.Errorf("GetEntry(0) = %v, %v", e, err)
	}

	for _, i := range []int{-1, 1} {
		if _, err := h.GetEntry(i); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("GetEntry(%d) error = %v, want %v", i, err, ErrOutOfBounds)
		}
	}
}
