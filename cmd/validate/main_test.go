package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/jwebster45206/story-crew/pkg/storage"
)

func testStore() *state.Store {
	s := state.NewStore(5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetPlayerName("Aria")
	s.AddLocation("harbor", state.Location{Exits: []string{"north"}})
	s.AddLocation("Old Lighthouse", state.Location{})
	s.AddCharacter("Zephyr", state.Character{Location: "harbor"})
	return s
}

func TestValidateFile(t *testing.T) {
	dir := t.TempDir()
	s := testStore()

	for _, name := range []string{"run.json", "run.yaml"} {
		path := filepath.Join(dir, name)
		if err := storage.SaveFile(path, s.Snapshot()); err != nil {
			t.Fatalf("SaveFile() error = %v", err)
		}

		var out bytes.Buffer
		if err := validateFile(&out, path); err != nil {
			t.Fatalf("validateFile(%s) error = %v", name, err)
		}
		got := out.String()
		for _, want := range []string{
			"Save file is valid: Aria, turn 0 of 5, 2 locations, 1 characters",
			"location key 'Old Lighthouse' should be lowercase snake_case",
			"location 'Old Lighthouse' has no exits",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("output for %s missing %q:\n%s", name, want, got)
			}
		}
	}
}

func TestValidateFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"game_state":{}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateFile(io.Discard, broken); err == nil {
		t.Error("expected error for snapshot without an id")
	}

	if err := validateFile(io.Discard, filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidateSnapshot_Warnings(t *testing.T) {
	snap := testStore().Snapshot()
	snap.GameState.Characters["Zephyr"] = state.Character{Name: "Zephyr", Location: "moon"}
	snap.GameState.Player.Health = 150
	snap.TurnInfo.CurrentTurn = 3
	snap.ChoicesMade = []string{"stale"}

	v := &SaveValidator{}
	v.validateSnapshot(snap)

	got := strings.Join(v.warnings, "\n")
	for _, want := range []string{
		"character 'Zephyr' is at unknown location 'moon'",
		"player health 150",
		"turn_info (3 of 5)",
		"choices_made has 1 entries but the story log has 0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("warnings missing %q:\n%s", want, got)
		}
	}
}

func TestIsValidID(t *testing.T) {
	tests := map[string]bool{
		"harbor":         true,
		"starting_point": true,
		"a":              true,
		"Harbor":         false,
		"old-lighthouse": false,
		"trailing_":      false,
	}
	for id, want := range tests {
		if got := isValidID(id); got != want {
			t.Errorf("isValidID(%q) = %v, want %v", id, got, want)
		}
	}
}
