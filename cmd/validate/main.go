package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/jwebster45206/story-crew/pkg/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <save.json|save.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(os.Stdout, filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func validateFile(out io.Writer, filename string) error {
	fmt.Fprintf(out, "Validating %s...\n", filename)

	// LoadFile rejects anything a session could not restore
	snap, err := storage.LoadFile(filename)
	if err != nil {
		return err
	}

	v := &SaveValidator{}
	v.validateSnapshot(snap)

	if len(v.warnings) > 0 {
		fmt.Fprintf(out, "Warnings in %s:\n%s\n", filename, strings.Join(v.warnings, "\n"))
	}

	gs := snap.GameState
	fmt.Fprintf(out, "Save file is valid: %s, turn %d of %d, %d locations, %d characters\n",
		gs.Player.Name, gs.TurnCounter.CurrentTurn, gs.TurnCounter.MaxTurns,
		len(gs.World.Locations), len(gs.Characters))
	return nil
}

// SaveValidator collects problems that do not prevent a restore but
// usually point at a hand-edited or stale save.
type SaveValidator struct {
	warnings []string
}

func (v *SaveValidator) validateSnapshot(snap *state.Snapshot) {
	gs := snap.GameState

	for _, key := range sortedKeys(gs.World.Locations) {
		v.validateIDFormat("location key", key)
		if len(gs.World.Locations[key].Exits) == 0 && len(gs.World.Locations) > 1 {
			v.addWarning(fmt.Sprintf("location '%s' has no exits", key))
		}
	}

	for _, name := range sortedKeys(gs.Characters) {
		c := gs.Characters[name]
		if c.Location == "" {
			continue
		}
		if _, ok := gs.World.Locations[c.Location]; !ok {
			v.addWarning(fmt.Sprintf("character '%s' is at unknown location '%s'", name, c.Location))
		}
	}

	if gs.Player.Health < 0 || gs.Player.Health > state.DefaultHealth {
		v.addWarning(fmt.Sprintf("player health %d is outside 0..%d and will be clamped", gs.Player.Health, state.DefaultHealth))
	}

	if snap.TurnInfo.CurrentTurn != gs.TurnCounter.CurrentTurn || snap.TurnInfo.MaxTurns != gs.TurnCounter.MaxTurns {
		v.addWarning(fmt.Sprintf("turn_info (%d of %d) disagrees with turn_counter (%d of %d); turn_counter wins",
			snap.TurnInfo.CurrentTurn, snap.TurnInfo.MaxTurns, gs.TurnCounter.CurrentTurn, gs.TurnCounter.MaxTurns))
	}

	if len(snap.ChoicesMade) != len(gs.Story.Choices) {
		v.addWarning(fmt.Sprintf("choices_made has %d entries but the story log has %d", len(snap.ChoicesMade), len(gs.Story.Choices)))
	}
}

func (v *SaveValidator) validateIDFormat(fieldName, id string) {
	if !isValidID(id) {
		v.addWarning(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *SaveValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
