package synth

import (
	"slices"

	"github.com/jwebster45206/story-crew/pkg/state"
)

// Before holds the parts of state a pipeline is expected to change.
type Before struct {
	Locations  map[string]struct{}
	Characters map[string]string
	Player     string
}

// Capture records the store before a pipeline runs.
func Capture(store *state.Store) Before {
	b := Before{
		Locations:  make(map[string]struct{}),
		Characters: make(map[string]string),
		Player:     store.Player().Location,
	}
	for _, k := range store.LocationKeys() {
		b.Locations[k] = struct{}{}
	}
	for name, c := range store.Characters() {
		b.Characters[name] = c.Location
	}
	return b
}

// Report describes what the operations invoked during a pipeline changed.
type Report struct {
	NewLocations    []string
	NewCharacters   []string
	MovedCharacters []string
	PlayerMoved     bool
	PlayerFrom      string
	PlayerTo        string
	// Vanished lists characters that existed before and are gone now.
	// Collaborators have no removal operation, so this should stay empty.
	Vanished []string
}

// Empty reports whether nothing changed.
func (r Report) Empty() bool {
	return len(r.NewLocations) == 0 && len(r.NewCharacters) == 0 &&
		len(r.MovedCharacters) == 0 && !r.PlayerMoved && len(r.Vanished) == 0
}

// Reconcile compares a capture with the current store.
func Reconcile(before Before, store *state.Store) Report {
	var r Report
	for _, k := range store.LocationKeys() {
		if _, ok := before.Locations[k]; !ok {
			r.NewLocations = append(r.NewLocations, k)
		}
	}

	now := store.Characters()
	for name, c := range now {
		prev, ok := before.Characters[name]
		switch {
		case !ok:
			r.NewCharacters = append(r.NewCharacters, name)
		case prev != c.Location:
			r.MovedCharacters = append(r.MovedCharacters, name)
		}
	}
	for name := range before.Characters {
		if _, ok := now[name]; !ok {
			r.Vanished = append(r.Vanished, name)
		}
	}
	slices.Sort(r.NewCharacters)
	slices.Sort(r.MovedCharacters)
	slices.Sort(r.Vanished)

	if to := store.Player().Location; to != before.Player {
		r.PlayerMoved = true
		r.PlayerFrom = before.Player
		r.PlayerTo = to
	}
	return r
}
