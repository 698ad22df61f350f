package state

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/actor"
	"github.com/samber/oops"
)

// Snapshot is the flat, serializable form of a session. GameState is
// authoritative; the other fields are convenience views written alongside it.
type Snapshot struct {
	StoryHistory []string  `json:"story_history" yaml:"story_history"`
	ChoicesMade  []string  `json:"choices_made" yaml:"choices_made"`
	GameState    GameState `json:"game_state" yaml:"game_state"`
	TurnInfo     TurnInfo  `json:"turn_info" yaml:"turn_info"`
}

// Snapshot returns a deep copy of the session state.
func (s *Store) Snapshot() *Snapshot {
	gs := cloneGameState(s.gs)
	return &Snapshot{
		StoryHistory: s.RecentEvents(0),
		ChoicesMade:  s.Choices(),
		GameState:    gs,
		TurnInfo:     s.TurnInfo(),
	}
}

// Validate checks that a snapshot can be restored.
func (snap *Snapshot) Validate() error {
	gs := snap.GameState
	if gs.ID == uuid.Nil {
		return oops.Code("INVALID_SNAPSHOT").With("field", "id").Wrap(ErrInvalidSnapshot)
	}
	tc := gs.TurnCounter
	if tc.MaxTurns <= 0 || tc.CurrentTurn < 0 {
		return oops.Code("INVALID_SNAPSHOT").
			With("field", "turn_counter").
			With("current_turn", tc.CurrentTurn).
			With("max_turns", tc.MaxTurns).
			Wrap(ErrInvalidSnapshot)
	}
	if tc.CurrentTurn > tc.MaxTurns {
		return oops.Code("INVALID_SNAPSHOT").
			With("field", "turn_counter").
			With("current_turn", tc.CurrentTurn).
			With("max_turns", tc.MaxTurns).
			Wrap(ErrInvalidSnapshot)
	}
	if loc := gs.Player.Location; loc != "" {
		if _, ok := gs.World.Locations[loc]; !ok {
			return oops.Code("INVALID_SNAPSHOT").
				With("field", "player.location").
				With("location", loc).
				Wrap(ErrInvalidSnapshot)
		}
	} else if len(gs.World.Locations) > 0 {
		return oops.Code("INVALID_SNAPSHOT").
			With("field", "player.location").
			Wrap(ErrInvalidSnapshot)
	}
	return nil
}

// Restore replaces the session state with the snapshot. The store is only
// modified once the snapshot has validated.
func (s *Store) Restore(snap *Snapshot) error {
	if snap == nil {
		return oops.Code("INVALID_SNAPSHOT").Wrap(ErrInvalidSnapshot)
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	gs := cloneGameState(snap.GameState)
	gs.TurnCounter.GameEnded = gs.TurnCounter.CurrentTurn >= gs.TurnCounter.MaxTurns
	gs.World.CurrentLocation = gs.Player.Location

	vitals, err := actor.NewVitals(gs.ID.String(), DefaultHealth, gs.Player.Health)
	if err != nil {
		return oops.Code("INVALID_SNAPSHOT").With("field", "player.health").Wrap(err)
	}
	gs.Player.Health = vitals.HP()

	s.gs = gs
	s.vitals = vitals
	s.logger.Info("Session restored",
		"session_id", gs.ID,
		"turn", gs.TurnCounter.CurrentTurn,
		"max_turns", gs.TurnCounter.MaxTurns)
	return nil
}

// cloneGameState deep-copies gs, normalizing nil collections to empty ones.
func cloneGameState(gs GameState) GameState {
	out := gs

	out.Player.Inventory = cloneStrings(gs.Player.Inventory)
	out.Player.ItemNotes = maps.Clone(gs.Player.ItemNotes)

	out.World.Locations = make(map[string]Location, len(gs.World.Locations))
	for k, v := range gs.World.Locations {
		out.World.Locations[k] = copyLocation(v)
	}

	out.Characters = make(map[string]Character, len(gs.Characters))
	for k, v := range gs.Characters {
		out.Characters[k] = copyCharacter(v)
	}

	out.Story.Events = cloneEvents(gs.Story.Events)
	out.Story.Choices = cloneStrings(gs.Story.Choices)
	out.Log = cloneEvents(gs.Log)
	return out
}

func cloneStrings(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}

func cloneEvents(in []Event) []Event {
	return append(make([]Event, 0, len(in)), in...)
}

// Equal reports whether two snapshots hold the same game state.
func (snap *Snapshot) Equal(other *Snapshot) bool {
	if snap == nil || other == nil {
		return snap == other
	}
	a, b := snap.GameState, other.GameState
	if a.ID != b.ID || !a.StartedAt.Equal(b.StartedAt) || a.Theme != b.Theme || a.TurnCounter != b.TurnCounter {
		return false
	}
	if a.Player.Name != b.Player.Name || a.Player.Location != b.Player.Location ||
		a.Player.Health != b.Player.Health || a.Player.Experience != b.Player.Experience ||
		!slices.Equal(a.Player.Inventory, b.Player.Inventory) || !maps.Equal(a.Player.ItemNotes, b.Player.ItemNotes) {
		return false
	}
	if a.World.CurrentLocation != b.World.CurrentLocation ||
		!maps.EqualFunc(a.World.Locations, b.World.Locations, locationEqual) {
		return false
	}
	if !maps.EqualFunc(a.Characters, b.Characters, characterEqual) {
		return false
	}
	if a.Story.Chapter != b.Story.Chapter || !slices.Equal(a.Story.Choices, b.Story.Choices) {
		return false
	}
	return slices.EqualFunc(a.Story.Events, b.Story.Events, eventEqual) &&
		slices.EqualFunc(a.Log, b.Log, eventEqual)
}

func locationEqual(a, b Location) bool {
	return a.Name == b.Name && a.Description == b.Description &&
		slices.Equal(a.Exits, b.Exits) && slices.Equal(a.Items, b.Items)
}

func characterEqual(a, b Character) bool {
	return a.Name == b.Name && a.Location == b.Location && a.Personality == b.Personality &&
		maps.Equal(a.Attributes, b.Attributes) && maps.Equal(a.Dialogue, b.Dialogue)
}

func eventEqual(a, b Event) bool {
	return a.Text == b.Text && a.Time.Equal(b.Time)
}
