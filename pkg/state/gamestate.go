package state

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/actor"
)

const (
	DefaultMaxTurns            = 5
	DefaultHealth              = 100
	DefaultLocationDescription = "A mysterious place waiting to be explored."
)

// Item is a named object owned by exactly one Location or the player inventory.
type Item struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Location is a place in the world, keyed by a unique identifier.
type Location struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Exits       []string `json:"exits" yaml:"exits"`
	Items       []Item   `json:"items" yaml:"items"`
}

// Character is a non-player character. Characters are created once and
// mutated in place; only RemoveCharacter deletes one.
type Character struct {
	Name        string            `json:"name" yaml:"name"`
	Location    string            `json:"location" yaml:"location"`
	Personality string            `json:"personality" yaml:"personality"`
	Attributes  map[string]string `json:"attributes" yaml:"attributes"`
	Dialogue    map[string]string `json:"dialogue_options" yaml:"dialogue_options"`
}

// Player is the single protagonist of a session.
type Player struct {
	Name       string   `json:"name" yaml:"name"`
	Location   string   `json:"location" yaml:"location"` // empty until the first location exists
	Inventory  []string `json:"inventory" yaml:"inventory"`
	Health     int      `json:"health" yaml:"health"`
	Experience int      `json:"experience" yaml:"experience"`

	// ItemNotes keeps the descriptions of carried items, keyed by name.
	ItemNotes map[string]string `json:"item_notes,omitempty" yaml:"item_notes,omitempty"`
}

// Event is a timestamped log line.
type Event struct {
	Time time.Time `json:"time" yaml:"time"`
	Text string    `json:"text" yaml:"text"`
}

// StoryLog is the append-only narrative record of a session.
type StoryLog struct {
	Events  []Event  `json:"events" yaml:"events"`
	Choices []string `json:"choices_made" yaml:"choices_made"`
	Chapter int      `json:"chapter" yaml:"chapter"`
}

// TurnCounter tracks pacing. CurrentTurn never decreases.
type TurnCounter struct {
	CurrentTurn int  `json:"current_turn" yaml:"current_turn"`
	MaxTurns    int  `json:"max_turns" yaml:"max_turns"`
	GameEnded   bool `json:"game_ended" yaml:"game_ended"`
}

// World holds every known location.
type World struct {
	Locations       map[string]Location `json:"locations" yaml:"locations"`
	CurrentLocation string              `json:"current_location" yaml:"current_location"`
}

// GameState is the canonical, serializable state of one session.
type GameState struct {
	ID          uuid.UUID            `json:"id" yaml:"id"`
	StartedAt   time.Time            `json:"started_at" yaml:"started_at"`
	Theme       string               `json:"theme,omitempty" yaml:"theme,omitempty"`
	Player      Player               `json:"player" yaml:"player"`
	World       World                `json:"world" yaml:"world"`
	Characters  map[string]Character `json:"characters" yaml:"characters"`
	Story       StoryLog             `json:"story" yaml:"story"`
	Log         []Event              `json:"game_log" yaml:"game_log"`
	TurnCounter TurnCounter          `json:"turn_counter" yaml:"turn_counter"`
}

// Store owns the GameState of a single session. Every mutation goes through
// a validated operation and appends to the audit log.
//
// Store is not safe for concurrent use; the owning session serializes access.
type Store struct {
	gs     GameState
	vitals *actor.Vitals
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates an empty session store. A non-positive maxTurns falls
// back to DefaultMaxTurns.
func NewStore(maxTurns int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	s := &Store{
		gs:     newGameState(uuid.New(), maxTurns),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	s.gs.StartedAt = s.now()
	// NewVitals only fails on an invalid d20 build, which DefaultHealth cannot produce.
	s.vitals, _ = actor.NewVitals(s.gs.ID.String(), DefaultHealth, DefaultHealth)
	return s
}

// WithClock replaces the timestamp source, mostly for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	s.gs.StartedAt = now()
	return s
}

func newGameState(id uuid.UUID, maxTurns int) GameState {
	return GameState{
		ID: id,
		Player: Player{
			Inventory: make([]string, 0),
			Health:    DefaultHealth,
		},
		World: World{
			Locations: make(map[string]Location),
		},
		Characters: make(map[string]Character),
		Story: StoryLog{
			Events:  make([]Event, 0),
			Choices: make([]string, 0),
			Chapter: 1,
		},
		Log: make([]Event, 0),
		TurnCounter: TurnCounter{
			MaxTurns: maxTurns,
		},
	}
}

// ID returns the session identifier.
func (s *Store) ID() uuid.UUID {
	return s.gs.ID
}

// LogEvent appends a timestamped line to the audit log.
func (s *Store) LogEvent(text string) {
	s.gs.Log = append(s.gs.Log, Event{Time: s.now(), Text: text})
}

// AuditLog returns a copy of the audit log.
func (s *Store) AuditLog() []Event {
	return append([]Event(nil), s.gs.Log...)
}

// Player returns a copy of the player record.
func (s *Store) Player() Player {
	p := s.gs.Player
	p.Inventory = append(make([]string, 0, len(p.Inventory)), p.Inventory...)
	p.ItemNotes = maps.Clone(p.ItemNotes)
	return p
}

// SetPlayerName sets the protagonist's name.
func (s *Store) SetPlayerName(name string) {
	s.gs.Player.Name = name
	s.LogEvent("Player name set to " + name)
}

// Theme returns the session's theme id.
func (s *Store) Theme() string {
	return s.gs.Theme
}

// SetTheme fixes the session's genre.
func (s *Store) SetTheme(theme string) {
	s.gs.Theme = theme
	s.LogEvent("Theme set to " + theme)
}

// AdjustHealth applies a signed delta to the player's health, clamped to
// [0, DefaultHealth], and returns the new value.
func (s *Store) AdjustHealth(delta int) (int, error) {
	hp, err := s.vitals.Adjust(delta)
	if err != nil {
		return s.gs.Player.Health, err
	}
	s.gs.Player.Health = hp
	if delta < 0 {
		s.LogEvent(fmt.Sprintf("Player took %d damage (health %d)", -delta, hp))
	} else {
		s.LogEvent(fmt.Sprintf("Player healed %d (health %d)", delta, hp))
	}
	if delta < 0 && s.vitals.IsDown() {
		s.LogEvent("Player is down")
	}
	return hp, nil
}

// AddExperience adds experience points to the player.
func (s *Store) AddExperience(points int) {
	if points <= 0 {
		return
	}
	s.gs.Player.Experience += points
	s.LogEvent(fmt.Sprintf("Player gained %d experience (total %d)", points, s.gs.Player.Experience))
}
