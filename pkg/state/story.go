package state

import (
	"slices"
	"time"
)

// AddStoryEvent appends a narrative event to the story log.
func (s *Store) AddStoryEvent(text string) {
	s.gs.Story.Events = append(s.gs.Story.Events, Event{Time: s.now(), Text: text})
	s.LogEvent("Story event: " + text)
}

// AddChoiceMade records a player choice.
func (s *Store) AddChoiceMade(choice string) {
	s.gs.Story.Choices = append(s.gs.Story.Choices, choice)
	s.LogEvent("Choice made: " + choice)
}

// StoryEvents returns a copy of the story events.
func (s *Store) StoryEvents() []Event {
	return slices.Clone(s.gs.Story.Events)
}

// Choices returns a copy of the recorded choices.
func (s *Store) Choices() []string {
	return slices.Clone(s.gs.Story.Choices)
}

// RecentEvents returns the text of the last n story events, oldest first.
func (s *Store) RecentEvents(n int) []string {
	events := s.gs.Story.Events
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Text)
	}
	return out
}

// SummaryData is everything a recap of the session needs.
type SummaryData struct {
	StartedAt        time.Time `json:"started_at"`
	DurationMinutes  int       `json:"duration_minutes"`
	TurnInfo         TurnInfo  `json:"turn_info"`
	Player           Player    `json:"player"`
	LocationsVisited []string  `json:"locations_visited"`
	CharactersMet    []string  `json:"characters_met"`
	StoryEvents      []string  `json:"story_events"`
	ChoicesMade      []string  `json:"choices_made"`
	Chapter          int       `json:"current_chapter"`
	RecentLog        []Event   `json:"game_log"`
}

const summaryLogTail = 20

// SummaryData collects the data used to summarize the session so far.
func (s *Store) SummaryData() SummaryData {
	logTail := s.gs.Log
	if len(logTail) > summaryLogTail {
		logTail = logTail[len(logTail)-summaryLogTail:]
	}
	return SummaryData{
		StartedAt:        s.gs.StartedAt,
		DurationMinutes:  int(s.now().Sub(s.gs.StartedAt).Minutes()),
		TurnInfo:         s.TurnInfo(),
		Player:           s.Player(),
		LocationsVisited: s.LocationKeys(),
		CharactersMet:    s.CharacterNames(),
		StoryEvents:      s.RecentEvents(0),
		ChoicesMade:      s.Choices(),
		Chapter:          s.gs.Story.Chapter,
		RecentLog:        slices.Clone(logTail),
	}
}
