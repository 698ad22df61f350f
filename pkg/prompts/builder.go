package prompts

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/state"
)

// DefaultHistoryLimit is how many recent story events an instruction carries.
const DefaultHistoryLimit = 6

// Scene is the state excerpt embedded in an instruction.
type Scene struct {
	LocationKey  string
	Location     state.Location
	HasLocation  bool
	Characters   []state.Character
	RecentEvents []string
}

// SceneFrom extracts the excerpt from a store.
func SceneFrom(s *state.Store, historyLimit int) Scene {
	key, loc, ok := s.CurrentLocation()
	return Scene{
		LocationKey:  key,
		Location:     loc,
		HasLocation:  ok,
		Characters:   s.CharactersPresent(),
		RecentEvents: s.RecentEvents(historyLimit),
	}
}

// Builder constructs collaborator instructions using a fluent interface.
// An instruction carries only the request, pacing guidance, theme and the
// scene excerpt.
type Builder struct {
	request      string
	pacing       state.TurnInfo
	hasPacing    bool
	scene        Scene
	theme        Theme
	historyLimit int
}

// New creates a builder with the default theme and history limit.
func New() *Builder {
	t, _ := LookupTheme(DefaultThemeID)
	return &Builder{
		theme:        t,
		historyLimit: DefaultHistoryLimit,
	}
}

// WithRequest sets the player's raw request.
func (b *Builder) WithRequest(request string) *Builder {
	b.request = strings.TrimSpace(request)
	return b
}

// WithPacing sets the turn the instruction is for.
func (b *Builder) WithPacing(info state.TurnInfo) *Builder {
	b.pacing = info
	b.hasPacing = true
	return b
}

// WithScene sets the state excerpt.
func (b *Builder) WithScene(scene Scene) *Builder {
	b.scene = scene
	return b
}

// WithTheme sets the genre by id; unknown ids keep the default.
func (b *Builder) WithTheme(id string) *Builder {
	if t, ok := LookupTheme(id); ok {
		b.theme = t
	}
	return b
}

// WithHistoryLimit caps how many recent events are embedded.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build returns the instruction for capability c.
func (b *Builder) Build(c capability.Capability) (string, error) {
	if b.request == "" {
		return "", fmt.Errorf("request is required")
	}
	if !b.hasPacing {
		return "", fmt.Errorf("pacing is required")
	}
	if !c.Valid() {
		return "", fmt.Errorf("unknown capability %q", c)
	}

	var sb strings.Builder
	sb.WriteString("Task: " + task(c) + "\n")
	sb.WriteString(fmt.Sprintf("Player request: %q\n", b.request))
	b.writeContext(&sb)
	return strings.TrimRight(sb.String(), "\n"), nil
}

// BuildOpening returns the instruction for capability c during the opening
// scene, before the player has asked for anything.
func (b *Builder) BuildOpening(c capability.Capability, playerName string) (string, error) {
	if !b.hasPacing {
		return "", fmt.Errorf("pacing is required")
	}
	if !c.Valid() {
		return "", fmt.Errorf("unknown capability %q", c)
	}
	var sb strings.Builder
	sb.WriteString("Task: " + openingTask(c) + "\n")
	if playerName != "" {
		sb.WriteString(fmt.Sprintf("The protagonist is %s.\n", playerName))
	}
	b.writeContext(&sb)
	return strings.TrimRight(sb.String(), "\n"), nil
}

// BuildEpilogue returns the instruction for the conclusion collaborator.
func (b *Builder) BuildEpilogue(choices []string) string {
	var sb strings.Builder
	sb.WriteString("Task: The adventure has ended. Write the epilogue.\n")
	if b.request != "" {
		sb.WriteString(fmt.Sprintf("Player request: %q\n", b.request))
	}
	sb.WriteString(fmt.Sprintf("Genre: %s\n", b.theme.Genre))
	sb.WriteString("Pacing: " + EndedGuidance + "\n")
	if len(choices) > 0 {
		sb.WriteString("Choices the player made:\n")
		for _, c := range choices {
			sb.WriteString("- " + c + "\n")
		}
	}
	b.writeEvents(&sb)
	return strings.TrimRight(sb.String(), "\n")
}

// BuildSummary returns the instruction asking for a recap of the session.
func (b *Builder) BuildSummary(data state.SummaryData) string {
	var sb strings.Builder
	sb.WriteString("Task: Summarize the adventure so far.\n")
	sb.WriteString(fmt.Sprintf("Protagonist: %s\n", fallback(data.Player.Name, "the traveler")))
	sb.WriteString(fmt.Sprintf("Turns played: %d of %d\n", data.TurnInfo.CurrentTurn, data.TurnInfo.MaxTurns))
	if len(data.LocationsVisited) > 0 {
		sb.WriteString("Locations: " + strings.Join(data.LocationsVisited, ", ") + "\n")
	}
	if len(data.CharactersMet) > 0 {
		sb.WriteString("Characters: " + strings.Join(data.CharactersMet, ", ") + "\n")
	}
	if len(data.ChoicesMade) > 0 {
		sb.WriteString("Choices:\n")
		for _, c := range data.ChoicesMade {
			sb.WriteString("- " + c + "\n")
		}
	}
	if len(data.StoryEvents) > 0 {
		sb.WriteString("Events:\n")
		for _, e := range data.StoryEvents {
			sb.WriteString("- " + e + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Builder) writeContext(sb *strings.Builder) {
	sb.WriteString(fmt.Sprintf("Genre: %s. Include: %s. Avoid: %s.\n", b.theme.Genre, b.theme.Elements, b.theme.Avoid))
	sb.WriteString(fmt.Sprintf("Pacing (turn %d of %d): %s\n", b.pacing.CurrentTurn, b.pacing.MaxTurns, Guidance(b.pacing)))

	if b.scene.HasLocation {
		loc := b.scene.Location
		sb.WriteString(fmt.Sprintf("Current location: %s [%s] - %s\n", loc.Name, b.scene.LocationKey, loc.Description))
		if len(loc.Exits) > 0 {
			sb.WriteString("Exits: " + strings.Join(loc.Exits, ", ") + "\n")
		}
		if len(loc.Items) > 0 {
			names := make([]string, 0, len(loc.Items))
			for _, it := range loc.Items {
				names = append(names, it.Name)
			}
			sb.WriteString("Items here: " + strings.Join(names, ", ") + "\n")
		}
	} else {
		sb.WriteString("Current location: none yet\n")
	}

	if len(b.scene.Characters) > 0 {
		sb.WriteString("Characters present:\n")
		for _, c := range b.scene.Characters {
			if c.Personality != "" {
				sb.WriteString(fmt.Sprintf("- %s (%s)\n", c.Name, c.Personality))
			} else {
				sb.WriteString("- " + c.Name + "\n")
			}
		}
	}
	b.writeEvents(sb)
}

func (b *Builder) writeEvents(sb *strings.Builder) {
	events := b.scene.RecentEvents
	if b.historyLimit > 0 && len(events) > b.historyLimit {
		events = events[len(events)-b.historyLimit:]
	}
	if len(events) == 0 {
		return
	}
	sb.WriteString("Recent events:\n")
	for _, e := range events {
		sb.WriteString("- " + e + "\n")
	}
}

func task(c capability.Capability) string {
	switch c {
	case capability.Coordinator:
		return "Brief the team on what must happen this turn."
	case capability.World:
		return "Describe the setting the player is in or moving to, creating any new place they reach."
	case capability.Character:
		return "Voice the characters present and have them react to the player."
	case capability.Story:
		return "Write the passage the player reads this turn."
	case capability.Image:
		return "Describe this scene for an illustration."
	}
	return ""
}

func openingTask(c capability.Capability) string {
	switch c {
	case capability.Coordinator:
		return "Plan the opening scene of a new adventure."
	case capability.World:
		return "Create the starting location of the adventure and place the player there."
	case capability.Character:
		return "Introduce one character waiting in the starting location."
	case capability.Story:
		return "Write the opening passage and end with the player's first decision."
	case capability.Image:
		return "Describe the opening scene for an illustration."
	}
	return ""
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
