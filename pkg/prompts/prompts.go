package prompts

import (
	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/state"
)

// Pacing guidance per phase. FinalTurnGuidance replaces ClimaxGuidance on
// the last playable turn.
const (
	BeginningGuidance = "Beginning: build intrigue and setup. Establish the setting, introduce a hook, and leave questions open."
	MiddleGuidance    = "Middle: develop the plot. Deepen characters, complicate their goals, and raise the stakes."
	LateGuidance      = "Late: tighten the tension. Close side threads and steer toward the central conflict."
	ClimaxGuidance    = "Climax: bring the central conflict to a head. Every choice should matter now."
	FinalTurnGuidance = "Climax (last turn): resolve all threads and bring the story to a satisfying close."
	EndedGuidance     = "Epilogue: the story is over. Reflect on what happened; no new threads."
)

// Guidance returns the pacing text for a turn.
func Guidance(info state.TurnInfo) string {
	if info.IsFinalTurn() {
		return FinalTurnGuidance
	}
	switch info.Phase {
	case state.PhaseBeginning:
		return BeginningGuidance
	case state.PhaseMiddle:
		return MiddleGuidance
	case state.PhaseLate:
		return LateGuidance
	case state.PhaseClimax:
		return ClimaxGuidance
	case state.PhaseEnded:
		return EndedGuidance
	default:
		return BeginningGuidance
	}
}

// Role prompts are sent as the system prompt of each collaborator.
const (
	CoordinatorRole = `You are the game master coordinating a team of storytellers for an interactive text adventure. Read the player's request and the current scene, then write a short note (two or three sentences) telling your team what must happen this turn and which details to keep consistent. Do not narrate to the player.`

	WorldRole = `You are the world builder of an interactive text adventure. Describe places vividly and concretely: sights, sounds, smells, and the exits a traveler could take. Keep the geography consistent with locations that already exist. When the player moves somewhere new, create that location and move the player there.`

	CharacterRole = `You are the character director of an interactive text adventure. Voice the characters present in the scene with distinct personalities and motives. Characters who are already established must stay in the scene unless you explicitly move them. Speak only for non-player characters, never for the player.`

	StoryRole = `You are the narrative director of an interactive text adventure. Weave everything your team wrote this turn into one cohesive passage of two or three paragraphs addressed to the player in second person. End with the situation open so the player can decide what to do next. Respect the pacing guidance.`

	ImageRole = `You are the illustrator of an interactive text adventure. Write a single-paragraph image prompt describing the current scene: setting, lighting, characters present, and mood. Keep the art style consistent between turns.`

	EpilogueRole = `You are the narrative director of an interactive text adventure that has just ended. Whatever the player writes, do not continue the adventure. Write a short epilogue that reflects on the journey, the choices made, and the fate of the characters. Finish with the line "*.*.*.*.*.*. THE END .*.*.*.*.*.*"`

	SummaryRole = `You are the chronicler of an interactive text adventure. Summarize the story so far in one or two paragraphs: where the player went, who they met, and the choices that shaped the tale.`
)

// Role returns the system prompt for a capability.
func Role(c capability.Capability) string {
	switch c {
	case capability.Coordinator:
		return CoordinatorRole
	case capability.World:
		return WorldRole
	case capability.Character:
		return CharacterRole
	case capability.Story:
		return StoryRole
	case capability.Image:
		return ImageRole
	default:
		return StoryRole
	}
}

// ActionProtocol tells a collaborator how to request state changes. Only the
// operations scoped to its capability are listed.
func ActionProtocol(c capability.Capability) string {
	ops := actionDocs[c]
	if ops == "" {
		return ""
	}
	return `### Changing the game state
Write your prose first. If something in it changes the game world, add a line containing only "ACTIONS:" after the prose, followed by one operation per line in the form "operation: arguments". Arguments may be a JSON object or "field: value" pairs. Use only these operations:
` + ops + `
Never mention the ACTIONS block in your prose. Omit it when nothing changes.`
}

var actionDocs = map[capability.Capability]string{
	capability.World: `- create_location: {"key": "short_id", "name": "Display Name", "description": "...", "exits": ["north", "east"]}
- move_player: location_key
- add_exit: {"location": "location_key", "direction": "north"}
- place_item: {"item": "name", "location": "location_key", "description": "..."}
- take_item: item name at the player's location
- drop_item: item name from the player's inventory`,
	capability.Character: `- add_character: {"name": "Name", "location": "location_key", "personality": "..."}
- move_character: {"name": "Name", "location": "location_key"}`,
	capability.Story: `- story_event: one sentence describing a key plot event
- adjust_health: {"delta": -10, "reason": "..."} (negative for harm, positive for healing)
- gain_experience: {"points": 10, "reason": "..."}`,
	capability.Coordinator: `- adjust_health: {"delta": -10, "reason": "..."}
- gain_experience: {"points": 10, "reason": "..."}`,
}
