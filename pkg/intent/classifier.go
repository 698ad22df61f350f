// Package intent maps a player's free-text request to the collaborators
// that must contribute to the response.
package intent

import (
	"strings"
	"unicode"

	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/state"
)

// Category is the coarse routing class of a request.
type Category string

const (
	CharacterInteraction Category = "character_interaction"
	WorldBuilding        Category = "world_building"
	StoryProgression     Category = "story_progression"
	SimpleCoordination   Category = "simple_coordination"
	Default              Category = "default"
)

// Intent is the classification of one request.
type Intent struct {
	Category Category
	Requires capability.Set
	Reason   string
	// Mentioned holds present characters referenced by name.
	Mentioned []string
}

// Scene is the slice of session state the classifier reads.
type Scene struct {
	Phase   state.Phase
	Present []string
}

// SceneOf extracts the classifier's view of a store.
func SceneOf(s *state.Store) Scene {
	present := s.CharactersPresent()
	names := make([]string, 0, len(present))
	for _, c := range present {
		names = append(names, c.Name)
	}
	phase := s.TurnInfo().Phase
	if s.IsEnded() {
		phase = state.PhaseEnded
	}
	return Scene{Phase: phase, Present: names}
}

var (
	dialogueWords = wordSet("ask", "talk", "speak", "say", "tell", "greet", "question", "chat")
	movementWords = wordSet("go", "move", "travel", "enter", "exit", "north", "south", "east", "west")
	creationWords = wordSet("create", "build", "generate")
	choiceWords   = wordSet("choose", "option", "decision", "continue", "next", "progress")
	plotWords     = wordSet("story", "plot", "quest", "then")
	statusWords   = wordSet("status", "help", "look", "inventory")

	creationPhrases = []string{"new location"}
	plotPhrases     = []string{"what happens"}
)

// Classify applies the routing rules in priority order; the first match wins.
//
//  1. dialogue verbs, a present character's name, or anyone present at all
//     -> character interaction {character}, plus story on a story cue
//  2. movement or creation words -> world building {world}, plus story from
//     the middle phase on
//  3. choice or plot words -> story progression {story}, plus character
//     when anyone is present
//  4. status words -> simple coordination {}
//  5. otherwise -> default {story}, plus character when anyone is present
//
// Rule 1 fires whenever any character shares the player's location, even
// for requests that are really about movement. With a standing NPC in the
// scene "go north" is routed to the character collaborator and the world
// collaborator is not consulted, so rules 2, 3 and 5 never see a populated
// scene. Movement and plot requests in a populated scene depend on the
// character collaborator to act on them.
func Classify(request string, scene Scene) Intent {
	tokens := tokenize(request)
	joined := " " + strings.Join(tokens, " ") + " "
	storyCue := hasAny(tokens, choiceWords) || hasAny(tokens, plotWords) || hasPhrase(joined, plotPhrases)
	present := len(scene.Present) > 0

	mentioned := mentionedCharacters(tokens, scene.Present)
	dialogue := hasAny(tokens, dialogueWords)
	if dialogue || len(mentioned) > 0 || present {
		req := capability.NewSet(capability.Character)
		if storyCue {
			req = req.With(capability.Story)
		}
		reason := "characters are present"
		switch {
		case len(mentioned) > 0:
			reason = "request names " + strings.Join(mentioned, ", ")
		case dialogue:
			reason = "request uses dialogue"
		}
		return Intent{Category: CharacterInteraction, Requires: req, Reason: reason, Mentioned: mentioned}
	}

	if hasAny(tokens, movementWords) || hasAny(tokens, creationWords) || hasPhrase(joined, creationPhrases) {
		req := capability.NewSet(capability.World)
		if scene.Phase.Rank() >= state.PhaseMiddle.Rank() {
			req = req.With(capability.Story)
		}
		return Intent{Category: WorldBuilding, Requires: req, Reason: "request moves or shapes the world"}
	}

	if storyCue {
		req := capability.NewSet(capability.Story)
		if present {
			req = req.With(capability.Character)
		}
		return Intent{Category: StoryProgression, Requires: req, Reason: "request advances the plot"}
	}

	if hasAny(tokens, statusWords) {
		return Intent{Category: SimpleCoordination, Reason: "request asks about status"}
	}

	req := capability.NewSet(capability.Story)
	if present {
		req = req.With(capability.Character)
	}
	return Intent{Category: Default, Requires: req, Reason: "no specific cue"}
}

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// tokenize lowercases s and splits it into words on anything that is not a
// letter, digit or apostrophe.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func hasAny(tokens []string, set map[string]struct{}) bool {
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
		// possessives: "zephyr's" should still match
		if base, ok := strings.CutSuffix(t, "'s"); ok {
			if _, ok := set[base]; ok {
				return true
			}
		}
	}
	return false
}

func hasPhrase(joined string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(joined, " "+p+" ") {
			return true
		}
	}
	return false
}

// mentionedCharacters returns the present characters whose full name, or
// first name, appears in the request.
func mentionedCharacters(tokens []string, present []string) []string {
	if len(present) == 0 {
		return nil
	}
	joined := " " + strings.Join(stripPossessives(tokens), " ") + " "
	var out []string
	for _, name := range present {
		nameTokens := tokenize(name)
		if len(nameTokens) == 0 {
			continue
		}
		if strings.Contains(joined, " "+strings.Join(nameTokens, " ")+" ") ||
			strings.Contains(joined, " "+nameTokens[0]+" ") {
			out = append(out, name)
		}
	}
	return out
}

func stripPossessives(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.TrimSuffix(t, "'s")
	}
	return out
}
