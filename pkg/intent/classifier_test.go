package intent

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	empty := Scene{Phase: state.PhaseBeginning}
	withZephyr := Scene{Phase: state.PhaseBeginning, Present: []string{"Zephyr"}}
	midgame := Scene{Phase: state.PhaseMiddle}

	tests := []struct {
		name     string
		request  string
		scene    Scene
		category Category
		requires capability.Set
	}{
		{
			name:     "movement in an empty scene",
			request:  "go north",
			scene:    empty,
			category: WorldBuilding,
			requires: capability.NewSet(capability.World),
		},
		{
			name:     "named character wins over world words",
			request:  "ask Zephyr about the tower",
			scene:    withZephyr,
			category: CharacterInteraction,
			requires: capability.NewSet(capability.Character),
		},
		{
			name:     "presence alone biases to character interaction",
			request:  "go north",
			scene:    withZephyr,
			category: CharacterInteraction,
			requires: capability.NewSet(capability.Character),
		},
		{
			name:     "character interaction with story cue",
			request:  "tell me what happens next",
			scene:    withZephyr,
			category: CharacterInteraction,
			requires: capability.NewSet(capability.Character, capability.Story),
		},
		{
			name:     "dialogue verb without anyone present",
			request:  "Greet the empty room",
			scene:    empty,
			category: CharacterInteraction,
			requires: capability.NewSet(capability.Character),
		},
		{
			name:     "creation phrase",
			request:  "describe a new location beyond the ridge",
			scene:    empty,
			category: WorldBuilding,
			requires: capability.NewSet(capability.World),
		},
		{
			name:     "world building gains story from middle phase",
			request:  "enter the cave",
			scene:    midgame,
			category: WorldBuilding,
			requires: capability.NewSet(capability.World, capability.Story),
		},
		{
			name:     "story progression",
			request:  "what happens to the caravan?",
			scene:    empty,
			category: StoryProgression,
			requires: capability.NewSet(capability.Story),
		},
		{
			name:     "choice word",
			request:  "I choose the left path",
			scene:    empty,
			category: StoryProgression,
			requires: capability.NewSet(capability.Story),
		},
		{
			name:     "status request needs no collaborator",
			request:  "check my inventory",
			scene:    empty,
			category: SimpleCoordination,
			requires: capability.Set(0),
		},
		{
			name:     "default",
			request:  "I sit by the fire and wait",
			scene:    empty,
			category: Default,
			requires: capability.NewSet(capability.Story),
		},
		{
			name:     "substring is not a word match",
			request:  "I polish the gold ring",
			scene:    empty,
			category: Default,
			requires: capability.NewSet(capability.Story),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.request, tt.scene)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.requires, got.Requires, "requires %s", got.Requires)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestClassify_MentionedCharacters(t *testing.T) {
	scene := Scene{Present: []string{"Zephyr Vane", "Old Tom"}}

	got := Classify("What does zephyr's map show?", scene)
	assert.Equal(t, CharacterInteraction, got.Category)
	assert.Equal(t, []string{"Zephyr Vane"}, got.Mentioned)
	assert.Contains(t, got.Reason, "Zephyr Vane")
}

func TestSceneOf(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	store := state.NewStore(5, logger)
	store.AddLocation("tower", state.Location{})
	store.AddLocation("yard", state.Location{})
	store.AddCharacter("Zephyr", state.Character{Location: "tower"})
	store.AddCharacter("Gull", state.Character{Location: "yard"})

	scene := SceneOf(store)
	assert.Equal(t, []string{"Zephyr"}, scene.Present)
	assert.Equal(t, state.PhaseBeginning, scene.Phase)

	got := Classify("ask Zephyr about the tower", scene)
	assert.Equal(t, CharacterInteraction, got.Category)
}
