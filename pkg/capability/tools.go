package capability

import (
	"github.com/jwebster45206/story-crew/pkg/state"
)

// WorldTools are the state operations available to the world collaborator.
type WorldTools interface {
	AddLocation(key string, loc state.Location)
	LocationExists(key string) bool
	SetCurrentLocation(key string) error
	AddExit(key, direction string) (bool, error)
	AddItemToLocation(key string, item state.Item) error
	TakeItem(itemName string) (state.Item, error)
	DropItem(itemName string) error
}

// CharacterTools are the state operations available to the character collaborator.
type CharacterTools interface {
	AddCharacter(name string, c state.Character)
	MoveCharacter(name, location string) error
}

// StoryTools are the state operations available to the story collaborator.
type StoryTools interface {
	AddStoryEvent(text string)
	AdjustHealth(delta int) (int, error)
	AddExperience(points int)
}

// Toolbox exposes only the operations scoped to one capability. Fields for
// other capabilities are nil.
type Toolbox struct {
	World     WorldTools
	Character CharacterTools
	Story     StoryTools
}

// ToolsFor scopes store operations to capability c.
func ToolsFor(store *state.Store, c Capability) Toolbox {
	switch c {
	case World:
		return Toolbox{World: store}
	case Character:
		return Toolbox{Character: store}
	case Story, Coordinator:
		return Toolbox{Story: store}
	default:
		return Toolbox{}
	}
}
