package engine

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/story-crew/pkg/state"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type commandType string

const (
	cmdLook      commandType = "look"
	cmdInventory commandType = "inventory"
	cmdStatus    commandType = "status"
	cmdHelp      commandType = "help"
	cmdSummarize commandType = "summarize"
	cmdNone      commandType = "" // No command, used for fallback
)

// HelpText lists the commands answered without a turn.
const HelpText = `Describe what you want to do in your own words, for example "go north" or "ask the innkeeper about the map".

Commands that do not use a turn:
  look (l)          describe where you are
  inventory (i)     list what you carry
  status            show turn, phase and location
  summarize         recap the story so far
  help (h)          show this help`

// parseCommand parses the input string and returns the command type if recognized.
// If not recognized, returns cmdNone.
func parseCommand(input string) commandType {
	known := map[string]commandType{
		"look":      cmdLook,
		"location":  cmdLook,
		"l":         cmdLook,
		"inventory": cmdInventory,
		"i":         cmdInventory,
		"status":    cmdStatus,
		"stats":     cmdStatus,
		"help":      cmdHelp,
		"h":         cmdHelp,
		"?":         cmdHelp,
		"summarize": cmdSummarize,
		"summary":   cmdSummarize,
	}
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return cmdNone
	}
	if cmd, ok := known[trimmed]; ok {
		return cmd
	}
	return cmdNone
}

// localCommand picks the answer for a request that needs no collaborator but
// is not an exact command, e.g. "check my inventory".
func localCommand(input string) commandType {
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "inventory"):
		return cmdInventory
	case strings.Contains(lower, "help"):
		return cmdHelp
	case strings.Contains(lower, "status"):
		return cmdStatus
	}
	return cmdLook
}

var titleCaser = cases.Title(language.English)

// displayName formats a player-supplied name.
func displayName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return DefaultPlayerName
	}
	return titleCaser.String(name)
}

func describeLocation(s *state.Store) string {
	key, loc, ok := s.CurrentLocation()
	if !ok {
		return "You are in an unknown location."
	}

	var sb strings.Builder
	name := loc.Name
	if name == "" {
		name = titleCaser.String(strings.ReplaceAll(key, "_", " "))
	}
	sb.WriteString(name + "\n" + loc.Description)
	if len(loc.Exits) > 0 {
		sb.WriteString("\nExits: " + strings.Join(loc.Exits, ", "))
	}
	if len(loc.Items) > 0 {
		names := make([]string, 0, len(loc.Items))
		for _, it := range loc.Items {
			names = append(names, it.Name)
		}
		sb.WriteString("\nYou see: " + strings.Join(names, ", "))
	}
	if present := s.CharactersPresent(); len(present) > 0 {
		names := make([]string, 0, len(present))
		for _, c := range present {
			names = append(names, c.Name)
		}
		sb.WriteString("\nHere with you: " + strings.Join(names, ", "))
	}
	return sb.String()
}

func describeInventory(s *state.Store) string {
	inv := s.Player().Inventory
	if len(inv) == 0 {
		return "Your inventory is empty."
	}
	return "You have:\n- " + strings.Join(inv, "\n- ")
}

func describeStatus(s *state.Store) string {
	info := s.TurnInfo()
	p := s.Player()
	_, loc, ok := s.CurrentLocation()
	where := "unknown"
	if ok {
		where = loc.Name
	}

	var sb strings.Builder
	if info.GameEnded {
		sb.WriteString(fmt.Sprintf("The adventure is over after %d turns.\n", info.MaxTurns))
	} else {
		sb.WriteString(fmt.Sprintf("Turn %d of %d (%s)\n", info.CurrentTurn, info.MaxTurns, info.Phase))
	}
	sb.WriteString(fmt.Sprintf("Location: %s\n", where))
	sb.WriteString(fmt.Sprintf("Health: %d\n", p.Health))
	sb.WriteString(fmt.Sprintf("Choices made: %d", len(s.Choices())))
	return sb.String()
}

// localSummary recaps the session without a collaborator.
func localSummary(data state.SummaryData) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s has played %d of %d turns.", displayName(data.Player.Name), data.TurnInfo.CurrentTurn, data.TurnInfo.MaxTurns))
	if len(data.LocationsVisited) > 0 {
		sb.WriteString("\nPlaces: " + strings.Join(data.LocationsVisited, ", "))
	}
	if len(data.CharactersMet) > 0 {
		sb.WriteString("\nCharacters: " + strings.Join(data.CharactersMet, ", "))
	}
	if len(data.ChoicesMade) > 0 {
		sb.WriteString("\nChoices:\n- " + strings.Join(data.ChoicesMade, "\n- "))
	}
	return sb.String()
}
