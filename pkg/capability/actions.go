package capability

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/jwebster45206/story-crew/pkg/toolinput"
)

// ActionsMarker starts the block of state operations at the end of a
// collaborator reply.
const ActionsMarker = "ACTIONS:"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrActionScope   = errors.New("action not available to this capability")
)

// Action is one requested state operation, e.g. "move_player: harbor".
type Action struct {
	Op   string
	Args string
}

// SplitActions separates the narrative part of a reply from its trailing
// ACTIONS block. Lines in the block look like "op: args"; blank lines and
// list bullets are tolerated.
func SplitActions(reply string) (string, []Action) {
	lines := strings.Split(reply, "\n")
	cut := -1
	for i, line := range lines {
		if strings.EqualFold(strings.TrimSpace(line), ActionsMarker) {
			cut = i
			break
		}
	}
	if cut < 0 {
		return strings.TrimSpace(reply), nil
	}

	narrative := strings.TrimSpace(strings.Join(lines[:cut], "\n"))
	var actions []Action
	for _, line := range lines[cut+1:] {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-* ")
		if line == "" {
			continue
		}
		op, args, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		actions = append(actions, Action{
			Op:   strings.ToLower(strings.TrimSpace(op)),
			Args: strings.TrimSpace(args),
		})
	}
	return narrative, actions
}

// ApplyActions runs each action through the scoped toolbox. Invalid actions
// are logged and skipped; the returned slice holds one error per rejected
// action.
func ApplyActions(tools Toolbox, actions []Action, logger *slog.Logger) []error {
	var errs []error
	for _, a := range actions {
		if err := applyAction(tools, a); err != nil {
			logger.Warn("Rejected collaborator action",
				"op", a.Op,
				"args", a.Args,
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", a.Op, err))
			continue
		}
		logger.Debug("Applied collaborator action", "op", a.Op)
	}
	return errs
}

func applyAction(tools Toolbox, a Action) error {
	in, err := toolinput.Parse(a.Args)
	if err != nil {
		return err
	}

	switch a.Op {
	case "create_location":
		if tools.World == nil {
			return ErrActionScope
		}
		f, err := in.Bind("key", "description", "name", "exits")
		if err != nil {
			return err
		}
		key := keyOf(f["key"])
		if key == "" {
			return fmt.Errorf("%w: blank location key", toolinput.ErrInputShape)
		}
		tools.World.AddLocation(key, state.Location{
			Name:        f["name"],
			Description: f["description"],
			Exits:       splitList(f["exits"]),
		})
		return nil

	case "move_player":
		if tools.World == nil {
			return ErrActionScope
		}
		f, err := in.Bind("location")
		if err != nil {
			return err
		}
		return tools.World.SetCurrentLocation(keyOf(f["location"]))

	case "add_exit":
		if tools.World == nil {
			return ErrActionScope
		}
		f, err := in.Bind("location", "direction")
		if err != nil {
			return err
		}
		if f["direction"] == "" {
			return fmt.Errorf("%w: missing direction", toolinput.ErrInputShape)
		}
		_, err = tools.World.AddExit(keyOf(f["location"]), f["direction"])
		return err

	case "place_item":
		if tools.World == nil {
			return ErrActionScope
		}
		f, err := in.Bind("item", "location", "description")
		if err != nil {
			return err
		}
		return tools.World.AddItemToLocation(keyOf(f["location"]), state.Item{
			Name:        f["item"],
			Description: f["description"],
		})

	case "take_item":
		if tools.World == nil {
			return ErrActionScope
		}
		f, err := in.Bind("item")
		if err != nil {
			return err
		}
		_, err = tools.World.TakeItem(strings.TrimSpace(f["item"]))
		return err

	case "drop_item":
		if tools.World == nil {
			return ErrActionScope
		}
		f, err := in.Bind("item")
		if err != nil {
			return err
		}
		return tools.World.DropItem(strings.TrimSpace(f["item"]))

	case "add_character":
		if tools.Character == nil {
			return ErrActionScope
		}
		f, err := in.Bind("name", "location", "personality")
		if err != nil {
			return err
		}
		name := strings.TrimSpace(f["name"])
		if name == "" {
			return fmt.Errorf("%w: blank character name", toolinput.ErrInputShape)
		}
		tools.Character.AddCharacter(name, state.Character{
			Location:    keyOf(f["location"]),
			Personality: f["personality"],
		})
		return nil

	case "move_character":
		if tools.Character == nil {
			return ErrActionScope
		}
		f, err := in.Bind("name", "location")
		if err != nil {
			return err
		}
		return tools.Character.MoveCharacter(f["name"], keyOf(f["location"]))

	case "story_event":
		if tools.Story == nil {
			return ErrActionScope
		}
		f, err := in.Bind("event")
		if err != nil {
			return err
		}
		tools.Story.AddStoryEvent(f["event"])
		return nil

	case "adjust_health":
		if tools.Story == nil {
			return ErrActionScope
		}
		var args healthArgs
		if err := decodeNumber(in, a.Args, "delta", &args, &args.Delta); err != nil {
			return err
		}
		if args.Delta == 0 {
			return nil
		}
		_, err := tools.Story.AdjustHealth(args.Delta)
		return err

	case "gain_experience":
		if tools.Story == nil {
			return ErrActionScope
		}
		var args experienceArgs
		if err := decodeNumber(in, a.Args, "points", &args, &args.Points); err != nil {
			return err
		}
		if args.Points <= 0 {
			return fmt.Errorf("%w: experience must be positive", toolinput.ErrInputShape)
		}
		tools.Story.AddExperience(args.Points)
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownAction, a.Op)
}

type healthArgs struct {
	Delta  int    `json:"delta"`
	Reason string `json:"reason"`
}

type experienceArgs struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

// decodeNumber reads a numeric argument. JSON objects are decoded strictly
// into args; any other shape binds field and parses it into n.
func decodeNumber(in toolinput.Input, raw, field string, args any, n *int) error {
	if in.Kind == toolinput.KindStructured {
		return toolinput.DecodeStrict(raw, args)
	}
	f, err := in.Bind(field)
	if err != nil {
		return err
	}
	v, err := strconv.Atoi(strings.TrimSpace(f[field]))
	if err != nil {
		return fmt.Errorf("%w: %s must be a whole number", toolinput.ErrInputShape, field)
	}
	*n = v
	return nil
}

// keyOf normalizes a location reference into a key: "Old Tower" -> "old_tower".
func keyOf(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
