package state

import (
	"fmt"
	"maps"
	"sort"

	"github.com/samber/oops"
)

// AddCharacter creates or updates the character under name. Updates merge
// into the existing record: empty fields keep their previous value and
// attribute/dialogue maps are merged key by key.
func (s *Store) AddCharacter(name string, c Character) {
	c.Name = name
	existing, ok := s.gs.Characters[name]
	if !ok {
		if c.Attributes == nil {
			c.Attributes = make(map[string]string)
		} else {
			c.Attributes = maps.Clone(c.Attributes)
		}
		if c.Dialogue == nil {
			c.Dialogue = make(map[string]string)
		} else {
			c.Dialogue = maps.Clone(c.Dialogue)
		}
		s.gs.Characters[name] = c
		s.logger.Debug("Character added", "session_id", s.gs.ID, "character", name, "location", c.Location)
		s.LogEvent(fmt.Sprintf("Character %s added at %s", name, displayKey(c.Location)))
		return
	}

	merged := copyCharacter(existing)
	if c.Location != "" {
		merged.Location = c.Location
	}
	if c.Personality != "" {
		merged.Personality = c.Personality
	}
	maps.Copy(merged.Attributes, c.Attributes)
	maps.Copy(merged.Dialogue, c.Dialogue)
	s.gs.Characters[name] = merged
	s.logger.Debug("Character updated", "session_id", s.gs.ID, "character", name)
	s.LogEvent("Character updated: " + name)
}

// MoveCharacter relocates an existing character to a known location.
func (s *Store) MoveCharacter(name, location string) error {
	c, ok := s.gs.Characters[name]
	if !ok {
		return oops.Code("CHARACTER_NOT_FOUND").
			With("character", name).
			Wrap(ErrCharacterNotFound)
	}
	if _, ok := s.gs.World.Locations[location]; !ok {
		return oops.Code("LOCATION_NOT_FOUND").
			With("character", name).
			With("location", location).
			Wrap(ErrLocationNotFound)
	}
	c.Location = location
	s.gs.Characters[name] = c
	s.LogEvent(fmt.Sprintf("Character %s moved to %s", name, location))
	return nil
}

// RemoveCharacter deletes a character. It is the only way a character leaves
// the session.
func (s *Store) RemoveCharacter(name string) error {
	if _, ok := s.gs.Characters[name]; !ok {
		return oops.Code("CHARACTER_NOT_FOUND").
			With("character", name).
			Wrap(ErrCharacterNotFound)
	}
	delete(s.gs.Characters, name)
	s.LogEvent("Character removed: " + name)
	return nil
}

// Character returns a copy of the named character.
func (s *Store) Character(name string) (Character, bool) {
	c, ok := s.gs.Characters[name]
	if !ok {
		return Character{}, false
	}
	return copyCharacter(c), true
}

// Characters returns a copy of every character keyed by name.
func (s *Store) Characters() map[string]Character {
	out := make(map[string]Character, len(s.gs.Characters))
	for k, v := range s.gs.Characters {
		out[k] = copyCharacter(v)
	}
	return out
}

// CharacterNames returns every character name in sorted order.
func (s *Store) CharacterNames() []string {
	names := make([]string, 0, len(s.gs.Characters))
	for name := range s.gs.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CharactersAt returns the characters at location, sorted by name.
func (s *Store) CharactersAt(location string) []Character {
	out := make([]Character, 0)
	if location == "" {
		return out
	}
	for _, c := range s.gs.Characters {
		if c.Location == location {
			out = append(out, copyCharacter(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CharactersPresent returns the characters sharing the player's location.
func (s *Store) CharactersPresent() []Character {
	return s.CharactersAt(s.gs.Player.Location)
}

func copyCharacter(c Character) Character {
	c.Attributes = maps.Clone(c.Attributes)
	c.Dialogue = maps.Clone(c.Dialogue)
	if c.Attributes == nil {
		c.Attributes = make(map[string]string)
	}
	if c.Dialogue == nil {
		c.Dialogue = make(map[string]string)
	}
	return c
}
