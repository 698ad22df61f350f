package state

import (
	"fmt"
	"slices"
	"sort"

	"github.com/samber/oops"
)

// AddLocation inserts or replaces the location under key. Missing fields get
// defaults. The first location ever added becomes the player's position.
func (s *Store) AddLocation(key string, loc Location) {
	if loc.Name == "" {
		loc.Name = key
	}
	if loc.Description == "" {
		loc.Description = DefaultLocationDescription
	}
	loc.Exits = dedupe(loc.Exits)
	if loc.Items == nil {
		loc.Items = make([]Item, 0)
	} else {
		loc.Items = slices.Clone(loc.Items)
	}

	_, existed := s.gs.World.Locations[key]
	s.gs.World.Locations[key] = loc
	if existed {
		s.logger.Debug("Location updated", "session_id", s.gs.ID, "location", key)
		s.LogEvent("Location updated: " + key)
	} else {
		s.logger.Debug("Location added", "session_id", s.gs.ID, "location", key)
		s.LogEvent("Location added: " + key)
	}

	if s.gs.Player.Location == "" {
		s.gs.Player.Location = key
		s.gs.World.CurrentLocation = key
		s.LogEvent("Player starts at " + key)
	}
}

// SetCurrentLocation moves the player. Unknown keys are rejected and
// nothing changes.
func (s *Store) SetCurrentLocation(key string) error {
	if _, ok := s.gs.World.Locations[key]; !ok {
		return oops.Code("LOCATION_NOT_FOUND").
			With("location", key).
			Wrap(ErrLocationNotFound)
	}
	from := s.gs.Player.Location
	s.gs.Player.Location = key
	s.gs.World.CurrentLocation = key
	s.LogEvent(fmt.Sprintf("Player moved from %s to %s", displayKey(from), key))
	return nil
}

// LocationExists reports whether key names a known location.
func (s *Store) LocationExists(key string) bool {
	_, ok := s.gs.World.Locations[key]
	return ok
}

// Location returns a copy of the location under key.
func (s *Store) Location(key string) (Location, bool) {
	loc, ok := s.gs.World.Locations[key]
	if !ok {
		return Location{}, false
	}
	return copyLocation(loc), true
}

// CurrentLocation returns the player's location key and a copy of it.
func (s *Store) CurrentLocation() (string, Location, bool) {
	key := s.gs.Player.Location
	loc, ok := s.Location(key)
	return key, loc, ok
}

// Locations returns a copy of every known location.
func (s *Store) Locations() map[string]Location {
	out := make(map[string]Location, len(s.gs.World.Locations))
	for k, v := range s.gs.World.Locations {
		out[k] = copyLocation(v)
	}
	return out
}

// LocationKeys returns every location key in sorted order.
func (s *Store) LocationKeys() []string {
	keys := make([]string, 0, len(s.gs.World.Locations))
	for k := range s.gs.World.Locations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddItemToLocation places item in the named location.
func (s *Store) AddItemToLocation(key string, item Item) error {
	loc, ok := s.gs.World.Locations[key]
	if !ok {
		return oops.Code("LOCATION_NOT_FOUND").
			With("location", key).
			With("item", item.Name).
			Wrap(ErrLocationNotFound)
	}
	loc.Items = append(loc.Items, item)
	s.gs.World.Locations[key] = loc
	s.LogEvent(fmt.Sprintf("Item %s placed in %s", item.Name, key))
	return nil
}

// RemoveItemFromLocation removes the first item named itemName and returns it.
func (s *Store) RemoveItemFromLocation(key, itemName string) (Item, error) {
	loc, ok := s.gs.World.Locations[key]
	if !ok {
		return Item{}, oops.Code("LOCATION_NOT_FOUND").
			With("location", key).
			With("item", itemName).
			Wrap(ErrLocationNotFound)
	}
	idx := slices.IndexFunc(loc.Items, func(it Item) bool { return it.Name == itemName })
	if idx < 0 {
		return Item{}, oops.Code("ITEM_NOT_FOUND").
			With("location", key).
			With("item", itemName).
			Wrap(ErrItemNotFound)
	}
	item := loc.Items[idx]
	loc.Items = slices.Delete(slices.Clone(loc.Items), idx, idx+1)
	s.gs.World.Locations[key] = loc
	s.LogEvent(fmt.Sprintf("Item %s removed from %s", itemName, key))
	return item, nil
}

// AddExit adds direction to the location's exits. Adding an existing exit is
// a no-op and returns false.
func (s *Store) AddExit(key, direction string) (bool, error) {
	loc, ok := s.gs.World.Locations[key]
	if !ok {
		return false, oops.Code("LOCATION_NOT_FOUND").
			With("location", key).
			With("exit", direction).
			Wrap(ErrLocationNotFound)
	}
	if slices.Contains(loc.Exits, direction) {
		return false, nil
	}
	loc.Exits = append(slices.Clone(loc.Exits), direction)
	s.gs.World.Locations[key] = loc
	s.LogEvent(fmt.Sprintf("Exit %s added to %s", direction, key))
	return true, nil
}

// TakeItem moves an item from the player's current location into the
// inventory.
func (s *Store) TakeItem(itemName string) (Item, error) {
	item, err := s.RemoveItemFromLocation(s.gs.Player.Location, itemName)
	if err != nil {
		return Item{}, err
	}
	s.gs.Player.Inventory = append(s.gs.Player.Inventory, item.Name)
	if item.Description != "" {
		if s.gs.Player.ItemNotes == nil {
			s.gs.Player.ItemNotes = make(map[string]string)
		}
		s.gs.Player.ItemNotes[item.Name] = item.Description
	}
	s.LogEvent("Player took " + item.Name)
	return item, nil
}

// DropItem moves an item from the inventory into the player's current location.
func (s *Store) DropItem(itemName string) error {
	idx := slices.Index(s.gs.Player.Inventory, itemName)
	if idx < 0 {
		return oops.Code("ITEM_NOT_FOUND").
			With("item", itemName).
			With("inventory", true).
			Wrap(ErrItemNotFound)
	}
	item := Item{Name: itemName, Description: s.gs.Player.ItemNotes[itemName]}
	if err := s.AddItemToLocation(s.gs.Player.Location, item); err != nil {
		return err
	}
	s.gs.Player.Inventory = slices.Delete(s.gs.Player.Inventory, idx, idx+1)
	if !slices.Contains(s.gs.Player.Inventory, itemName) {
		delete(s.gs.Player.ItemNotes, itemName)
	}
	s.LogEvent("Player dropped " + itemName)
	return nil
}

func copyLocation(loc Location) Location {
	loc.Exits = slices.Clone(loc.Exits)
	loc.Items = slices.Clone(loc.Items)
	if loc.Exits == nil {
		loc.Exits = make([]string, 0)
	}
	if loc.Items == nil {
		loc.Items = make([]Item, 0)
	}
	return loc
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func displayKey(key string) string {
	if key == "" {
		return "nowhere"
	}
	return key
}
