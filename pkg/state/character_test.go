package state

import (
	"errors"
	"testing"
)

func TestAddCharacter_UpsertMerges(t *testing.T) {
	s := newTestStore(5)
	s.AddLocation("tower", Location{})
	s.AddLocation("library", Location{})

	s.AddCharacter("Zephyr", Character{
		Location:    "tower",
		Personality: "cryptic",
		Attributes:  map[string]string{"role": "wizard"},
		Dialogue:    map[string]string{"greeting": "The stars are restless."},
	})
	s.AddCharacter("Zephyr", Character{
		Attributes: map[string]string{"mood": "wary"},
	})

	c, ok := s.Character("Zephyr")
	if !ok {
		t.Fatal("Zephyr should exist")
	}
	if c.Location != "tower" {
		t.Errorf("update without a location should keep the old one, got %q", c.Location)
	}
	if c.Personality != "cryptic" {
		t.Errorf("Personality = %q", c.Personality)
	}
	if c.Attributes["role"] != "wizard" || c.Attributes["mood"] != "wary" {
		t.Errorf("attributes not merged: %v", c.Attributes)
	}
	if c.Dialogue["greeting"] == "" {
		t.Errorf("dialogue lost on update: %v", c.Dialogue)
	}

	s.AddCharacter("Zephyr", Character{Location: "library"})
	c, _ = s.Character("Zephyr")
	if c.Location != "library" {
		t.Errorf("explicit location update ignored, got %q", c.Location)
	}
}

func TestCharacters_NeverVanishWithoutRemove(t *testing.T) {
	s := newTestStore(5)
	s.AddLocation("camp", Location{})
	s.AddCharacter("Bryn", Character{Location: "camp"})
	s.AddCharacter("Osk", Character{Location: "camp"})

	s.AddCharacter("Bryn", Character{})
	mustNoErr(t, s.MoveCharacter("Osk", "camp"))
	if len(s.Characters()) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(s.Characters()))
	}

	mustNoErr(t, s.RemoveCharacter("Osk"))
	if _, ok := s.Character("Osk"); ok {
		t.Error("Osk should be removed")
	}
	if names := s.CharacterNames(); len(names) != 1 || names[0] != "Bryn" {
		t.Errorf("CharacterNames = %v", names)
	}
}

func TestMoveCharacter(t *testing.T) {
	s := newTestStore(5)
	s.AddLocation("pier", Location{})
	s.AddLocation("boat", Location{})
	s.AddCharacter("Cass", Character{Location: "pier"})

	mustNoErr(t, s.MoveCharacter("Cass", "boat"))
	c, _ := s.Character("Cass")
	if c.Location != "boat" {
		t.Errorf("Location = %q, want boat", c.Location)
	}

	if err := s.MoveCharacter("Cass", "ocean"); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("move to unknown location: %v", err)
	}
	c, _ = s.Character("Cass")
	if c.Location != "boat" {
		t.Error("failed move changed the character")
	}
}

func TestCharactersPresent(t *testing.T) {
	s := newTestStore(5)
	s.AddLocation("hall", Location{})
	s.AddLocation("kitchen", Location{})
	s.AddCharacter("Wren", Character{Location: "hall"})
	s.AddCharacter("Ada", Character{Location: "hall"})
	s.AddCharacter("Cook", Character{Location: "kitchen"})

	present := s.CharactersPresent()
	if len(present) != 2 {
		t.Fatalf("expected 2 present, got %d", len(present))
	}
	if present[0].Name != "Ada" || present[1].Name != "Wren" {
		t.Errorf("present characters should be sorted by name: %v, %v", present[0].Name, present[1].Name)
	}

	mustNoErr(t, s.SetCurrentLocation("kitchen"))
	present = s.CharactersPresent()
	if len(present) != 1 || present[0].Name != "Cook" {
		t.Errorf("present in kitchen = %+v", present)
	}
}

func TestCharacter_ReturnsCopy(t *testing.T) {
	s := newTestStore(5)
	s.AddCharacter("Ivo", Character{Attributes: map[string]string{"trait": "loyal"}})

	c, _ := s.Character("Ivo")
	c.Attributes["trait"] = "treacherous"

	c, _ = s.Character("Ivo")
	if c.Attributes["trait"] != "loyal" {
		t.Error("character attributes modified through a copy")
	}
}
