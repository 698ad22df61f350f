package actor

import (
	"testing"
)

func TestNewVitals(t *testing.T) {
	tests := []struct {
		name    string
		maxHP   int
		hp      int
		wantMax int
		wantHP  int
	}{
		{name: "full health", maxHP: 100, hp: 100, wantMax: 100, wantHP: 100},
		{name: "wounded", maxHP: 100, hp: 40, wantMax: 100, wantHP: 40},
		{name: "overheal clamps to max", maxHP: 50, hp: 80, wantMax: 50, wantHP: 50},
		{name: "zero max uses default", maxHP: 0, hp: 100, wantMax: DefaultMaxHP, wantHP: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewVitals("hero", tt.maxHP, tt.hp)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.MaxHP() != tt.wantMax {
				t.Errorf("MaxHP = %d, want %d", v.MaxHP(), tt.wantMax)
			}
			if v.HP() != tt.wantHP {
				t.Errorf("HP = %d, want %d", v.HP(), tt.wantHP)
			}
		})
	}
}

func TestVitals_Adjust(t *testing.T) {
	v, err := NewVitals("", 100, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hp, err := v.Adjust(-15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hp != 45 {
		t.Errorf("after damage HP = %d, want 45", hp)
	}

	hp, err = v.Adjust(500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hp != 100 {
		t.Errorf("after overheal HP = %d, want 100", hp)
	}

	if v.IsDown() {
		t.Error("player at full health should not be down")
	}
}
