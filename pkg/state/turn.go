package state

import (
	"fmt"

	"github.com/samber/oops"
)

// Phase is the pacing stage derived from turn progress.
type Phase string

const (
	PhaseBeginning Phase = "beginning"
	PhaseMiddle    Phase = "middle"
	PhaseLate      Phase = "late"
	PhaseClimax    Phase = "climax"
	PhaseEnded     Phase = "ended"
)

// Rank orders phases; a session never moves to a lower rank.
func (p Phase) Rank() int {
	switch p {
	case PhaseBeginning:
		return 0
	case PhaseMiddle:
		return 1
	case PhaseLate:
		return 2
	case PhaseClimax:
		return 3
	case PhaseEnded:
		return 4
	default:
		return -1
	}
}

// TurnInfo is the pacing view of a session.
type TurnInfo struct {
	CurrentTurn    int     `json:"current_turn" yaml:"current_turn"`
	MaxTurns       int     `json:"max_turns" yaml:"max_turns"`
	TurnsRemaining int     `json:"turns_remaining" yaml:"turns_remaining"`
	Progress       float64 `json:"progress" yaml:"progress"`
	Phase          Phase   `json:"phase" yaml:"phase"`
	GameEnded      bool    `json:"game_ended" yaml:"game_ended"`
}

// IsFinalTurn reports whether this is the last playable turn.
func (ti TurnInfo) IsFinalTurn() bool {
	return ti.MaxTurns > 0 && ti.CurrentTurn == ti.MaxTurns
}

// ComputeTurnInfo derives pacing from the current and maximum turn.
// Phase boundaries are inclusive: progress <= 0.2 is beginning, <= 0.6
// middle, <= 0.8 late, anything above is climax.
func ComputeTurnInfo(current, maxTurns int) TurnInfo {
	if maxTurns <= 0 {
		return TurnInfo{CurrentTurn: current, Progress: 1, Phase: PhaseClimax, GameEnded: true}
	}
	progress := float64(current) / float64(maxTurns)
	remaining := maxTurns - current
	if remaining < 0 {
		remaining = 0
	}

	var phase Phase
	switch {
	case progress <= 0.2:
		phase = PhaseBeginning
	case progress <= 0.6:
		phase = PhaseMiddle
	case progress <= 0.8:
		phase = PhaseLate
	default:
		phase = PhaseClimax
	}

	return TurnInfo{
		CurrentTurn:    current,
		MaxTurns:       maxTurns,
		TurnsRemaining: remaining,
		Progress:       progress,
		Phase:          phase,
		GameEnded:      current >= maxTurns,
	}
}

// TurnInfo returns the pacing view of the current turn.
func (s *Store) TurnInfo() TurnInfo {
	return ComputeTurnInfo(s.gs.TurnCounter.CurrentTurn, s.gs.TurnCounter.MaxTurns)
}

// IsEnded reports whether the final turn has been played.
func (s *Store) IsEnded() bool {
	return s.gs.TurnCounter.GameEnded
}

// IncrementTurn advances the turn counter by one. It is the only operation
// that changes the counter and it refuses once the session has ended.
func (s *Store) IncrementTurn() (TurnInfo, error) {
	tc := &s.gs.TurnCounter
	if tc.GameEnded {
		return s.TurnInfo(), oops.Code("SESSION_ENDED").
			With("session_id", s.gs.ID).
			With("turn", tc.CurrentTurn).
			Wrap(ErrSessionEnded)
	}

	tc.CurrentTurn++
	s.LogEvent(fmt.Sprintf("Turn %d begins", tc.CurrentTurn))
	if tc.CurrentTurn >= tc.MaxTurns {
		tc.GameEnded = true
		s.LogEvent("Game reaches its conclusion")
	}
	info := s.TurnInfo()
	s.logger.Debug("Turn advanced",
		"session_id", s.gs.ID,
		"turn", info.CurrentTurn,
		"max_turns", info.MaxTurns,
		"phase", info.Phase,
		"game_ended", info.GameEnded)
	return info, nil
}
