// Package turn drives the pacing state machine of a session:
// beginning -> middle -> late -> climax -> ended.
package turn

import (
	"log/slog"

	"github.com/jwebster45206/story-crew/pkg/state"
)

// Controller advances the turn counter of a store and reports phase changes.
type Controller struct {
	store  *state.Store
	logger *slog.Logger
}

// NewController wraps a store.
func NewController(store *state.Store, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{store: store, logger: logger}
}

// Info returns the pacing view of the turn last played.
func (c *Controller) Info() state.TurnInfo {
	return c.store.TurnInfo()
}

// Phase returns the current phase, or PhaseEnded once the session is over.
func (c *Controller) Phase() state.Phase {
	if c.store.IsEnded() {
		return state.PhaseEnded
	}
	return c.store.TurnInfo().Phase
}

// Ended reports whether the session has concluded.
func (c *Controller) Ended() bool {
	return c.store.IsEnded()
}

// Upcoming returns the pacing view of the turn about to be played. Pacing
// guidance for a request is chosen from this, so the final turn gets climax
// guidance rather than the phase of the turn before it.
func (c *Controller) Upcoming() state.TurnInfo {
	info := c.store.TurnInfo()
	if info.GameEnded {
		return info
	}
	return state.ComputeTurnInfo(info.CurrentTurn+1, info.MaxTurns)
}

// Advance increments the turn. It returns state.ErrSessionEnded once the
// session has concluded and never changes the counter in that case.
func (c *Controller) Advance() (state.TurnInfo, error) {
	before := c.Phase()
	info, err := c.store.IncrementTurn()
	if err != nil {
		return info, err
	}

	after := c.Phase()
	if after != before {
		c.logger.Info("Phase changed",
			"session_id", c.store.ID(),
			"turn", info.CurrentTurn,
			"from", before,
			"to", after)
	}
	if info.GameEnded {
		c.logger.Info("Session concluded",
			"session_id", c.store.ID(),
			"turns", info.CurrentTurn)
	}
	return info, nil
}
