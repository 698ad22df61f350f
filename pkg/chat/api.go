package chat

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// StartRequest begins a new session.
type StartRequest struct {
	Name     string `json:"name"`
	Theme    string `json:"theme,omitempty"`
	MaxTurns int    `json:"max_turns,omitempty"`
}

func (r *StartRequest) Validate() error {
	if r.MaxTurns < 0 {
		return fmt.Errorf("max_turns cannot be negative")
	}
	return nil
}

// Status is the session summary returned with every response.
type Status struct {
	Turn      int    `json:"turn"`
	MaxTurns  int    `json:"max_turns"`
	Location  string `json:"location"`
	Phase     string `json:"phase"`
	Health    int    `json:"health"`
	GameEnded bool   `json:"game_ended"`
}

// StartResponse carries the opening scene.
type StartResponse struct {
	Success      bool      `json:"success"`
	SessionID    uuid.UUID `json:"session_id"`
	InitialScene string    `json:"initial_scene"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
}

// CommandRequest is one player request within a session.
type CommandRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Command   string    `json:"command"`
}

func (r *CommandRequest) Validate() error {
	if r.SessionID == uuid.Nil {
		return fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(r.Command) == "" {
		return fmt.Errorf("command cannot be empty")
	}
	return nil
}

// CommandResponse is the reply to a CommandRequest.
type CommandResponse struct {
	Response  string `json:"response"`
	Image     string `json:"image,omitempty"`
	Status    Status `json:"status"`
	GameEnded bool   `json:"game_ended"`
	Degraded  bool   `json:"degraded,omitempty"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}
