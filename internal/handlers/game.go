package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/engine"
)

// writeJSON encodes body with the given status code.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err, "status", status)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, chat.ErrorResponse{Error: msg})
}

// StartHandler begins new sessions.
type StartHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewStartHandler(manager *engine.Manager, logger *slog.Logger) *StartHandler {
	return &StartHandler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles POST /start
func (h *StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for start endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid start request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'name' field.")
		return
	}

	sess, resp, err := h.manager.Start(r.Context(), request)
	if err != nil {
		h.logger.Warn("Failed to start session", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrUnknownTheme) || request.Validate() != nil {
			status = http.StatusBadRequest
		}
		writeJSON(w, h.logger, status, chat.StartResponse{Success: false, Error: err.Error()})
		return
	}

	h.logger.Info("Session started via API",
		"session_id", sess.ID(),
		"degraded", resp.Degraded)
	writeJSON(w, h.logger, http.StatusOK, chat.StartResponse{
		Success:      true,
		SessionID:    sess.ID(),
		InitialScene: resp.Text,
		Status:       resp.Status,
	})
}

// CommandHandler routes a player request to its session.
type CommandHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewCommandHandler(manager *engine.Manager, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles POST /command
func (h *CommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for command endpoint",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var request chat.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.logger.Warn("Invalid command request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body. Expected JSON with 'session_id' and 'command' fields.")
		return
	}
	if err := request.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.manager.Handle(r.Context(), request.SessionID, request.Command)
	if errors.Is(err, engine.ErrSessionNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Session not found.")
		return
	}
	if err != nil {
		h.logger.Error("Failed to handle command",
			"session_id", request.SessionID,
			"error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process command. Please try again.")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, chat.CommandResponse{
		Response:  resp.Text,
		Image:     resp.Image,
		Status:    resp.Status,
		GameEnded: resp.GameEnded,
		Degraded:  resp.Degraded,
	})
}

// SessionHandler exposes session status and deletion.
type SessionHandler struct {
	manager *engine.Manager
	logger  *slog.Logger
}

func NewSessionHandler(manager *engine.Manager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		logger:  logger,
	}
}

// ServeHTTP handles requests for a single session
// Routes:
// GET /v1/sessions/{id}    - Session status
// DELETE /v1/sessions/{id} - Forget the session
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch r.Method {
	case http.MethodGet:
		sess, err := h.manager.Get(r.Context(), id)
		if errors.Is(err, engine.ErrSessionNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found.")
			return
		}
		if err != nil {
			h.logger.Error("Failed to load session", "session_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session.")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, sess.Status())

	case http.MethodDelete:
		if err := h.manager.Delete(r.Context(), id); err != nil {
			h.logger.Error("Failed to delete session", "session_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session.")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		h.logger.Warn("Method not allowed for session endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
	}
}
