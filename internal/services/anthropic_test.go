package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/prompts"
)

func TestNewAnthropicService(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewAnthropicService("test-api-key", "", "", log)
	if service.baseURL != DefaultAnthropicBaseURL {
		t.Errorf("Expected default base URL, got %s", service.baseURL)
	}
	if service.modelName != DefaultAnthropicModel {
		t.Errorf("Expected default model, got %s", service.modelName)
	}

	service = NewAnthropicService("test-api-key", "http://proxy.local/v1/", "claude-test", log)
	if service.baseURL != "http://proxy.local/v1" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", service.baseURL)
	}
	if service.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
}

func TestAnthropicService_InitModel(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", "", "claude-test", log)

	if err := service.InitModel(context.Background(), "test-model"); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if service.modelName != "test-model" {
		t.Errorf("Expected model name to be replaced, got %s", service.modelName)
	}

	if err := NewAnthropicService("", "", "m", log).InitModel(context.Background(), ""); err == nil {
		t.Error("Expected error without an API key")
	}
}

func TestAnthropicService_BuildRequest(t *testing.T) {
	service := NewAnthropicService("test-key", "", "claude-test", slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name         string
		messages     []chat.ChatMessage
		wantSystem   []string
		wantRoles    []string
		wantLastUser string
		wantErr      bool
	}{
		{
			name: "collaborator call",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: prompts.WorldRole},
				{Role: chat.ChatRoleUser, Content: "What the team has produced so far:\nstory: a storm"},
				{Role: chat.ChatRoleUser, Content: "Describe the harbor."},
			},
			wantSystem:   []string{prompts.WorldRole},
			wantRoles:    []string{chat.ChatRoleUser},
			wantLastUser: "What the team has produced so far:\nstory: a storm\n\nDescribe the harbor.",
		},
		{
			name: "multiple system messages",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: "You are the narrator."},
				{Role: chat.ChatRoleUser, Content: "Hello"},
				{Role: chat.ChatRoleSystem, Content: "Be concise."},
				{Role: chat.ChatRoleAgent, Content: "Hi there!"},
				{Role: chat.ChatRoleUser, Content: "Go on"},
			},
			wantSystem:   []string{"You are the narrator.", "Be concise."},
			wantRoles:    []string{chat.ChatRoleUser, chat.ChatRoleAgent, chat.ChatRoleUser},
			wantLastUser: "Go on",
		},
		{
			name: "blank messages are dropped",
			messages: []chat.ChatMessage{
				{Role: chat.ChatRoleSystem, Content: "  "},
				{Role: chat.ChatRoleUser, Content: "Look around"},
			},
			wantRoles:    []string{chat.ChatRoleUser},
			wantLastUser: "Look around",
		},
		{
			name:     "system only",
			messages: []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: "rules"}},
			wantErr:  true,
		},
		{
			name:     "starts with the assistant",
			messages: []chat.ChatMessage{{Role: chat.ChatRoleAgent, Content: "Hi"}},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := service.buildRequest(tt.messages)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if len(req.System) != len(tt.wantSystem) {
				t.Fatalf("Expected %d system blocks, got %+v", len(tt.wantSystem), req.System)
			}
			for i, want := range tt.wantSystem {
				if req.System[i].Text != want {
					t.Errorf("System block %d = %q, want %q", i, req.System[i].Text, want)
				}
				cached := req.System[i].CacheControl != nil
				if cached != (i == len(tt.wantSystem)-1) {
					t.Errorf("System block %d cached = %v", i, cached)
				}
			}

			if len(req.Messages) != len(tt.wantRoles) {
				t.Fatalf("Expected %d messages, got %+v", len(tt.wantRoles), req.Messages)
			}
			for i, role := range tt.wantRoles {
				if req.Messages[i].Role != role {
					t.Errorf("Message %d role = %s, want %s", i, req.Messages[i].Role, role)
				}
			}
			if last := req.Messages[len(req.Messages)-1].Content; last != tt.wantLastUser {
				t.Errorf("Last message = %q, want %q", last, tt.wantLastUser)
			}
		})
	}
}

func TestAnthropicService_Chat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("Missing API headers")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"id": "msg_01ABC123",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "The gate "}, {"type": "text", "text": "creaks open."}],
			"model": "claude-test",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5, "cache_read_input_tokens": 8}
		}`))
	}))
	defer server.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := NewAnthropicService("test-key", server.URL, "claude-test", log)

	resp, err := service.Chat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "You are the world builder."},
		{Role: chat.ChatRoleUser, Content: "Open the gate."},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Message != "The gate creaks open." {
		t.Errorf("Unexpected message %q", resp.Message)
	}

	if got["model"] != "claude-test" {
		t.Errorf("Unexpected model %v", got["model"])
	}
	system, ok := got["system"].([]any)
	if !ok || len(system) != 1 {
		t.Fatalf("Unexpected system blocks %v", got["system"])
	}
	block := system[0].(map[string]any)
	if block["text"] != "You are the world builder." || block["cache_control"] == nil {
		t.Errorf("Unexpected system block %v", block)
	}
	if msgs, ok := got["messages"].([]any); !ok || len(msgs) != 1 {
		t.Errorf("Unexpected messages %v", got["messages"])
	}
}

func TestAnthropicService_ChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"type": "error", "error": {"type": "rate_limit_error", "message": "slow down"}}`},
		{"http error without body", http.StatusBadGateway, `<html>bad gateway</html>`},
		{"api error", http.StatusOK, `{"error": {"type": "overloaded_error", "message": "busy"}}`},
		{"malformed", http.StatusOK, `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewAnthropicService("k", server.URL, "m", slog.New(slog.NewTextHandler(io.Discard, nil)))
			if _, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}}); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
