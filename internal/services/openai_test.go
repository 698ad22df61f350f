package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIService_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req OpenAIChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "story-model", req.Model)
		assert.Len(t, req.Messages, 2)

		_, _ = w.Write([]byte(`{"model":"story-model","choices":[{"index":0,"message":{"role":"assistant","content":"The bridge sways."},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	svc := NewOpenAIService("sk-test", server.URL+"/", "", discardLogger())
	require.NoError(t, svc.InitModel(context.Background(), "story-model"))

	resp, err := svc.Chat(context.Background(), []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: "You are the narrator."},
		{Role: chat.ChatRoleUser, Content: "Cross the bridge."},
	})
	require.NoError(t, err)
	assert.Equal(t, "The bridge sways.", resp.Message)
}

func TestOpenAIService_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"api error", http.StatusOK, `{"error":{"message":"bad model"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"refusal", http.StatusOK, `{"choices":[{"message":{"refusal":"no"}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewOpenAIService("sk-test", server.URL, "m", discardLogger())
			_, err := svc.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "hi"}})
			assert.Error(t, err)
		})
	}

	_, err := NewOpenAIService("sk-test", "", "m", discardLogger()).Chat(context.Background(), nil)
	assert.Error(t, err)
	assert.Error(t, NewOpenAIService("", "", "", discardLogger()).InitModel(context.Background(), ""))
}
