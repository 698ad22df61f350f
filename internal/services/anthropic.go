package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jwebster45206/story-crew/pkg/chat"
)

const (
	DefaultAnthropicBaseURL     = "https://api.anthropic.com/v1"
	DefaultAnthropicModel       = "claude-sonnet-4-5"
	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 1024

	anthropicVersion = "2023-06-01"
)

// AnthropicService implements LLMService for the Anthropic messages API.
// Each collaborator's role prompt is sent as a cached system block, since it
// repeats on every call for that capability.
type AnthropicService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*AnthropicService)(nil)

type anthropicCacheControl struct {
	Type string `json:"type"`
}

type anthropicSystemBlock struct {
	Type         string                 `json:"type"`
	Text         string                 `json:"text"`
	CacheControl *anthropicCacheControl `json:"cache_control,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string                 `json:"model"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
	System      []anthropicSystemBlock `json:"system,omitempty"`
	Messages    []anthropicMessage     `json:"messages"`
}

type anthropicResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens          int `json:"input_tokens"`
		OutputTokens         int `json:"output_tokens"`
		CacheReadInputTokens int `json:"cache_read_input_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicService creates a client for baseURL. An empty baseURL targets
// the public API.
func NewAnthropicService(apiKey, baseURL, modelName string, logger *slog.Logger) *AnthropicService {
	if baseURL == "" {
		baseURL = DefaultAnthropicBaseURL
	}
	if modelName == "" {
		modelName = DefaultAnthropicModel
	}
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
		logger: logger,
	}
}

func (a *AnthropicService) InitModel(ctx context.Context, modelName string) error {
	if a.apiKey == "" {
		return fmt.Errorf("anthropic API key is not set")
	}
	if modelName != "" {
		a.modelName = modelName
	}
	return nil
}

// buildRequest moves system messages into cached system blocks and folds
// consecutive turns from the same speaker into one message. The collaborator
// sends team context and its instruction as two user turns.
func (a *AnthropicService) buildRequest(messages []chat.ChatMessage) (anthropicRequest, error) {
	req := anthropicRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: DefaultAnthropicTemperature,
	}

	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		if msg.Role == chat.ChatRoleSystem {
			req.System = append(req.System, anthropicSystemBlock{Type: "text", Text: content})
			continue
		}
		role := chat.ChatRoleUser
		if msg.Role == chat.ChatRoleAgent {
			role = chat.ChatRoleAgent
		}
		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == role {
			req.Messages[n-1].Content += "\n\n" + content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: role, Content: content})
	}

	if len(req.Messages) == 0 || req.Messages[0].Role != chat.ChatRoleUser {
		return anthropicRequest{}, fmt.Errorf("conversation must start with a user message")
	}
	if n := len(req.System); n > 0 {
		req.System[n-1].CacheControl = &anthropicCacheControl{Type: "ephemeral"}
	}
	return req, nil
}

// Chat generates a response with the messages endpoint
func (a *AnthropicService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	anthropicReq, err := a.buildRequest(messages)
	if err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var out anthropicResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("API error (%s): %s", out.Error.Type, out.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var text strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if out.StopReason == "max_tokens" {
		a.logger.Warn("Anthropic reply was cut off", "model", out.Model, "max_tokens", anthropicReq.MaxTokens)
	}

	a.logger.Debug("Anthropic response received",
		"model", out.Model,
		"stop_reason", out.StopReason,
		"input_tokens", out.Usage.InputTokens,
		"cached_tokens", out.Usage.CacheReadInputTokens,
		"output_tokens", out.Usage.OutputTokens)

	return &chat.ChatResponse{
		Message: text.String(),
	}, nil
}
