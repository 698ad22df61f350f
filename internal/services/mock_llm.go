package services

import (
	"context"
	"strings"
	"sync"

	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/prompts"
)

// MockLLMAPI is a mock implementation of LLMService for testing and for
// running without a provider.
type MockLLMAPI struct {
	InitModelFunc func(ctx context.Context, modelName string) error
	ChatFunc      func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error)

	// Track calls for testing
	InitModelCalls []string
	ChatCalls      []ChatCall

	mu sync.Mutex // protects all fields above
}

type ChatCall struct {
	Messages []chat.ChatMessage
}

var _ LLMService = (*MockLLMAPI)(nil)

// NewMockLLMAPI creates a new mock LLM service
func NewMockLLMAPI() *MockLLMAPI {
	return &MockLLMAPI{
		InitModelCalls: make([]string, 0),
		ChatCalls:      make([]ChatCall, 0),
	}
}

// InitModel mocks model initialization
func (m *MockLLMAPI) InitModel(ctx context.Context, modelName string) error {
	m.mu.Lock()
	m.InitModelCalls = append(m.InitModelCalls, modelName)
	fn := m.InitModelFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, modelName)
	}
	return nil
}

// Chat mocks response generation. Without a ChatFunc it answers with canned
// text for the collaborator role found in the system prompt.
func (m *MockLLMAPI) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	m.mu.Lock()
	m.ChatCalls = append(m.ChatCalls, ChatCall{Messages: messages})
	fn := m.ChatFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, messages)
	}
	return &chat.ChatResponse{Message: cannedReply(messages)}, nil
}

// Reset clears all call tracking
func (m *MockLLMAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelCalls = make([]string, 0)
	m.ChatCalls = make([]ChatCall, 0)
}

// SetInitModelError sets up the mock to return an error on InitModel
func (m *MockLLMAPI) SetInitModelError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitModelFunc = func(ctx context.Context, modelName string) error {
		return err
	}
}

// SetChatError sets up the mock to return an error on Chat
func (m *MockLLMAPI) SetChatError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return nil, err
	}
}

// SetChatResponse sets up the mock to always answer with message
func (m *MockLLMAPI) SetChatResponse(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatFunc = func(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
		return &chat.ChatResponse{Message: message}, nil
	}
}

// GetCalls returns a copy of the call tracking data in a thread-safe way
func (m *MockLLMAPI) GetCalls() ([]string, []ChatCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	initCalls := make([]string, len(m.InitModelCalls))
	copy(initCalls, m.InitModelCalls)

	chatCalls := make([]ChatCall, len(m.ChatCalls))
	copy(chatCalls, m.ChatCalls)

	return initCalls, chatCalls
}

func cannedReply(messages []chat.ChatMessage) string {
	var system, user string
	for _, msg := range messages {
		switch msg.Role {
		case chat.ChatRoleSystem:
			system += msg.Content
		case chat.ChatRoleUser:
			user = msg.Content
		}
	}
	opening := strings.Contains(user, "Current location: none yet")

	switch {
	case strings.HasPrefix(system, prompts.CoordinatorRole):
		return "Keep the scene grounded and give the player a clear next step."
	case strings.HasPrefix(system, prompts.WorldRole):
		if opening {
			return "A windswept crossroads stretches before you, roads leading north and east.\n" +
				"ACTIONS:\n" +
				`create_location: {"key": "crossroads", "name": "Crossroads", "description": "A windswept crossroads under a grey sky.", "exits": ["north", "east"]}` + "\n" +
				"move_player: crossroads"
		}
		return "The land shifts subtly as you move through it."
	case strings.HasPrefix(system, prompts.CharacterRole):
		if opening {
			return "A cloaked traveler named Wren leans on a signpost, watching you.\n" +
				"ACTIONS:\n" +
				`add_character: {"name": "Wren", "location": "crossroads", "personality": "wary but curious"}`
		}
		return "Those nearby watch you with interest."
	case strings.HasPrefix(system, prompts.StoryRole):
		return "Your journey continues, and the road ahead holds both promise and peril.\n" +
			"ACTIONS:\n" +
			"story_event: The adventure moved forward"
	case strings.HasPrefix(system, prompts.EpilogueRole):
		return "Your tale is told, and the roads fall quiet once more.\n\n*.*.*.*.*.*. THE END .*.*.*.*.*.*"
	case strings.HasPrefix(system, prompts.SummaryRole):
		return "So far you have wandered far and met curious folk along the way."
	case strings.HasPrefix(system, prompts.ImageRole):
		return "A misty crossroads at dawn, painted in soft watercolor."
	}
	return "Mock response"
}
