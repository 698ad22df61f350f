package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/prompts"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultCollaboratorRetries = 2
	defaultRetryDelay          = 500 * time.Millisecond
)

var ErrEmptyNarrative = errors.New("collaborator reply had no narrative")

// LLMCollaborator generates content for one capability with an LLM. State
// changes the model requests in its ACTIONS block are applied through the
// request's scoped toolbox.
type LLMCollaborator struct {
	llm        LLMService
	capability capability.Capability
	retries    uint64
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ capability.Handler = (*LLMCollaborator)(nil)

func NewLLMCollaborator(llm LLMService, c capability.Capability, retries int, logger *slog.Logger) *LLMCollaborator {
	if retries < 0 {
		retries = 0
	}
	return &LLMCollaborator{
		llm:        llm,
		capability: c,
		retries:    uint64(retries),
		retryDelay: defaultRetryDelay,
		logger:     logger,
	}
}

// Messages builds the conversation sent for req.
func (lc *LLMCollaborator) Messages(req capability.Request) []chat.ChatMessage {
	system := req.Role
	if system == "" {
		system = prompts.Role(req.Capability)
		if protocol := prompts.ActionProtocol(req.Capability); protocol != "" {
			system += "\n\n" + protocol
		}
	}

	msgs := []chat.ChatMessage{{Role: chat.ChatRoleSystem, Content: system}}
	if req.Context != "" {
		msgs = append(msgs, chat.ChatMessage{Role: chat.ChatRoleUser, Content: "What the team has produced so far:\n" + req.Context})
	}
	msgs = append(msgs, chat.ChatMessage{Role: chat.ChatRoleUser, Content: req.Instruction})
	return msgs
}

// Generate calls the LLM, retrying transient failures, and applies any
// requested actions once a usable reply arrives.
func (lc *LLMCollaborator) Generate(ctx context.Context, req capability.Request) (string, error) {
	if req.Capability == "" {
		req.Capability = lc.capability
	}
	msgs := lc.Messages(req)

	var narrative string
	var actions []capability.Action
	attempt := 0
	backoff := retry.WithMaxRetries(lc.retries, retry.NewConstant(lc.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := lc.llm.Chat(ctx, msgs)
		if err != nil {
			lc.logger.Warn("Collaborator call failed",
				"capability", req.Capability,
				"attempt", attempt,
				"error", err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return retry.RetryableError(err)
		}
		narrative, actions = capability.SplitActions(resp.Message)
		if narrative == "" {
			return retry.RetryableError(ErrEmptyNarrative)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s collaborator failed after %d attempts: %w", req.Capability, attempt, err)
	}

	if len(actions) > 0 {
		rejected := capability.ApplyActions(req.Tools, actions, lc.logger)
		lc.logger.Debug("Collaborator actions applied",
			"capability", req.Capability,
			"requested", len(actions),
			"rejected", len(rejected))
	}
	return narrative, nil
}

// NewRegistry binds an LLM collaborator to every capability.
func NewRegistry(llm LLMService, retries int, logger *slog.Logger) *capability.Registry {
	reg := capability.NewRegistry()
	for _, c := range capability.All {
		reg.Register(c, NewLLMCollaborator(llm, c, retries, logger))
	}
	return reg
}
