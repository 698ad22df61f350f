// Package engine ties the state store, turn controller, dispatcher and
// synthesizer into a playable session.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/internal/logger"
	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/dispatch"
	"github.com/jwebster45206/story-crew/pkg/intent"
	"github.com/jwebster45206/story-crew/pkg/prompts"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/jwebster45206/story-crew/pkg/storage"
	"github.com/jwebster45206/story-crew/pkg/synth"
	"github.com/jwebster45206/story-crew/pkg/turn"
)

const (
	DefaultPlayerName = "Traveler"

	// StartingLocationKey is used when the opening produced no location.
	StartingLocationKey = "starting_point"

	// ErrorResponse is returned when a request could not be processed at all.
	ErrorResponse = "Something went wrong while telling your story. Please try again."

	emptyInputHint   = "You pause, unsure what to do. Type help to see what you can do."
	resultEventLimit = 100
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrUnknownTheme   = errors.New("unknown theme")
)

// Response is what the player sees after a request.
type Response struct {
	Text      string
	Image     string
	Status    chat.Status
	GameEnded bool
	// Degraded is set when a collaborator failed and a fallback was returned.
	Degraded bool
	// Local responses were answered from state without a turn.
	Local bool
	Trace []synth.Stage
}

// Options configures a new session.
type Options struct {
	MaxTurns     int
	Theme        string
	HistoryLimit int
	Images       bool
	StageTimeout time.Duration
	Recorder     Recorder
	Publisher    Publisher
	Logger       *slog.Logger
}

// Session is one interactive story. Requests are processed one at a time.
type Session struct {
	mu         sync.Mutex
	store      *state.Store
	turns      *turn.Controller
	dispatcher *dispatch.Dispatcher
	synth      *synth.Synthesizer
	registry   *capability.Registry
	recorder   Recorder
	publisher  Publisher
	timeout    time.Duration
	logger     *slog.Logger
	started    bool
}

// NewSession creates a session that has not started yet.
func NewSession(registry *capability.Registry, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	theme := opts.Theme
	if theme == "" {
		theme = prompts.DefaultThemeID
	}
	if _, ok := prompts.LookupTheme(theme); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, theme)
	}
	timeout := opts.StageTimeout
	if timeout <= 0 {
		timeout = synth.DefaultStageTimeout
	}

	store := state.NewStore(opts.MaxTurns, log)
	store.SetTheme(theme)

	s := &Session{
		store:      store,
		turns:      turn.NewController(store, log),
		dispatcher: dispatch.New(log).WithImages(opts.Images).WithHistoryLimit(opts.HistoryLimit),
		synth:      synth.New(registry, log).WithTimeout(timeout),
		registry:   registry,
		recorder:   opts.Recorder,
		publisher:  opts.Publisher,
		timeout:    timeout,
		logger:     log,
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.publisher == nil {
		s.publisher = nopPublisher{}
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ID()
}

// Status returns the current session summary.
func (s *Session) Status() chat.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() chat.Status {
	info := s.store.TurnInfo()
	st := chat.Status{
		Turn:      info.CurrentTurn,
		MaxTurns:  info.MaxTurns,
		Phase:     string(s.turns.Phase()),
		Health:    s.store.Player().Health,
		GameEnded: info.GameEnded,
	}
	if _, loc, ok := s.store.CurrentLocation(); ok {
		st.Location = loc.Name
	}
	return st
}

// Start names the protagonist and generates the opening scene. It does not
// consume a turn.
func (s *Session) Start(ctx context.Context, playerName string) (*Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil, ErrAlreadyStarted
	}

	name := displayName(playerName)
	s.store.SetPlayerName(name)

	plan, err := s.dispatcher.Opening(name, s.store)
	if err != nil {
		return nil, fmt.Errorf("failed to plan opening: %w", err)
	}
	out := s.synth.Execute(ctx, plan, s.store)
	s.observe(ctx, out)

	if _, _, ok := s.store.CurrentLocation(); !ok {
		s.store.AddLocation(StartingLocationKey, state.Location{
			Name:        "Starting Point",
			Description: "The place where your adventure begins.",
		})
	}
	s.started = true
	s.store.LogEvent("Adventure begins for " + name)
	if !out.Degraded {
		s.store.AddStoryEvent("Opening: " + truncate(out.Response, resultEventLimit))
	}
	s.finish(out)

	s.logger.Info("Session started",
		"session_id", s.store.ID(),
		"player", name,
		"theme", s.store.Theme(),
		"max_turns", s.store.TurnInfo().MaxTurns,
		"degraded", out.Degraded)

	return &Response{
		Text:     out.Response,
		Image:    out.Image,
		Status:   s.status(),
		Degraded: out.Degraded,
		Trace:    out.Trace,
	}, nil
}

// Handle processes one player request. It never fails: errors produce a
// fallback response and the session stays playable.
func (s *Session) Handle(ctx context.Context, text string) (resp *Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic while handling request",
				"session_id", s.store.ID(),
				"panic", r)
			resp = s.errorResponse()
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return s.localResponse(emptyInputHint)
	}
	if cmd := parseCommand(text); cmd != cmdNone {
		return s.localResponse(s.runCommand(ctx, cmd))
	}

	in := intent.Classify(text, intent.SceneOf(s.store))
	s.recorder.RecordRequest(string(in.Category))

	plan, err := s.dispatcher.Plan(text, in, s.store, s.turns)
	if err != nil {
		logger.LogError(s.logger, "Failed to plan request", err, "session_id", s.store.ID())
		return s.errorResponse()
	}
	if plan.Local {
		return s.localResponse(s.runCommand(ctx, localCommand(text)))
	}

	out := s.synth.Execute(ctx, plan, s.store)
	s.observe(ctx, out)

	if plan.Conclusion {
		s.finish(out)
		return &Response{
			Text:      out.Response,
			Image:     out.Image,
			Status:    s.status(),
			GameEnded: true,
			Degraded:  out.Degraded,
			Trace:     out.Trace,
		}
	}

	s.store.AddChoiceMade(text)
	s.store.AddStoryEvent("Player chose: " + text)
	if !out.Degraded {
		s.store.AddStoryEvent("Result: " + truncate(out.Response, resultEventLimit))
	}
	s.advance(ctx, out)
	s.finish(out)

	s.logger.Info("Request handled",
		"session_id", s.store.ID(),
		"category", in.Category,
		"capabilities", plan.Capabilities(),
		"turn", s.store.TurnInfo().CurrentTurn,
		"degraded", out.Degraded,
		"trace", out.Trace)

	info := s.store.TurnInfo()
	return &Response{
		Text:      out.Response,
		Image:     out.Image,
		Status:    s.status(),
		GameEnded: info.GameEnded,
		Degraded:  out.Degraded,
		Trace:     out.Trace,
	}
}

// advance moves the turn counter once, whether or not generation succeeded.
func (s *Session) advance(ctx context.Context, out *synth.Outcome) {
	info, err := s.turns.Advance()
	if err != nil {
		logger.LogError(s.logger, "Failed to advance turn", err, "session_id", s.store.ID())
		return
	}
	out.Mark(synth.TurnAdvanced)
	s.recorder.RecordTurnAdvanced()

	id := s.store.ID()
	if err := s.publisher.PublishTurnAdvanced(ctx, id, info.CurrentTurn, info.MaxTurns, string(info.Phase), s.status().Location); err != nil {
		s.logger.Warn("Failed to publish turn event", "session_id", id, "error", err)
	}
	if info.GameEnded {
		s.recorder.RecordSessionEnded()
		if err := s.publisher.PublishSessionEnded(ctx, id, info.CurrentTurn); err != nil {
			s.logger.Warn("Failed to publish session end", "session_id", id, "error", err)
		}
	}
}

func (s *Session) observe(ctx context.Context, out *synth.Outcome) {
	for _, o := range out.Outputs {
		s.recorder.ObserveStage(string(o.Capability), o.Duration)
	}
	if !out.Degraded {
		return
	}
	s.recorder.RecordCollaboratorFailure(string(out.FailedCapability))
	if err := s.publisher.PublishCollaboratorFailed(ctx, s.store.ID(), string(out.FailedCapability), out.Failure.Error()); err != nil {
		s.logger.Warn("Failed to publish collaborator failure", "session_id", s.store.ID(), "error", err)
	}
}

func (s *Session) finish(out *synth.Outcome) {
	if out.Degraded {
		out.Mark(synth.RespondedWithError)
	} else {
		out.Mark(synth.Responded)
	}
}

func (s *Session) runCommand(ctx context.Context, cmd commandType) string {
	switch cmd {
	case cmdInventory:
		return describeInventory(s.store)
	case cmdStatus:
		return describeStatus(s.store)
	case cmdHelp:
		return HelpText
	case cmdSummarize:
		return s.summarize(ctx)
	default:
		return describeLocation(s.store)
	}
}

func (s *Session) localResponse(text string) *Response {
	return &Response{
		Text:      text,
		Status:    s.status(),
		GameEnded: s.store.IsEnded(),
		Local:     true,
	}
}

func (s *Session) errorResponse() *Response {
	return &Response{
		Text:      ErrorResponse,
		Status:    s.status(),
		GameEnded: s.store.IsEnded(),
		Degraded:  true,
	}
}

// Summarize recaps the story so far. It asks the story collaborator and
// falls back to a summary built from state.
func (s *Session) Summarize(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summarize(ctx)
}

func (s *Session) summarize(ctx context.Context) string {
	data := s.store.SummaryData()
	h, err := s.registry.Resolve(capability.Story)
	if err != nil {
		return localSummary(data)
	}

	sumCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := h.Generate(sumCtx, capability.Request{
		Capability:  capability.Story,
		Instruction: prompts.New().WithTheme(s.store.Theme()).BuildSummary(data),
		Role:        prompts.SummaryRole,
	})
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		s.logger.Warn("Summary generation failed, using local summary",
			"session_id", s.store.ID(),
			"error", err)
		return localSummary(data)
	}
	return text
}

// Snapshot returns a deep copy of the session state.
func (s *Session) Snapshot() *state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

// Restore replaces the session state. A restored session counts as started.
func (s *Session) Restore(snap *state.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Restore(snap); err != nil {
		return err
	}
	s.started = true
	return nil
}

// Save writes the session to path as JSON, or YAML for .yaml/.yml paths.
func (s *Session) Save(path string) error {
	return storage.SaveFile(path, s.Snapshot())
}

// Load replaces the session with the one saved at path.
func (s *Session) Load(path string) error {
	snap, err := storage.LoadFile(path)
	if err != nil {
		return err
	}
	return s.Restore(snap)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
