// Package synth runs a dispatch plan as a sequential collaborator pipeline
// and folds the results back into the session.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/story-crew/internal/logger"
	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/dispatch"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/samber/oops"
)

// DefaultStageTimeout bounds a single collaborator call.
const DefaultStageTimeout = 60 * time.Second

// DegradedResponse is returned to the player when a collaborator fails.
const DegradedResponse = "The story falters for a moment, as if the world itself lost its train of thought. Try again, or take the tale in a new direction."

var ErrEmptyResult = errors.New("collaborator returned an empty result")

// Stage is a step of the request state machine.
type Stage string

const (
	Classified         Stage = "classified"
	Dispatched         Stage = "dispatched"
	Generating         Stage = "generating"
	Reconciling        Stage = "reconciling"
	TurnAdvanced       Stage = "turn_advanced"
	Responded          Stage = "responded"
	RespondedWithError Stage = "responded_with_error"
)

// StageOutput is what one collaborator produced.
type StageOutput struct {
	Capability capability.Capability
	Text       string
	Duration   time.Duration
}

// Outcome is the result of executing a plan.
type Outcome struct {
	Response string
	Image    string
	Outputs  []StageOutput
	Report   Report
	Trace    []Stage

	// Degraded is set when a non-auxiliary stage failed; Failure holds why.
	Degraded         bool
	Failure          error
	FailedCapability capability.Capability
}

// Mark appends a stage to the trace.
func (o *Outcome) Mark(s Stage) {
	o.Trace = append(o.Trace, s)
}

// Synthesizer executes plans against a capability registry.
type Synthesizer struct {
	registry *capability.Registry
	timeout  time.Duration
	logger   *slog.Logger
}

// New creates a synthesizer with the default per-stage timeout.
func New(registry *capability.Registry, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{registry: registry, timeout: DefaultStageTimeout, logger: logger}
}

// WithTimeout sets the per-stage timeout. Non-positive values are ignored.
func (s *Synthesizer) WithTimeout(d time.Duration) *Synthesizer {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Execute runs the plan. It never returns an error: failures are recorded on
// the store and surfaced as a degraded outcome. Operations collaborators
// applied before a failure stay committed.
func (s *Synthesizer) Execute(ctx context.Context, plan *dispatch.Plan, store *state.Store) *Outcome {
	out := &Outcome{Trace: []Stage{Classified, Dispatched}}
	before := Capture(store)

	var chain strings.Builder
	chain.WriteString("Player request: " + plan.Request + "\n")

	for i, inv := range plan.Invocations {
		if inv.Auxiliary {
			continue
		}
		out.Mark(Generating)

		start := time.Now()
		text, err := s.run(ctx, inv, chain.String(), store)
		if err != nil {
			s.fail(out, store, inv.Capability, i, err)
			break
		}
		out.Outputs = append(out.Outputs, StageOutput{Capability: inv.Capability, Text: text, Duration: time.Since(start)})
		out.Response = text
		chain.WriteString(fmt.Sprintf("\n[%s]\n%s\n", inv.Capability, text))
	}

	if out.Degraded {
		out.Response = DegradedResponse
	} else {
		s.runAuxiliary(ctx, plan, chain.String(), store, out)
	}

	out.Mark(Reconciling)
	out.Report = Reconcile(before, store)
	s.logReport(store, out.Report)
	return out
}

func (s *Synthesizer) run(ctx context.Context, inv dispatch.Invocation, chained string, store *state.Store) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h, err := s.registry.Resolve(inv.Capability)
	if err != nil {
		return "", err
	}

	stageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := h.Generate(stageCtx, capability.Request{
		Capability:  inv.Capability,
		Instruction: inv.Instruction,
		Context:     chained,
		Tools:       capability.ToolsFor(store, inv.Capability),
		Role:        inv.Role,
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResult
	}
	return text, nil
}

func (s *Synthesizer) fail(out *Outcome, store *state.Store, c capability.Capability, index int, err error) {
	out.Degraded = true
	out.FailedCapability = c
	out.Failure = oops.
		Code("COLLABORATOR_FAILED").
		With("capability", string(c)).
		With("stage", index).
		Wrap(err)

	store.LogEvent(fmt.Sprintf("Collaborator %s failed: %v", c, err))
	logger.LogError(s.logger, "Collaborator failed", out.Failure, "session_id", store.ID())
}

// runAuxiliary runs best-effort stages. Their failures never reach the player.
func (s *Synthesizer) runAuxiliary(ctx context.Context, plan *dispatch.Plan, chained string, store *state.Store, out *Outcome) {
	for _, inv := range plan.Invocations {
		if !inv.Auxiliary {
			continue
		}
		text, err := s.run(ctx, inv, chained, store)
		if err != nil {
			s.logger.Warn("Auxiliary collaborator failed",
				"session_id", store.ID(),
				"capability", inv.Capability,
				"error", err)
			continue
		}
		if inv.Capability == capability.Image {
			out.Image = text
		}
	}
}

func (s *Synthesizer) logReport(store *state.Store, r Report) {
	if r.Empty() {
		return
	}
	attrs := []any{"session_id", store.ID()}
	if len(r.NewLocations) > 0 {
		attrs = append(attrs, "new_locations", r.NewLocations)
	}
	if len(r.NewCharacters) > 0 {
		attrs = append(attrs, "new_characters", r.NewCharacters)
	}
	if r.PlayerMoved {
		attrs = append(attrs, "from", r.PlayerFrom, "to", r.PlayerTo)
	}
	if len(r.Vanished) > 0 {
		s.logger.Warn("Characters missing after pipeline", "session_id", store.ID(), "characters", r.Vanished)
	}
	s.logger.Info("State reconciled", attrs...)
}
