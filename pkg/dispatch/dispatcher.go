// Package dispatch turns a classified request into an ordered list of
// collaborator invocations.
package dispatch

import (
	"fmt"
	"log/slog"

	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/intent"
	"github.com/jwebster45206/story-crew/pkg/prompts"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/jwebster45206/story-crew/pkg/turn"
)

// Invocation is one collaborator call in a plan.
type Invocation struct {
	Capability  capability.Capability
	Instruction string
	Role        string
	// Auxiliary stages run after the response is settled and never affect it.
	Auxiliary bool
}

// Plan is the ordered pipeline for one request.
type Plan struct {
	Request     string
	Intent      intent.Intent
	Pacing      state.TurnInfo
	Invocations []Invocation
	// Local plans are answered by the orchestrator from state alone.
	Local bool
	// Conclusion plans produce the epilogue of an ended session.
	Conclusion bool
	// Opening plans produce the first scene and do not consume a turn.
	Opening bool
}

// Capabilities lists the capabilities invoked, in order.
func (p *Plan) Capabilities() []capability.Capability {
	out := make([]capability.Capability, 0, len(p.Invocations))
	for _, inv := range p.Invocations {
		out = append(out, inv.Capability)
	}
	return out
}

// Dispatcher selects and sequences collaborators. It never produces content.
type Dispatcher struct {
	logger       *slog.Logger
	historyLimit int
	images       bool
}

// New creates a dispatcher.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger, historyLimit: prompts.DefaultHistoryLimit}
}

// WithImages appends an auxiliary image stage to every content plan.
func (d *Dispatcher) WithImages(enabled bool) *Dispatcher {
	d.images = enabled
	return d
}

// WithHistoryLimit sets how many recent story events instructions carry.
func (d *Dispatcher) WithHistoryLimit(n int) *Dispatcher {
	if n > 0 {
		d.historyLimit = n
	}
	return d
}

func (d *Dispatcher) builder(store *state.Store) *prompts.Builder {
	return prompts.New().
		WithTheme(store.Theme()).
		WithHistoryLimit(d.historyLimit).
		WithScene(prompts.SceneFrom(store, d.historyLimit))
}

// Plan builds the pipeline for a request. Ended sessions always get a
// conclusion plan; requests needing no collaborator get a local plan;
// everything else is the coordinator followed by world, character and story
// in that order, for each capability the intent requires.
func (d *Dispatcher) Plan(request string, in intent.Intent, store *state.Store, turns *turn.Controller) (*Plan, error) {
	if turns.Ended() {
		b := d.builder(store).WithRequest(request)
		plan := &Plan{
			Request:    request,
			Intent:     in,
			Pacing:     turns.Info(),
			Conclusion: true,
			Invocations: []Invocation{{
				Capability:  capability.Story,
				Instruction: b.BuildEpilogue(store.Choices()),
				Role:        prompts.EpilogueRole,
			}},
		}
		d.logger.Debug("Dispatched conclusion plan", "session_id", store.ID())
		return plan, nil
	}

	pacing := turns.Upcoming()
	plan := &Plan{Request: request, Intent: in, Pacing: pacing}
	if in.Requires.Empty() {
		plan.Local = true
		return plan, nil
	}

	b := d.builder(store).WithRequest(request).WithPacing(pacing)
	caps := append([]capability.Capability{capability.Coordinator}, orderedContent(in.Requires)...)
	for _, c := range caps {
		instr, err := b.Build(c)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s instruction: %w", c, err)
		}
		plan.Invocations = append(plan.Invocations, Invocation{Capability: c, Instruction: instr})
	}
	if d.images {
		instr, err := b.Build(capability.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to build image instruction: %w", err)
		}
		plan.Invocations = append(plan.Invocations, Invocation{Capability: capability.Image, Instruction: instr, Auxiliary: true})
	}

	d.logger.Debug("Dispatched plan",
		"session_id", store.ID(),
		"category", in.Category,
		"capabilities", plan.Capabilities(),
		"turn", pacing.CurrentTurn,
		"phase", pacing.Phase)
	return plan, nil
}

// Opening builds the pipeline that creates the first scene of a session.
func (d *Dispatcher) Opening(playerName string, store *state.Store) (*Plan, error) {
	b := d.builder(store).WithPacing(store.TurnInfo())
	plan := &Plan{
		Request: "Begin the adventure",
		Intent:  intent.Intent{Category: intent.StoryProgression, Requires: capability.NewSet(capability.World, capability.Character, capability.Story)},
		Pacing:  store.TurnInfo(),
		Opening: true,
	}
	for _, c := range []capability.Capability{capability.Coordinator, capability.World, capability.Character, capability.Story} {
		instr, err := b.BuildOpening(c, playerName)
		if err != nil {
			return nil, fmt.Errorf("failed to build opening %s instruction: %w", c, err)
		}
		plan.Invocations = append(plan.Invocations, Invocation{Capability: c, Instruction: instr})
	}
	if d.images {
		instr, err := b.BuildOpening(capability.Image, playerName)
		if err != nil {
			return nil, fmt.Errorf("failed to build opening image instruction: %w", err)
		}
		plan.Invocations = append(plan.Invocations, Invocation{Capability: capability.Image, Instruction: instr, Auxiliary: true})
	}
	return plan, nil
}

func orderedContent(s capability.Set) []capability.Capability {
	out := make([]capability.Capability, 0, len(capability.Ordered))
	for _, c := range capability.Ordered {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
