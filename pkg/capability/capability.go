package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Capability names a kind of generator collaborator.
type Capability string

const (
	World       Capability = "world"
	Character   Capability = "character"
	Story       Capability = "story"
	Image       Capability = "image"
	Coordinator Capability = "coordinator"
)

// Ordered is the fixed dispatch order for the content capabilities.
var Ordered = []Capability{World, Character, Story}

// All lists every capability a registry may hold.
var All = []Capability{Coordinator, World, Character, Story, Image}

// Valid reports whether c is a known capability.
func (c Capability) Valid() bool {
	switch c {
	case World, Character, Story, Image, Coordinator:
		return true
	}
	return false
}

// Set is a small set of capabilities.
type Set uint8

func bit(c Capability) Set {
	switch c {
	case World:
		return 1 << 0
	case Character:
		return 1 << 1
	case Story:
		return 1 << 2
	case Image:
		return 1 << 3
	case Coordinator:
		return 1 << 4
	}
	return 0
}

// NewSet builds a set from the given capabilities.
func NewSet(caps ...Capability) Set {
	var s Set
	for _, c := range caps {
		s |= bit(c)
	}
	return s
}

// With returns s plus c.
func (s Set) With(c Capability) Set {
	return s | bit(c)
}

// Has reports whether c is in s.
func (s Set) Has(c Capability) bool {
	b := bit(c)
	return b != 0 && s&b != 0
}

// Empty reports whether the set holds nothing.
func (s Set) Empty() bool {
	return s == 0
}

// List returns the members of s in dispatch order.
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(All))
	for _, c := range Ordered {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	for _, c := range []Capability{Image, Coordinator} {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s Set) String() string {
	parts := make([]string, 0, len(All))
	for _, c := range s.List() {
		parts = append(parts, string(c))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Request is one invocation of a collaborator.
type Request struct {
	Capability  Capability
	Instruction string
	// Context carries the player request and every prior stage output.
	Context string
	Tools   Toolbox
	// Role overrides the capability's default system prompt when set.
	Role string
}

// Handler generates text for a capability. Implementations mutate state only
// through req.Tools.
type Handler interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req Request) (string, error)

func (f HandlerFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

var ErrNoHandler = errors.New("no handler registered for capability")

// Registry maps capabilities to handlers.
type Registry struct {
	handlers map[Capability]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Capability]Handler)}
}

// Register binds h to c, replacing any previous handler.
func (r *Registry) Register(c Capability, h Handler) *Registry {
	r.handlers[c] = h
	return r
}

// Resolve returns the handler for c.
func (r *Registry) Resolve(c Capability) (Handler, error) {
	h, ok := r.handlers[c]
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoHandler, c)
	}
	return h, nil
}

// Has reports whether c has a handler.
func (r *Registry) Has(c Capability) bool {
	_, ok := r.handlers[c]
	return ok
}
