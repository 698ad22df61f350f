package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/engine"
)

// turnResult is what the UI shows after a request.
type turnResult struct {
	Text      string
	Status    chat.Status
	GameEnded bool
	Degraded  bool
}

// game is the session the console plays, in process or over HTTP.
type game interface {
	ID() uuid.UUID
	Start(ctx context.Context, name string) (*turnResult, error)
	Send(ctx context.Context, text string) (*turnResult, error)
	Save(path string) error
}

// localGame runs the engine in process.
type localGame struct {
	session *engine.Session
	resumed bool
}

func newLocalGame(session *engine.Session, resumed bool) *localGame {
	return &localGame{session: session, resumed: resumed}
}

func (g *localGame) ID() uuid.UUID {
	return g.session.ID()
}

// Start plays the opening scene, or describes the current location when
// resuming a saved game.
func (g *localGame) Start(ctx context.Context, name string) (*turnResult, error) {
	if g.resumed {
		resp := g.session.Handle(ctx, "look")
		return &turnResult{
			Text:      "You pick up where you left off.\n\n" + resp.Text,
			Status:    resp.Status,
			GameEnded: resp.GameEnded,
		}, nil
	}
	resp, err := g.session.Start(ctx, name)
	if err != nil {
		return nil, err
	}
	return fromResponse(resp), nil
}

func (g *localGame) Send(ctx context.Context, text string) (*turnResult, error) {
	return fromResponse(g.session.Handle(ctx, text)), nil
}

func (g *localGame) Save(path string) error {
	return g.session.Save(path)
}

func fromResponse(resp *engine.Response) *turnResult {
	return &turnResult{
		Text:      resp.Text,
		Status:    resp.Status,
		GameEnded: resp.GameEnded,
		Degraded:  resp.Degraded,
	}
}

// savePath resolves the file a save command writes to. Names without an
// extension are saved as JSON.
func savePath(dir, name string, id uuid.UUID) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = id.String()
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
