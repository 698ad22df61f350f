package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/internal/services"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/engine"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGame struct {
	id      uuid.UUID
	sent    []string
	saved   []string
	saveErr error
}

func (g *fakeGame) ID() uuid.UUID { return g.id }

func (g *fakeGame) Start(ctx context.Context, name string) (*turnResult, error) {
	return &turnResult{Text: "The road stretches ahead.", Status: chat.Status{Turn: 0, MaxTurns: 5, Phase: string(state.PhaseBeginning)}}, nil
}

func (g *fakeGame) Send(ctx context.Context, text string) (*turnResult, error) {
	g.sent = append(g.sent, text)
	return &turnResult{Text: "You " + text + ".", Status: chat.Status{Turn: len(g.sent), MaxTurns: 5}}, nil
}

func (g *fakeGame) Save(path string) error {
	g.saved = append(g.saved, path)
	return g.saveErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestUI(g game) ConsoleUI {
	m := NewConsoleUI(context.Background(), g, "Ada", "saves")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(ConsoleUI)
}

func enter(t *testing.T, m ConsoleUI, input string) (ConsoleUI, tea.Cmd) {
	t.Helper()
	m.textarea.SetValue(input)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(ConsoleUI), cmd
}

func TestSavePath(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"default", "", filepath.Join("saves", id.String()+".json")},
		{"named", "castle", filepath.Join("saves", "castle.json")},
		{"yaml", "castle.yaml", filepath.Join("saves", "castle.yaml")},
		{"absolute", "/tmp/run.json", "/tmp/run.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, savePath("saves", tt.in, id))
		})
	}
}

func TestFormatNarratorResponse(t *testing.T) {
	out := formatNarratorResponse("The gate creaks open.", 60)
	assert.Contains(t, out, AgentName+":")
	assert.Contains(t, out, "The gate creaks open.")

	out = formatNarratorResponse("Guard: Halt!", 60)
	assert.NotContains(t, out, AgentName+":")
	assert.Contains(t, out, "Halt!")
}

func TestWriteMetadata(t *testing.T) {
	out := writeMetadata(chat.Status{Turn: 2, MaxTurns: 5, Phase: string(state.PhaseMiddle), Location: "Crossroads", Health: 90}, "Ada", uuid.NewString())
	for _, want := range []string{"Ada", "2 of 5", "middle", "Crossroads", "90", "save [name]"} {
		assert.Contains(t, out, want)
	}

	out = writeMetadata(chat.Status{Turn: 5, MaxTurns: 5, GameEnded: true}, "", "")
	assert.Contains(t, out, "5 of 5 (ended)")
	assert.NotContains(t, out, "Session:")
}

func TestConsoleUI_Flow(t *testing.T) {
	g := &fakeGame{id: uuid.New()}
	m := newTestUI(g)
	require.True(t, m.loading)

	msg := m.start()()
	next, _ := m.Update(msg)
	m = next.(ConsoleUI)
	assert.False(t, m.loading)
	assert.Equal(t, "The road stretches ahead.", m.lastReply)
	assert.Equal(t, string(state.PhaseBeginning), m.status.Phase)

	m, cmd := enter(t, m, "open the gate")
	require.NotNil(t, cmd)
	assert.True(t, m.loading)
	assert.Empty(t, g.sent, "the request runs when the command executes")

	next, _ = m.Update(m.send("open the gate")())
	m = next.(ConsoleUI)
	assert.Equal(t, []string{"open the gate"}, g.sent)
	assert.Equal(t, 1, m.status.Turn)
	assert.Equal(t, "You open the gate.", m.lastReply)
	assert.False(t, m.loading)

	// Enter is ignored while a request is in flight
	m.loading = true
	_, cmd = enter(t, m, "wait")
	assert.Nil(t, cmd)
}

func TestConsoleUI_Save(t *testing.T) {
	g := &fakeGame{id: uuid.New()}
	m := newTestUI(g)
	m.loading = false

	m, cmd := enter(t, m, "save castle")
	assert.Nil(t, cmd)
	assert.Equal(t, []string{filepath.Join("saves", "castle.json")}, g.saved)
	assert.Empty(t, g.sent)
	assert.Equal(t, entryNotice, m.entries[len(m.entries)-1].kind)

	g.saveErr = errors.New("disk full")
	m, _ = enter(t, m, "SAVE")
	assert.Equal(t, filepath.Join("saves", g.id.String()+".json"), g.saved[1])
	last := m.entries[len(m.entries)-1]
	assert.Equal(t, entryError, last.kind)
	assert.Equal(t, "disk full", last.text)
}

func TestConsoleUI_Quit(t *testing.T) {
	m := newTestUI(&fakeGame{id: uuid.New()})
	m.loading = false

	m, _ = enter(t, m, "quit")
	require.True(t, m.showQuitModal)
	assert.Contains(t, m.View(), "Quit Game?")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	m = next.(ConsoleUI)
	assert.False(t, m.showQuitModal)

	m, _ = enter(t, m, "exit")
	assert.True(t, m.showQuitModal)
}

func TestLocalGame(t *testing.T) {
	registry := services.NewRegistry(services.NewMockLLMAPI(), 0, testLogger())
	sess, err := engine.NewSession(registry, engine.Options{MaxTurns: 3, Logger: testLogger()})
	require.NoError(t, err)

	g := newLocalGame(sess, false)
	r, err := g.Start(context.Background(), "Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Text)
	assert.Equal(t, 3, r.Status.MaxTurns)

	r, err = g.Send(context.Background(), "status")
	require.NoError(t, err)
	assert.Equal(t, 0, r.Status.Turn)

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, g.Save(path))

	resumed, err := engine.NewSession(registry, engine.Options{MaxTurns: 3, Logger: testLogger()})
	require.NoError(t, err)
	require.NoError(t, resumed.Load(path))
	assert.Equal(t, sess.ID(), resumed.ID())

	r, err = newLocalGame(resumed, true).Start(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Text, "You pick up where you left off."))
}

func TestAskName(t *testing.T) {
	var out strings.Builder
	assert.Equal(t, "Ada Lovelace", askName(strings.NewReader("  Ada Lovelace \n"), &out))
	assert.Contains(t, out.String(), "name")
	assert.Equal(t, "", askName(strings.NewReader(""), &out))
}
