package synth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/story-crew/pkg/capability"
	"github.com/jwebster45206/story-crew/pkg/dispatch"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newStore() *state.Store {
	s := state.NewStore(5, testLogger())
	s.AddLocation("harbor", state.Location{Description: "Gulls circle overhead."})
	s.AddCharacter("Mara", state.Character{Location: "harbor", Personality: "gruff"})
	return s
}

func plan(caps ...capability.Capability) *dispatch.Plan {
	p := &dispatch.Plan{Request: "sail north"}
	for _, c := range caps {
		p.Invocations = append(p.Invocations, dispatch.Invocation{Capability: c, Instruction: "do " + string(c)})
	}
	return p
}

func echo(text string) capability.Handler {
	return capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
		return text, nil
	})
}

func TestExecute_ChainsContext(t *testing.T) {
	var seen []string
	record := func(text string) capability.Handler {
		return capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
			seen = append(seen, req.Context)
			return text, nil
		})
	}
	reg := capability.NewRegistry().
		Register(capability.Coordinator, record("brief")).
		Register(capability.World, record("the sea opens")).
		Register(capability.Story, record("you set sail"))

	out := New(reg, testLogger()).Execute(context.Background(), plan(capability.Coordinator, capability.World, capability.Story), newStore())

	require.False(t, out.Degraded)
	assert.Equal(t, "you set sail", out.Response)
	require.Len(t, seen, 3)
	assert.Equal(t, "Player request: sail north\n", seen[0])
	assert.Contains(t, seen[1], "[coordinator]\nbrief")
	assert.Contains(t, seen[2], "[coordinator]\nbrief")
	assert.Contains(t, seen[2], "[world]\nthe sea opens")
	assert.Equal(t, []Stage{Classified, Dispatched, Generating, Generating, Generating, Reconciling}, out.Trace)
}

func TestExecute_ToolsAreScoped(t *testing.T) {
	reg := capability.NewRegistry().
		Register(capability.World, capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
			assert.NotNil(t, req.Tools.World)
			assert.Nil(t, req.Tools.Character)
			assert.Nil(t, req.Tools.Story)
			req.Tools.World.AddLocation("open_sea", state.Location{Description: "Endless blue."})
			return "waves", req.Tools.World.SetCurrentLocation("open_sea")
		}))

	s := newStore()
	out := New(reg, testLogger()).Execute(context.Background(), plan(capability.World), s)

	require.False(t, out.Degraded)
	assert.Equal(t, []string{"open_sea"}, out.Report.NewLocations)
	assert.True(t, out.Report.PlayerMoved)
	assert.Equal(t, "harbor", out.Report.PlayerFrom)
	assert.Equal(t, "open_sea", out.Report.PlayerTo)
}

func TestExecute_FailureDegrades(t *testing.T) {
	boom := errors.New("model unavailable")
	tests := []struct {
		name    string
		handler capability.Handler
		wantErr error
	}{
		{"error", capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
			return "", boom
		}), boom},
		{"empty", echo("   "), ErrEmptyResult},
		{"missing handler", nil, capability.ErrNoHandler},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := capability.NewRegistry().
				Register(capability.World, capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
					req.Tools.World.AddLocation("reef", state.Location{})
					return "a reef", nil
				}))
			if tt.handler != nil {
				reg.Register(capability.Story, tt.handler)
			}
			s := newStore()
			events := len(s.AuditLog())

			out := New(reg, testLogger()).Execute(context.Background(), plan(capability.World, capability.Story), s)

			assert.True(t, out.Degraded)
			assert.Equal(t, DegradedResponse, out.Response)
			assert.Equal(t, capability.Story, out.FailedCapability)
			assert.ErrorIs(t, out.Failure, tt.wantErr)
			assert.True(t, s.LocationExists("reef"), "earlier operations stay committed")

			log := s.AuditLog()
			require.Greater(t, len(log), events)
			assert.True(t, strings.HasPrefix(log[len(log)-1].Text, "Collaborator story failed"))
		})
	}
}

func TestExecute_StopsAfterFailure(t *testing.T) {
	calls := 0
	reg := capability.NewRegistry().
		Register(capability.World, capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
			return "", errors.New("nope")
		})).
		Register(capability.Story, capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
			calls++
			return "never", nil
		}))

	out := New(reg, testLogger()).Execute(context.Background(), plan(capability.World, capability.Story), newStore())
	assert.True(t, out.Degraded)
	assert.Equal(t, 0, calls)
}

func TestExecute_StageTimeout(t *testing.T) {
	reg := capability.NewRegistry().
		Register(capability.Story, capability.HandlerFunc(func(ctx context.Context, req capability.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}))

	out := New(reg, testLogger()).WithTimeout(10*time.Millisecond).
		Execute(context.Background(), plan(capability.Story), newStore())

	assert.True(t, out.Degraded)
	assert.ErrorIs(t, out.Failure, context.DeadlineExceeded)
}

func TestExecute_CancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reg := capability.NewRegistry().
		Register(capability.World, capability.HandlerFunc(func(context.Context, capability.Request) (string, error) {
			cancel()
			return "fog rolls in", nil
		})).
		Register(capability.Story, echo("unreachable"))

	out := New(reg, testLogger()).Execute(ctx, plan(capability.World, capability.Story), newStore())
	assert.True(t, out.Degraded)
	assert.ErrorIs(t, out.Failure, context.Canceled)
	assert.Equal(t, capability.Story, out.FailedCapability)
}

func TestExecute_AuxiliaryIsBestEffort(t *testing.T) {
	p := plan(capability.Story)
	p.Invocations = append(p.Invocations, dispatch.Invocation{Capability: capability.Image, Instruction: "paint", Auxiliary: true})

	failing := capability.NewRegistry().
		Register(capability.Story, echo("a quiet dawn")).
		Register(capability.Image, capability.HandlerFunc(func(context.Context, capability.Request) (string, error) {
			return "", errors.New("no images today")
		}))
	out := New(failing, testLogger()).Execute(context.Background(), p, newStore())
	assert.False(t, out.Degraded)
	assert.Equal(t, "a quiet dawn", out.Response)
	assert.Empty(t, out.Image)

	working := capability.NewRegistry().
		Register(capability.Story, echo("a quiet dawn")).
		Register(capability.Image, echo("watercolor harbor at dawn"))
	out = New(working, testLogger()).Execute(context.Background(), p, newStore())
	assert.Equal(t, "a quiet dawn", out.Response)
	assert.Equal(t, "watercolor harbor at dawn", out.Image)
}

func TestReconcile(t *testing.T) {
	s := newStore()
	before := Capture(s)

	s.AddLocation("lighthouse", state.Location{})
	s.AddCharacter("Tobin", state.Character{Location: "lighthouse"})
	require.NoError(t, s.MoveCharacter("Mara", "lighthouse"))

	r := Reconcile(before, s)
	assert.Equal(t, []string{"lighthouse"}, r.NewLocations)
	assert.Equal(t, []string{"Tobin"}, r.NewCharacters)
	assert.Equal(t, []string{"Mara"}, r.MovedCharacters)
	assert.False(t, r.PlayerMoved)
	assert.Empty(t, r.Vanished)

	require.NoError(t, s.RemoveCharacter("Mara"))
	r = Reconcile(before, s)
	assert.Equal(t, []string{"Mara"}, r.Vanished)

	assert.True(t, Reconcile(Capture(s), s).Empty())
}
