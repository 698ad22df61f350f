package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/chat"
	"github.com/jwebster45206/story-crew/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(store storage.Storage, rec Recorder) *Manager {
	return NewManager(newScript().registry(), Options{MaxTurns: 5, Recorder: rec}, store, testLogger())
}

func TestManager_StartAndHandle(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	rec := &fakeRecorder{}
	m := newTestManager(store, rec)

	sess, resp, err := m.Start(ctx, chat.StartRequest{Name: "ada", MaxTurns: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Status.MaxTurns)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, rec.active)
	assert.Equal(t, 1, store.SaveCount())

	id := sess.ID()
	resp, err = m.Handle(ctx, id, "go north")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Status.Turn)
	assert.Equal(t, 2, store.SaveCount())

	resp, err = m.Handle(ctx, id, "look")
	require.NoError(t, err)
	assert.True(t, resp.Local)
	assert.Equal(t, 2, store.SaveCount(), "local commands do not change state")

	snap, err := store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.GameState.TurnCounter.CurrentTurn)
}

func TestManager_ResumesFromStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()

	first := newTestManager(store, nil)
	sess, _, err := first.Start(ctx, chat.StartRequest{Name: "ada"})
	require.NoError(t, err)
	_, err = first.Handle(ctx, sess.ID(), "go north")
	require.NoError(t, err)

	second := newTestManager(store, nil)
	assert.Equal(t, 0, second.Len())
	resumed, err := second.Get(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Status().Turn)
	assert.Equal(t, 1, second.Len())

	resp, err := second.Handle(ctx, sess.ID(), "continue the quest")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Status.Turn)
}

func TestManager_Errors(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(storage.NewMockStorage(), nil)

	_, err := m.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Handle(ctx, uuid.New(), "go north")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, _, err = m.Start(ctx, chat.StartRequest{Name: "ada", Theme: "space_western"})
	assert.ErrorIs(t, err, ErrUnknownTheme)

	_, _, err = m.Start(ctx, chat.StartRequest{Name: "ada", MaxTurns: -1})
	assert.Error(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestManager_SaveFailureKeepsPlaying(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	m := newTestManager(store, nil)

	sess, _, err := m.Start(ctx, chat.StartRequest{Name: "ada"})
	require.NoError(t, err)

	store.SetSaveError(errors.New("disk full"))
	resp, err := m.Handle(ctx, sess.ID(), "go north")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Status.Turn)
	assert.Equal(t, 1, store.SaveCount())
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	rec := &fakeRecorder{}
	m := newTestManager(store, rec)

	sess, _, err := m.Start(ctx, chat.StartRequest{Name: "ada"})
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, sess.ID()))
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, rec.active)

	_, err = m.Get(ctx, sess.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_PersistsUnderSessionID(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	m := newTestManager(store, nil)

	sess, _, err := m.Start(ctx, chat.StartRequest{Name: "ada"})
	require.NoError(t, err)

	snap, err := store.LoadSnapshot(ctx, sess.ID())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, sess.ID(), snap.GameState.ID)

	other, err := store.LoadSnapshot(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, other)
}
