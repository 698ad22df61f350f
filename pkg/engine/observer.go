package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder receives session metrics.
type Recorder interface {
	RecordRequest(category string)
	RecordCollaboratorFailure(capability string)
	ObserveStage(capability string, d time.Duration)
	RecordTurnAdvanced()
	RecordSessionEnded()
	SetActiveSessions(n int)
}

// Publisher announces session lifecycle events to other processes.
type Publisher interface {
	PublishTurnAdvanced(ctx context.Context, id uuid.UUID, turn, maxTurns int, phase, location string) error
	PublishSessionEnded(ctx context.Context, id uuid.UUID, turn int) error
	PublishCollaboratorFailed(ctx context.Context, id uuid.UUID, capability, errorMsg string) error
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string) {}
func (nopRecorder) RecordCollaboratorFailure(string) {}
func (nopRecorder) ObserveStage(string, time.Duration) {}
func (nopRecorder) RecordTurnAdvanced() {}
func (nopRecorder) RecordSessionEnded() {}
func (nopRecorder) SetActiveSessions(int) {}

type nopPublisher struct{}

func (nopPublisher) PublishTurnAdvanced(context.Context, uuid.UUID, int, int, string, string) error {
	return nil
}

func (nopPublisher) PublishSessionEnded(context.Context, uuid.UUID, int) error {
	return nil
}

func (nopPublisher) PublishCollaboratorFailed(context.Context, uuid.UUID, string, string) error {
	return nil
}
