package chat

import (
	"testing"

	"github.com/google/uuid"
)

func TestCommandRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CommandRequest
		wantErr bool
	}{
		{"valid", CommandRequest{SessionID: uuid.New(), Command: "go north"}, false},
		{"missing session", CommandRequest{Command: "go north"}, true},
		{"blank command", CommandRequest{SessionID: uuid.New(), Command: "   "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestStartRequest_Validate(t *testing.T) {
	if err := (&StartRequest{Name: "Aria"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&StartRequest{MaxTurns: -1}).Validate(); err == nil {
		t.Error("expected error for negative max_turns")
	}
}
