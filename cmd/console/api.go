package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/chat"
)

var errSaveUnsupported = errors.New("saving is only available for local games")

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// remoteGame plays against a running API server.
type remoteGame struct {
	client   *http.Client
	baseURL  string
	maxTurns int
	id       uuid.UUID
}

func newRemoteGame(client *http.Client, baseURL string, maxTurns int) *remoteGame {
	return &remoteGame{client: client, baseURL: baseURL, maxTurns: maxTurns}
}

func (g *remoteGame) ID() uuid.UUID {
	return g.id
}

func (g *remoteGame) Start(ctx context.Context, name string) (*turnResult, error) {
	var resp chat.StartResponse
	if err := g.post(ctx, "/start", chat.StartRequest{Name: name, MaxTurns: g.maxTurns}, &resp); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("failed to start session: %s", resp.Error)
	}
	g.id = resp.SessionID
	return &turnResult{Text: resp.InitialScene, Status: resp.Status}, nil
}

func (g *remoteGame) Send(ctx context.Context, text string) (*turnResult, error) {
	var resp chat.CommandResponse
	if err := g.post(ctx, "/command", chat.CommandRequest{SessionID: g.id, Command: text}, &resp); err != nil {
		return nil, fmt.Errorf("command failed: %w", err)
	}
	return &turnResult{
		Text:      resp.Response,
		Status:    resp.Status,
		GameEnded: resp.GameEnded,
		Degraded:  resp.Degraded,
	}, nil
}

func (g *remoteGame) Save(path string) error {
	return errSaveUnsupported
}

func (g *remoteGame) post(ctx context.Context, path string, body any, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp chat.ErrorResponse
		if err := json.Unmarshal(respBody, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
		}
		return errors.New(errorResp.Error)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
