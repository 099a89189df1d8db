// Package game maps the service's game resources onto request/response
// operations. Nothing here keeps state between calls.
package game

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"
)

// Requester is the transport the operations are issued through.
type Requester interface {
	Get(ctx context.Context, path string, result interface{}) error
	Post(ctx context.Context, path string, body, result interface{}) error
	Raw(ctx context.Context, method, path string, body interface{}) ([]byte, error)
}

type Service struct {
	client Requester
	out    io.Writer
	log    logr.Logger
}

// NewService returns operations over client. Fetch warnings are printed to out.
func NewService(client Requester, out io.Writer, log logr.Logger) *Service {
	return &Service{
		client: client,
		out:    out,
		log:    log.WithName("game"),
	}
}

func gamePath(id ID) string {
	return "/games/" + url.PathEscape(string(id))
}

// Create starts a game and returns the identifier assigned by the service.
// Only the parameters that are set are sent.
func (s *Service) Create(ctx context.Context, params StartParams) (ID, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := s.client.Post(ctx, "/games", params, &resp); err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create game: response has no id")
	}

	s.log.V(1).Info("Game created", "id", resp.ID, "fen", params.FEN, "color", params.Color)
	return ID(resp.ID), nil
}

// Fetch never fails on its own: transport and decoding failures are
// printed and returned inside the result so the caller decides what to do.
func (s *Service) Fetch(ctx context.Context, id ID) FetchResult {
	raw, err := s.client.Raw(ctx, http.MethodGet, gamePath(id), nil)
	if err != nil {
		fmt.Fprintf(s.out, "Warning: %v\n", err)
		res := FetchResult{Raw: raw, Err: fmt.Errorf("fetch game %s: %w", id, err)}
		if len(raw) > 0 {
			res.Snapshot, _ = DecodeSnapshot(raw)
		}
		return res
	}

	snap, err := DecodeSnapshot(raw)
	if err != nil {
		return FetchResult{Raw: raw, Err: fmt.Errorf("fetch game %s: %w", id, err)}
	}
	return FetchResult{Snapshot: snap, Raw: raw}
}

// SubmitMove plays move, which must come from the latest snapshot.
func (s *Service) SubmitMove(ctx context.Context, id ID, move string) (*MoveReply, error) {
	path := gamePath(id) + "/move/" + url.PathEscape(move)

	raw, err := s.client.Raw(ctx, http.MethodPost, path, nil)
	if err != nil {
		return nil, fmt.Errorf("move %s in game %s: %w", move, id, err)
	}

	reply, err := decodeMoveReply(raw)
	if err != nil {
		return nil, fmt.Errorf("move %s in game %s: %w", move, id, err)
	}
	return reply, nil
}

func decodeMoveReply(raw []byte) (*MoveReply, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if _, ok := keys["Outcome"]; ok {
		snap, err := DecodeSnapshot(raw)
		if err != nil {
			return nil, err
		}
		return &MoveReply{Ack: Ack{OK: true}, Snapshot: snap}, nil
	}

	var reply MoveReply
	if err := json.Unmarshal(raw, &reply.Ack); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &reply, nil
}

// Resign gives up the game. The response body is service defined and may
// be empty.
func (s *Service) Resign(ctx context.Context, id ID) (*Ack, error) {
	raw, err := s.client.Raw(ctx, http.MethodPost, gamePath(id)+"/resign", nil)
	if err != nil {
		return nil, fmt.Errorf("resign game %s: %w", id, err)
	}

	var ack Ack
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &ack); err != nil {
			return nil, fmt.Errorf("resign game %s: failed to decode response: %w", id, err)
		}
	}
	s.log.V(1).Info("Game resigned", "id", id)
	return &ack, nil
}

// List returns the identifiers of the games that are still open.
func (s *Service) List(ctx context.Context) ([]ID, error) {
	var ids []ID
	if err := s.client.Get(ctx, "/games", &ids); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return ids, nil
}

// ResignAll resigns every listed game in order and stops at the first
// failure. The games resigned before the failure are returned with it.
func (s *Service) ResignAll(ctx context.Context) ([]ID, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	resigned := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, err := s.Resign(ctx, id); err != nil {
			return resigned, err
		}
		resigned = append(resigned, id)
	}
	return resigned, nil
}
