// Package push delivers device notifications through pluggable senders.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"swapp/api/internal/apperr"
	"swapp/api/internal/logging"
)

// MaxPayloadBytes is the largest encoded payload accepted by the push provider.
const MaxPayloadBytes = 4096

// ErrPayloadTooLarge is returned when an encoded message exceeds MaxPayloadBytes.
var ErrPayloadTooLarge = errors.New("push payload exceeds 4096 bytes")

// Sender delivers one message to one device.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// GatewaySender posts messages to an HTTP push gateway that fronts APNs/FCM.
type GatewaySender struct {
	url    string
	apiKey string
	client *http.Client
}

func NewGatewaySender(url, apiKey string) *GatewaySender {
	return &GatewaySender{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayRequest struct {
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload"`
}

func (s *GatewaySender) Send(ctx context.Context, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	body, err := json.Marshal(gatewayRequest{Token: msg.Token, Payload: payload})
	if err != nil {
		return fmt.Errorf("encoding gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return apperr.Upstream("push", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return apperr.Upstream("push", fmt.Errorf("gateway status %d: %s", res.StatusCode, bytes.TrimSpace(snippet)))
	}
	return nil
}

// LoggingSender only logs. Used when no gateway is configured.
type LoggingSender struct{}

func (LoggingSender) Send(ctx context.Context, msg Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	logging.Info().Str("token", msg.Token).RawJSON("payload", payload).Msg("push (logged, not sent)")
	return nil
}
