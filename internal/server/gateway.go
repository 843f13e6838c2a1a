package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/service"
)

// GatewayConfig configures the outbound bridge client.
type GatewayConfig struct {
	URL         string
	Token       string
	Timeout     time.Duration
	MaxAttempts int
	Retry       service.RetryOptions
}

// Gateway sends replies through an HTTP WhatsApp bridge.
type Gateway struct {
	client *http.Client
	url    string
	token  string
	retry  service.RetryOptions
}

var _ service.Replier = (*Gateway)(nil)

type outbound struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// NewGateway creates a bridge client. It returns common.ErrMissingConfig
// when no URL is set.
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: gateway.url", common.ErrMissingConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	retry := cfg.Retry
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	return &Gateway{
		client: &http.Client{Timeout: cfg.Timeout},
		url:    strings.TrimRight(cfg.URL, "/"),
		token:  cfg.Token,
		retry:  retry,
	}, nil
}

// Reply delivers text to the channel address to. Transport errors and 5xx
// responses are retried. 4xx responses are not.
func (g *Gateway) Reply(ctx context.Context, to, text string) error {
	payload, err := json.Marshal(outbound{To: to, Text: text})
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	return common.WithRetry(ctx, func() error {
		return g.send(ctx, payload)
	}, g.retry)
}

func (g *Gateway) send(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("build request: %w", err), Retryable: false}
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrGatewayUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", common.ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &common.RetryableError{
			Err:       fmt.Errorf("gateway rejected message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
			Retryable: false,
		}
	}
	return nil
}
