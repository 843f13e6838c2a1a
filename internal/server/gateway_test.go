package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = service.RetryOptions{
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

func TestNewGateway_RequiresURL(t *testing.T) {
	_, err := NewGateway(GatewayConfig{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestGateway_Reply(t *testing.T) {
	var got outbound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{URL: srv.URL, Token: "secret", MaxAttempts: 1})
	require.NoError(t, err)

	require.NoError(t, gw.Reply(context.Background(), "628111@c.us", "✅ tercatat"))
	assert.Equal(t, outbound{To: "628111@c.us", Text: "✅ tercatat"}, got)
}

func TestGateway_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{URL: srv.URL, MaxAttempts: 3, Retry: fastRetry})
	require.NoError(t, err)

	require.NoError(t, gw.Reply(context.Background(), "628111@c.us", "halo"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGateway_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown chat", http.StatusNotFound)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{URL: srv.URL, MaxAttempts: 3, Retry: fastRetry})
	require.NoError(t, err)

	err = gw.Reply(context.Background(), "628111@c.us", "halo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "unknown chat")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGateway_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	gw, err := NewGateway(GatewayConfig{URL: srv.URL, MaxAttempts: 2, Retry: fastRetry})
	require.NoError(t, err)

	err = gw.Reply(context.Background(), "628111@c.us", "halo")
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.ErrorIs(t, err, common.ErrGatewayUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}
