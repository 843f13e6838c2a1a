// Package server exposes the message pipeline over HTTP for a WhatsApp
// bridge, plus health and readiness probes.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const shutdownTimeout = 10 * time.Second

// MessageHandler processes one inbound message and delivers its reply.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg model.Message) error
}

// Config configures the listener.
type Config struct {
	Addr        string
	ReadTimeout time.Duration
}

// Server is a chi router in front of the message pipeline.
type Server struct {
	handler  MessageHandler
	sender   service.Replier
	router   *chi.Mux
	srv      *http.Server
	validate *validator.Validate
	now      func() time.Time
	ready    atomic.Bool
}

// New builds the router. sender backs the operator push endpoint and may
// be nil, in which case the endpoint answers 503.
func New(cfg Config, handler MessageHandler, sender service.Replier) *Server {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	s := &Server{
		handler:  handler,
		sender:   sender,
		router:   chi.NewRouter(),
		validate: newValidator(),
		now:      time.Now,
	}

	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(accessLog)
	s.router.Use(chimw.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)
	s.router.Route("/v1", func(r chi.Router) {
		r.Use(chimw.AllowContentType("application/json"))
		r.Post("/messages", s.handleMessage)
		r.Post("/send", s.handleSend)
	})

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// MarkReady flips the readiness probe to 200. Call it once storage is
// migrated and the classifier is trained.
func (s *Server) MarkReady() {
	s.ready.Store(true)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.ready.Store(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("Shutting down HTTP server")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type statusResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "starting"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}

type inboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from" validate:"required"`
	Body string `json:"body" validate:"required"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	in, err := parseJSON[inboundMessage](r, s.validate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg := model.Message{
		ID:         in.ID,
		From:       in.From,
		Body:       in.Body,
		ReceivedAt: s.now(),
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	if err := s.handler.HandleMessage(r.Context(), msg); err != nil {
		writeError(w, http.StatusBadGateway, "reply delivery failed")
		return
	}
	writeJSON(w, http.StatusAccepted, statusResponse{Status: "processed"})
}

type sendRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required"`
	Message     string `json:"message" validate:"required"`
}

// ChatID formats a phone number as a WhatsApp chat address.
func ChatID(phone string) string {
	if strings.Contains(phone, "@") {
		return phone
	}
	return strings.TrimPrefix(strings.Join(strings.Fields(phone), ""), "+") + "@c.us"
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	if s.sender == nil {
		writeError(w, http.StatusServiceUnavailable, "gateway not configured")
		return
	}
	in, err := parseJSON[sendRequest](r, s.validate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	to := ChatID(in.PhoneNumber)
	if err := s.sender.Reply(context.WithoutCancel(r.Context()), to, in.Message); err != nil {
		common.LogError(err, "Failed to send message", common.Fields{"to": to})
		writeError(w, http.StatusBadGateway, "failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "sent"})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()))
	})
}
