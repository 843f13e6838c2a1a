// Package engine runs inbound messages through identity resolution, intent
// classification and dispatch, one message per sender at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/catat/internal/classification"
	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/dispatch"
	"github.com/Veraticus/catat/internal/identity"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/service"
)

// Engine is the message pipeline shared by every channel transport.
type Engine struct {
	resolver   Resolver
	classifier IntentClassifier
	dispatcher Dispatcher
	replier    service.Replier
	senders    *keyedMutex
	source     string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource tags recorded transactions with the channel they came from.
func WithSource(source string) Option {
	return func(e *Engine) { e.source = source }
}

// New creates an engine. The replier receives exactly one reply per message.
func New(resolver Resolver, classifier IntentClassifier, dispatcher Dispatcher, replier service.Replier, opts ...Option) *Engine {
	e := &Engine{
		resolver:   resolver,
		classifier: classifier,
		dispatcher: dispatcher,
		replier:    replier,
		senders:    newKeyedMutex(),
		source:     model.SourceWhatsApp,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HandleMessage processes msg and sends its reply. Messages from the same
// sender are handled strictly one after another. Processing and the reply
// ignore cancellation of ctx once the message has been accepted.
func (e *Engine) HandleMessage(ctx context.Context, msg model.Message) error {
	key := identity.NormalizeAddress(msg.From)
	if key == "" {
		key = msg.From
	}
	unlock := e.senders.Lock(key)
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	start := time.Now()

	reply := e.Process(ctx, msg)

	if err := e.replier.Reply(ctx, msg.From, reply.Text); err != nil {
		common.LogError(err, "Failed to deliver reply", common.Fields{
			"message_id": msg.ID,
			"sender":     key,
			"action":     string(reply.Action),
		})
		return fmt.Errorf("reply to %s: %w", key, err)
	}

	slog.Debug("Handled message",
		"message_id", msg.ID,
		"sender", key,
		"action", reply.Action,
		"outcome", reply.Outcome,
		"duration", time.Since(start))
	return nil
}

// Process computes the reply for msg without sending it. A panic anywhere
// in the pipeline is logged and becomes the generic apology.
func (e *Engine) Process(ctx context.Context, msg model.Message) (reply dispatch.Reply) {
	defer func() {
		if r := recover(); r != nil {
			common.LogError(fmt.Errorf("panic: %v", r), "Recovered from panic while processing message", common.Fields{
				"message_id": msg.ID,
			})
			reply = e.dispatcher.Apology()
		}
	}()

	user, err := e.resolver.Resolve(ctx, msg.From)
	if rejection, ok := identity.AsRejection(err); ok {
		slog.Info("Rejected sender", "sender", rejection.Address, "reason", rejection.Reason)
		return e.dispatcher.Dispatch(ctx, dispatch.Request{
			Rejection: rejection,
			Body:      msg.Body,
			Source:    e.source,
		})
	}
	if err != nil {
		common.LogError(err, "Failed to resolve sender", common.Fields{"message_id": msg.ID})
		return e.dispatcher.Apology()
	}

	result := e.classifier.Classify(msg.Body)
	if result.Intent == classification.IntentUnknown {
		common.LogDebug("Message not understood", common.Fields{
			"user_id":    user.ID,
			"normalized": result.Normalized,
		})
	}

	return e.dispatcher.Dispatch(ctx, dispatch.Request{
		User:   user,
		Result: result,
		Body:   msg.Body,
		Source: e.source,
	})
}
