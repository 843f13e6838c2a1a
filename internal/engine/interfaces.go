package engine

import (
	"context"

	"github.com/Veraticus/catat/internal/classification"
	"github.com/Veraticus/catat/internal/dispatch"
	"github.com/Veraticus/catat/internal/model"
)

// Resolver maps a sender address to an entitled user.
type Resolver interface {
	Resolve(ctx context.Context, address string) (*model.User, error)
}

// IntentClassifier labels message text.
type IntentClassifier interface {
	Classify(text string) classification.Result
}

// Dispatcher turns a request into its single reply.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) dispatch.Reply
	Apology() dispatch.Reply
}
