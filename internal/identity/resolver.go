// Package identity turns a channel sender address into an entitled user.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/catat/internal/common"
	"github.com/Veraticus/catat/internal/model"
	"github.com/Veraticus/catat/internal/service"
)

// DefaultCallTimeout bounds the account lookup.
const DefaultCallTimeout = 5 * time.Second

// Reason explains why a sender was turned away.
type Reason string

// Rejection reasons, in the order they are checked.
const (
	ReasonNotRegistered     Reason = "not_registered"
	ReasonInactiveAccount   Reason = "inactive_account"
	ReasonActivationExpired Reason = "activation_expired"
)

// Rejection is returned when the sender may not use the bot.
type Rejection struct {
	Address string
	Reason  Reason
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("sender %s rejected: %s", r.Address, r.Reason)
}

// NormalizeAddress strips the channel domain suffix, whitespace and a
// leading plus sign from a sender address.
func NormalizeAddress(address string) string {
	if at := strings.IndexByte(address, '@'); at >= 0 {
		address = address[:at]
	}
	address = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, address)
	return strings.TrimPrefix(address, "+")
}

// Resolver validates senders against the account store. It holds no state
// between calls.
type Resolver struct {
	accounts service.AccountStore
	now      func() time.Time
	timeout  time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the bound on the account lookup.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a resolver backed by accounts.
func NewResolver(accounts service.AccountStore, opts ...Option) *Resolver {
	r := &Resolver{
		accounts: accounts,
		now:      time.Now,
		timeout:  DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the user behind address. Identity failures come back as
// *Rejection. Any other error is a store failure.
func (r *Resolver) Resolve(ctx context.Context, address string) (*model.User, error) {
	normalized := NormalizeAddress(address)
	if normalized == "" {
		return nil, &Rejection{Address: address, Reason: ReasonNotRegistered}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	user, err := r.accounts.FindByChannelAddress(lookupCtx, normalized)
	if errors.Is(err, common.ErrNotFound) || (err == nil && user == nil) {
		return nil, &Rejection{Address: normalized, Reason: ReasonNotRegistered}
	}
	if err != nil {
		return nil, fmt.Errorf("account lookup for %s: %w", normalized, err)
	}

	if !user.IsActive {
		return nil, &Rejection{Address: normalized, Reason: ReasonInactiveAccount}
	}
	if !user.Activation.Valid(r.now()) {
		return nil, &Rejection{Address: normalized, Reason: ReasonActivationExpired}
	}
	return user, nil
}

// AsRejection extracts a *Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
