package model

import "time"

// User is an account that may talk to the bot.
type User struct {
	CreatedAt   time.Time
	Activation  *Activation
	ID          string
	Username    string
	PhoneNumber string // Normalized channel address, digits only
	IsActive    bool
}

// Activation is the time-bounded entitlement that lets a user transact.
type Activation struct {
	ExpiresAt time.Time
	Code      string
	IsActive  bool
}

// Valid reports whether the activation is active and not expired at now.
// An activation expiring exactly at now is still valid.
func (a *Activation) Valid(now time.Time) bool {
	if a == nil || !a.IsActive {
		return false
	}
	return !a.ExpiresAt.Before(now)
}
