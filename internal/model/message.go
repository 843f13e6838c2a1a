package model

import "time"

// Message is one inbound event from a channel transport.
type Message struct {
	ReceivedAt time.Time
	ID         string
	From       string // Raw channel address, e.g. "628123456789@c.us"
	Body       string
}
