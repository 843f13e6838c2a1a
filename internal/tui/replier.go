package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Veraticus/catat/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

var errChatClosed = errors.New("chat closed")

// botReplyMsg carries one bot reply into the program.
type botReplyMsg struct {
	at   time.Time
	to   string
	text string
}

// Replier delivers engine replies to the chat model over a channel.
type Replier struct {
	replies chan botReplyMsg
	done    chan struct{}
	once    sync.Once
}

var _ service.Replier = (*Replier)(nil)

// NewReplier creates a console replier that buffers up to size replies.
func NewReplier(size int) *Replier {
	if size <= 0 {
		size = 16
	}
	return &Replier{
		replies: make(chan botReplyMsg, size),
		done:    make(chan struct{}),
	}
}

// Reply queues text for display. It fails once the chat has been closed.
func (r *Replier) Reply(ctx context.Context, to, text string) error {
	select {
	case r.replies <- botReplyMsg{at: time.Now(), to: to, text: text}:
		return nil
	case <-r.done:
		return errChatClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting replies.
func (r *Replier) Close() {
	r.once.Do(func() { close(r.done) })
}

// waitForReply blocks until the next reply arrives.
func (r *Replier) waitForReply() tea.Msg {
	select {
	case msg := <-r.replies:
		return msg
	case <-r.done:
		return nil
	}
}
