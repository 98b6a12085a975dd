// Package notify holds user-facing notifications keyed by semantic channel.
//
// A notification posted to a channel supersedes whatever is still pending in
// that channel, so repeated failures or repeated empty results never stack.
package notify

import (
	"sync"
)

// Channel identifies the category of a notification
type Channel int

const (
	// ChannelError carries generic failure notifications
	ChannelError Channel = iota
	// ChannelEmpty carries "no results" notifications
	ChannelEmpty
)

// String returns the channel's identity
func (c Channel) String() string {
	switch c {
	case ChannelError:
		return "error"
	case ChannelEmpty:
		return "no-results"
	default:
		return "unknown"
	}
}

// Fixed notification texts
const (
	MessageFailure   = "Something went wrong. Please try again."
	MessageNoResults = "No movies found for your query"
)

// Notification is a single message shown to the user
type Notification struct {
	Channel Channel
	Message string
}

// Notifier accepts notifications
type Notifier interface {
	Notify(n Notification)
}

// Failure returns the generic failure notification
func Failure() Notification {
	return Notification{Channel: ChannelError, Message: MessageFailure}
}

// NoResults returns the empty-result notification
func NoResults() Notification {
	return Notification{Channel: ChannelEmpty, Message: MessageNoResults}
}

// Board keeps at most one pending notification per channel
type Board struct {
	mu      sync.Mutex
	pending map[Channel]Notification
	posted  int
}

// NewBoard creates an empty notification board
func NewBoard() *Board {
	return &Board{pending: make(map[Channel]Notification)}
}

// Notify posts n, replacing any pending notification in the same channel
func (b *Board) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[n.Channel] = n
	b.posted++
}

// Drain returns pending notifications in channel order and clears the board
func (b *Board) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return nil
	}

	out := make([]Notification, 0, len(b.pending))
	for _, ch := range []Channel{ChannelError, ChannelEmpty} {
		if n, ok := b.pending[ch]; ok {
			out = append(out, n)
		}
	}
	clear(b.pending)
	return out
}

// Pending returns the number of notifications waiting to be shown
func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.pending)
}

// Posted returns how many notifications were ever posted, superseded ones included
func (b *Board) Posted() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.posted
}
