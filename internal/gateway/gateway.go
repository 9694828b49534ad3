// Package gateway is the thin boundary to the messaging platform: it
// sends channel messages and threaded replies, lists the member
// directory, and dispatches inbound Socket Mode events to handlers.
package gateway

import "context"

// Action is an attachment button offered with a message.
type Action struct {
	Text string
	URL  string
}

// Message is one outbound notification. ThreadID targets a threaded
// reply when set.
type Message struct {
	Text     string
	ThreadID string
	Actions  []Action
}

// Sender posts a message and returns the platform message id.
type Sender interface {
	Send(ctx context.Context, m Message) (string, error)
}

// Member is one directory entry.
type Member struct {
	ID       string
	RealName string
}
