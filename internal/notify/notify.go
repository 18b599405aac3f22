// Package notify carries transient user-facing messages out of the lookup
// workflows. A Notification is a tagged value over four severities; where it
// ends up (a log line, an HTTP response, a NATS subject) is up to the Notifier.
package notify

import (
	"context"
	"sync"
)

// Severity tags a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Notification is a transient message shown to the user.
type Notification struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

func Success(title, message string) Notification {
	return Notification{Severity: SeveritySuccess, Title: title, Message: message}
}

func Error(title, message string) Notification {
	return Notification{Severity: SeverityError, Title: title, Message: message}
}

func Warning(title, message string) Notification {
	return Notification{Severity: SeverityWarning, Title: title, Message: message}
}

func Info(title, message string) Notification {
	return Notification{Severity: SeverityInfo, Title: title, Message: message}
}

// Notifier surfaces notifications to the user.
// Implementations must not block for long and must not fail loudly:
// delivery problems are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notification) {
	f(ctx, n)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

type multi []Notifier

func (m multi) Notify(ctx context.Context, n Notification) {
	for _, target := range m {
		target.Notify(ctx, n)
	}
}

// Multi fans a notification out to every non-nil notifier, in order.
func Multi(notifiers ...Notifier) Notifier {
	out := make(multi, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Buffer collects notifications until they are drained.
// The HTTP host keeps one per session and returns its contents with each response.
type Buffer struct {
	mu    sync.Mutex
	items []Notification
}

// Notify appends n to the buffer.
func (b *Buffer) Notify(_ context.Context, n Notification) {
	b.mu.Lock()
	b.items = append(b.items, n)
	b.mu.Unlock()
}

// Drain returns the buffered notifications and empties the buffer.
// It never returns nil so JSON encodes an empty list.
func (b *Buffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.items
	b.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Len returns the number of buffered notifications.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
