package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs at a level derived from severity.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs n.
func (l *LogNotifier) Notify(ctx context.Context, n Notification) {
	l.logger.Log(ctx, levelFor(n.Severity), "notification",
		"severity", string(n.Severity),
		"title", n.Title,
		"message", n.Message,
	)
}

func levelFor(s Severity) slog.Level {
	switch s {
	case SeverityError:
		return slog.LevelError
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// WriterNotifier prints one line per notification, for terminal hosts.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier printing to w.
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify prints n as "[severity] title: message".
func (p *WriterNotifier) Notify(_ context.Context, n Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%s] %s: %s\n", n.Severity, n.Title, n.Message)
}
