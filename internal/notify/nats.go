package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "cepfinder.notifications"

// Publisher is the subset of *nats.Conn used to emit notifications.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes notifications as JSON on "<prefix>.<severity>".
type NATSNotifier struct {
	conn   Publisher
	prefix string
	logger *slog.Logger
}

// NATSMessage is the payload published for each notification.
type NATSMessage struct {
	Notification
	SessionID string    `json:"session_id,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

type sessionKey struct{}

// WithSessionID tags notifications emitted under ctx with a session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session id stored by WithSessionID, if any.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// NewNATSNotifier creates a notifier publishing through conn.
func NewNATSNotifier(conn Publisher, prefix string, logger *slog.Logger) *NATSNotifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSNotifier{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the subject a notification of severity s is published on.
func (n *NATSNotifier) Subject(s Severity) string {
	return n.prefix + "." + string(s)
}

// Notify publishes msg. Publish failures are logged and otherwise ignored.
func (n *NATSNotifier) Notify(ctx context.Context, msg Notification) {
	data, err := json.Marshal(NATSMessage{
		Notification: msg,
		SessionID:    SessionID(ctx),
		SentAt:       time.Now().UTC(),
	})
	if err != nil {
		n.logger.Error("failed to encode notification", "error", err)
		return
	}

	if err := n.conn.Publish(n.Subject(msg.Severity), data); err != nil {
		n.logger.Warn("failed to publish notification",
			"subject", n.Subject(msg.Severity),
			"error", err,
		)
	}
}

// ConnectNATS dials the NATS server at url with reconnect logging.
func ConnectNATS(url string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("cepfinder"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}
