// Package notify announces completed builds that changed pages.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/sitebuilder/internal/changes"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Message is the JSON document published per build.
type Message struct {
	BuildID       string          `json:"build_id"`
	Status        string          `json:"status"`
	ModelRevision string          `json:"model_revision,omitempty"`
	Pages         int             `json:"pages"`
	Changes       *changes.Ledger `json:"changes"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Notifier delivers build messages.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NATSNotifier publishes messages on a core NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
}

// NewNATSNotifier connects to cfg.NATSURL.
func NewNATSNotifier(cfg config.NotifyConfig, timeout time.Duration) (*NATSNotifier, error) {
	if !cfg.Enabled() {
		return nil, errors.ConfigError("notify.nats_url is not set").WithContext("field", "notify.nats_url").Build()
	}
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("sitebuilder"),
		nats.Timeout(timeout),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to connect to NATS").
			Retryable().WithContext("url", cfg.NATSURL).Build()
	}
	slog.Info("NATS notifier connected", logfields.URL(cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &NATSNotifier{conn: conn, subject: cfg.Subject, timeout: timeout}, nil
}

// Notify publishes msg and waits for the server to acknowledge the flush.
func (n *NATSNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode notification").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to publish notification").
			WithContext("subject", n.subject).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to flush notification").
			WithContext("subject", n.subject).Build()
	}
	slog.Debug("Published build notification", slog.String("subject", n.subject), logfields.BuildID(msg.BuildID))
	return nil
}

// Close drains the connection.
func (n *NATSNotifier) Close() error {
	if n == nil || n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
