// Package events publishes VM lifecycle events to NATS.
//
// Publishing is optional: the client works without a broker, and callers
// only construct a Publisher when one is configured.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects for lifecycle events.
const (
	SubjectCreated = "gigas.vm.created"
	SubjectDeleted = "gigas.vm.deleted"
)

// Publisher sends lifecycle events over a NATS connection.
type Publisher struct {
	nc  *nats.Conn
	log *zap.Logger
}

// Connect dials the NATS server at url and returns a Publisher.
// The connection reconnects indefinitely; transient broker outages are
// logged, not fatal.
func Connect(url string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}

	opts := []nats.Option{
		nats.Name("gigas-client"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}

	return &Publisher{nc: nc, log: log}, nil
}

// Publish encodes payload as JSON and publishes it on subject.
func (p *Publisher) Publish(subject string, payload any) error {
	if p.nc == nil || p.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode event for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	return nil
}

// Close drains and closes the connection. Safe to call on a nil Publisher.
func (p *Publisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.log.Warn("failed to drain nats connection", zap.Error(err))
	}
	p.nc.Close()
}
