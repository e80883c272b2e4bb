package vm

import (
	"go.uber.org/zap"
)

// Service exposes the VM lifecycle operations, composing the api session
// and the transaction waiter.
type Service struct {
	client apiClient
	waiter txWaiter
	log    *zap.Logger
	events eventPublisher
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEvents attaches a lifecycle event publisher.
func WithEvents(p eventPublisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// NewService creates a Service on top of the given session and waiter.
func NewService(client apiClient, waiter txWaiter, opts ...Option) *Service {
	s := &Service{
		client: client,
		waiter: waiter,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish emits a lifecycle event when a publisher is configured. Event
// delivery failures are logged, never fatal: the operation itself already
// succeeded.
func (s *Service) publish(subject string, m *VM) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, m.Attributes()); err != nil {
		s.log.Warn("failed to publish lifecycle event",
			zap.String("subject", subject),
			zap.String("id", m.ID.String()),
			zap.Error(err))
	}
}
