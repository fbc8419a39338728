package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Poller runs one polling cycle.
type Poller interface {
	Poll(ctx context.Context) error
}

type PollingService struct {
	poller          Poller
	pollingInterval time.Duration
}

func NewPollingService(poller Poller, pollingInterval time.Duration) *PollingService {
	return &PollingService{
		poller:          poller,
		pollingInterval: pollingInterval,
	}
}

// logger wraps the execution context with component info
func (s *PollingService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "polling-service").Logger()
	return &l
}

// Start runs the polling loop until ctx is cancelled.
func (s *PollingService) Start(ctx context.Context) error {
	s.logger(ctx).Info().
		Dur("polling_interval", s.pollingInterval).
		Msg("starting polling service")

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger(ctx).Info().Msg("polling service stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.poller.Poll(ctx); err != nil {
				s.logger(ctx).Error().Err(err).Msg("polling cycle failed")
			}
		}
	}
}
