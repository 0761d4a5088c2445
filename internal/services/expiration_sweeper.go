package services

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lagiexpress/booking-backend/internal/database"
	"github.com/lagiexpress/booking-backend/internal/monitoring"
)

// ExpirationSweeper is the background hygiene task for TTLs. Correctness
// does not depend on it: every reader already treats overdue holds and
// intents as inactive. The sweeper just keeps the tables from
// accumulating stale active rows.
type ExpirationSweeper struct {
	holdRepo   *database.HoldRepository
	intentRepo *database.PaymentIntentRepository
	logger     *logrus.Logger
	stopCh     chan struct{}
	interval   time.Duration
}

// NewExpirationSweeper creates a new expiration sweeper
func NewExpirationSweeper(
	holdRepo *database.HoldRepository,
	intentRepo *database.PaymentIntentRepository,
	interval time.Duration,
	logger *logrus.Logger,
) *ExpirationSweeper {
	return &ExpirationSweeper{
		holdRepo:   holdRepo,
		intentRepo: intentRepo,
		logger:     logger,
		stopCh:     make(chan struct{}),
		interval:   interval,
	}
}

// Start begins the background sweep loop
func (s *ExpirationSweeper) Start() {
	s.logger.WithField("interval", s.interval.String()).Info("🕐 Starting expiration sweeper")
	go s.run()
}

// Stop stops the background sweep loop
func (s *ExpirationSweeper) Stop() {
	s.logger.Info("🛑 Stopping expiration sweeper")
	close(s.stopCh)
}

func (s *ExpirationSweeper) run() {
	// Run immediately on start
	s.RunOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce()
		case <-s.stopCh:
			s.logger.Info("Expiration sweeper stopped")
			return
		}
	}
}

// RunOnce runs a single sweep cycle (also exposed for the admin
// manual-sweep endpoint)
func (s *ExpirationSweeper) RunOnce() {
	now := time.Now()

	holds, err := s.holdRepo.ExpireOverdue(now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire overdue holds")
	} else if holds > 0 {
		monitoring.TrackSweeperReleases("hold", holds)
		s.logger.WithField("count", holds).Info("Expired overdue holds")
	}

	intents, err := s.intentRepo.ExpireOverdue(now)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire overdue payment intents")
	} else if intents > 0 {
		monitoring.TrackSweeperReleases("payment_intent", intents)
		s.logger.WithField("count", intents).Info("Expired overdue payment intents")
	}
}
