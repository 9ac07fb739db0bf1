package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// RefreshScheduler runs the refresh driver on a fixed interval for
// deployments without an external cron. The guarded HTTP endpoint stays
// the primary trigger; this is the fallback.
type RefreshScheduler struct {
	driver   *RefreshDriver
	interval time.Duration

	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewRefreshScheduler creates a scheduler that triggers the driver every
// interval.
func NewRefreshScheduler(driver *RefreshDriver, interval time.Duration) *RefreshScheduler {
	return &RefreshScheduler{
		driver:   driver,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the scheduler loop.
func (s *RefreshScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.mu.Unlock()

	log.Printf("[RefreshScheduler] Started - interval: %v", s.interval)
	go s.run()
}

func (s *RefreshScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runOnce()
		case <-s.stopCh:
			log.Printf("[RefreshScheduler] Stopped")
			return
		}
	}
}

// runOnce executes a single refresh run. A scheduled run is never
// canceled mid-flight; it runs to completion or process exit.
func (s *RefreshScheduler) runOnce() {
	report, err := s.driver.RunDailyRefresh(context.Background())
	if err != nil {
		log.Printf("[RefreshScheduler] run failed: %v", err)
		return
	}
	log.Printf("[RefreshScheduler] processed %d users (%d errors)",
		report.UsersProcessed, len(report.PerUserErrors))
}

// Stop stops the scheduler.
func (s *RefreshScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}
