package workers

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yfeng-ca/fengdock/app/services"
)

// Scheduler runs the two periodic jobs: link health checks on an interval
// and the watch refresh on a cron expression. Each job holds an in-flight
// guard so overlapping ticks never run concurrently against the store;
// failures are logged and retried on the next tick only.
type Scheduler struct {
	linkCheck    *services.LinkCheckService
	watches      *services.WatchService
	linkInterval time.Duration
	watchCron    string

	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	linkMu  sync.Mutex
	watchMu sync.Mutex
}

func New(linkCheck *services.LinkCheckService, watches *services.WatchService, linkInterval time.Duration, watchCron string) *Scheduler {
	return &Scheduler{
		linkCheck:    linkCheck,
		watches:      watches,
		linkInterval: linkInterval,
		watchCron:    watchCron,
		cron:         cron.New(),
		stopCh:       make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.watchCron != "" {
		log.Printf("Starting watch refresh with cron: %s", s.watchCron)
		_, err := s.cron.AddFunc(s.watchCron, func() {
			s.runWatchRefresh(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	}

	if s.linkInterval > 0 {
		log.Printf("Starting link health checks with interval: %s", s.linkInterval)
		s.ticker = time.NewTicker(s.linkInterval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runLinkCheck(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// One immediate sweep so fresh deploys don't show "unknown" for the
	// whole first interval.
	go s.runLinkCheck(ctx)

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) runLinkCheck(ctx context.Context) {
	if !s.linkMu.TryLock() {
		log.Println("Link check still running, skipping tick")
		return
	}
	defer s.linkMu.Unlock()

	if err := s.linkCheck.Run(ctx); err != nil {
		log.Printf("Link check error: %v", err)
	}
}

func (s *Scheduler) runWatchRefresh(ctx context.Context) {
	if !s.watchMu.TryLock() {
		log.Println("Watch refresh still running, skipping tick")
		return
	}
	defer s.watchMu.Unlock()

	if _, err := s.watches.RefreshAll(ctx); err != nil {
		log.Printf("Watch refresh error: %v", err)
	}
}

// TriggerLinkCheck runs a sweep immediately, used by the CLI.
func (s *Scheduler) TriggerLinkCheck(ctx context.Context) {
	s.runLinkCheck(ctx)
}

// TriggerWatchRefresh runs a refresh immediately, used by the CLI.
func (s *Scheduler) TriggerWatchRefresh(ctx context.Context) {
	s.runWatchRefresh(ctx)
}
