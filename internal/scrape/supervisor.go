package scrape

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"golunch/internal/lunch"
)

// Result carries one scraper run's outcome to the supervisor. Exactly one
// of Res and Err is set.
type Result struct {
	Scraper string
	Res     *lunch.SiteScrapeResult
	Err     error
}

// CacheSaver is the flush hook invoked once at shutdown, typically the
// shared fetch client writing its cache snapshot.
type CacheSaver interface {
	Save() error
}

// Config controls supervisor behavior.
type Config struct {
	// Cron is the schedule expression. Empty selects one-shot mode: one
	// Run cycle, then shutdown without waiting for a signal.
	Cron string
	// ResultBuffer is the capacity of the result channel. Scrapers block
	// when it is full.
	ResultBuffer int
	// CommandBuffer is the per-subscriber buffer on the command bus.
	CommandBuffer int
}

// state tracks supervisor lifecycle for logging.
type state int

const (
	stateStarting state = iota
	stateRunning
	stateDraining
	stateStopped
)

func (s state) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateRunning:
		return "running"
	case stateDraining:
		return "draining"
	case stateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Supervisor owns the scrape lifecycle: it starts the scheduler, spawns
// one goroutine per scraper, fans Run/Shutdown commands out over the bus,
// drains results, applies each to the store, and shuts down cleanly on
// signal or one-shot completion.
type Supervisor struct {
	scrapers []lunch.SiteScraper
	store    lunch.Store
	saver    CacheSaver
	cfg      Config
	logger   *zap.Logger
}

// NewSupervisor wires a Supervisor. saver may be nil when there is no
// cache to flush.
func NewSupervisor(
	scrapers []lunch.SiteScraper,
	store lunch.Store,
	saver CacheSaver,
	cfg Config,
	logger *zap.Logger,
) *Supervisor {
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{
		scrapers: scrapers,
		store:    store,
		saver:    saver,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run drives the full lifecycle and blocks until shutdown is complete.
// ctx ending is the external shutdown signal. A malformed cron spec is
// fatal; everything after startup is handled without aborting the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Debug("supervisor state", zap.Stringer("state", stateStarting))

	if len(s.scrapers) == 0 {
		return fmt.Errorf("no scrapers configured")
	}

	bus := NewBus(s.cfg.CommandBuffer, s.logger)
	results := make(chan Result, s.cfg.ResultBuffer)

	sched, err := newScheduler(s.cfg.Cron, func() {
		s.logger.Debug("schedule fired, notifying all scrapers")
		bus.Publish(CommandRun)
	}, s.logger)
	if err != nil {
		return err
	}
	oneShot := sched == nil
	if oneShot {
		s.logger.Info("no schedule given, running one-off scrape")
	} else {
		s.logger.Info("running scrapers on schedule", zap.String("cron", s.cfg.Cron))
		// the timer starts before any scraper goroutine exists; a firing
		// with no subscribers is a no-op
		sched.start()
	}

	// Shutdown is cooperative: scraper goroutines finish their current
	// fetch before checking for commands, so they must not observe the
	// signal-cancelled context directly. The HTTP client's request
	// timeout is the hard cancellation boundary.
	taskCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for _, sc := range s.scrapers {
		wg.Add(1)
		sub := bus.Subscribe()
		go func(sc lunch.SiteScraper) {
			defer wg.Done()
			s.runScraper(taskCtx, sc, sub, results)
		}(sc)
	}

	if oneShot {
		bus.Publish(CommandRun)
	}

	s.logger.Debug("supervisor state", zap.Stringer("state", stateRunning))
	received := 0
running:
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutdown signal received")
			break running
		case r := <-results:
			s.applyResult(taskCtx, r)
			received++
			if oneShot && received == len(s.scrapers) {
				s.logger.Debug("one-shot cycle complete",
					zap.Int("results", received))
				break running
			}
		}
	}

	s.logger.Debug("supervisor state", zap.Stringer("state", stateDraining))
	if sched != nil {
		sched.stop()
	}
	bus.Publish(CommandShutdown)
	bus.Close()

	go func() {
		wg.Wait()
		close(results)
	}()
	// keep applying in-flight results until every scraper goroutine has
	// exited, so nobody blocks on a full result channel during drain
	for r := range results {
		s.applyResult(taskCtx, r)
	}

	s.logger.Debug("supervisor state", zap.Stringer("state", stateStopped))
	s.store.Close()
	if s.saver != nil {
		if err := s.saver.Save(); err != nil {
			// best effort only
			s.logger.Error("failed to save cache", zap.Error(err))
		}
	}
	return nil
}

// runScraper is one scraper's task loop: wait for a command, run once,
// report the result. A failed run is reported and the loop continues; the
// loop only exits on Shutdown, bus close, or context end.
func (s *Supervisor) runScraper(
	ctx context.Context,
	sc lunch.SiteScraper,
	sub *Subscription,
	results chan<- Result,
) {
	logger := s.logger.With(zap.String("scraper", sc.Name()))
	for {
		cmd, err := sub.Recv(ctx)
		if err != nil {
			// closed bus or ended context: normal termination
			logger.Debug("scraper loop exiting", zap.Error(err))
			return
		}
		switch cmd {
		case CommandShutdown:
			logger.Debug("scraper stopping on shutdown command")
			return
		case CommandRun:
			start := time.Now()
			res, err := sc.Scrape(ctx)
			scrapeDuration.WithLabelValues(sc.Name()).Observe(time.Since(start).Seconds())
			if err != nil {
				scrapeRuns.WithLabelValues(sc.Name(), "error").Inc()
			} else {
				scrapeRuns.WithLabelValues(sc.Name(), "ok").Inc()
			}
			select {
			case results <- Result{Scraper: sc.Name(), Res: res, Err: err}:
			case <-ctx.Done():
				// supervisor gone; nothing left to report to
				return
			}
		}
	}
}

// applyResult persists one result. Failures are logged, never escalated:
// a site whose data cannot be written this cycle is retried by the next
// Run.
func (s *Supervisor) applyResult(ctx context.Context, r Result) {
	logger := s.logger.With(zap.String("scraper", r.Scraper))
	if r.Err != nil {
		logger.Error("scrape failed", zap.Error(r.Err))
		return
	}
	logger.Info("scrape succeeded",
		zap.Int("restaurants", r.Res.NumRestaurants()),
		zap.Int("dishes", r.Res.NumDishes()))
	if err := s.store.ApplyScrape(ctx, r.Res); err != nil {
		applyFailures.Inc()
		logger.Error("failed to persist scrape result", zap.Error(err))
	}
}
