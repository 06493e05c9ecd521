package scrape

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// scheduler wraps a cron timer that fires the scrape cycle. The timer
// runs in local time, matching the lunch-hour semantics of the data.
type scheduler struct {
	c      *cron.Cron
	logger *zap.Logger
}

// newScheduler builds a scheduler for the given cron spec, invoking run
// on each firing. An empty spec means no scheduler (one-shot mode) and
// returns nil without error; a malformed spec is an error, which callers
// treat as fatal.
func newScheduler(spec string, run func(), logger *zap.Logger) (*scheduler, error) {
	if spec == "" {
		return nil, nil
	}
	c := cron.New(cron.WithLocation(time.Local))
	if _, err := c.AddFunc(spec, run); err != nil {
		return nil, fmt.Errorf("parse cron spec %q: %w", spec, err)
	}
	return &scheduler{c: c, logger: logger}, nil
}

func (s *scheduler) start() {
	s.logger.Debug("starting scheduler")
	s.c.Start()
}

// stop shuts the timer down and waits for any in-flight firing callback.
func (s *scheduler) stop() {
	s.logger.Debug("stopping scheduler")
	<-s.c.Stop().Done()
}
