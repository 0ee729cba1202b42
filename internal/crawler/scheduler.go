package crawler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/joejoinerr/CrawlnChat/internal/config"
	"github.com/joejoinerr/CrawlnChat/internal/contentstore"
	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
)

// DefaultFreshnessSchedule checks content freshness once an hour.
const DefaultFreshnessSchedule = "@hourly"

// Scheduler periodically recrawls websites whose content has gone stale.
// Staleness is each website's FreshnessDays measured against the namespace's
// most recent crawl timestamp.
type Scheduler struct {
	processor *Processor
	store     contentstore.ContentStore
	sites     []config.WebsiteConfig
	schedule  string
	cron      *cron.Cron
	log       *logger.Logger
}

// NewScheduler creates a freshness scheduler. An empty schedule uses
// DefaultFreshnessSchedule.
func NewScheduler(processor *Processor, store contentstore.ContentStore, sites []config.WebsiteConfig, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultFreshnessSchedule
	}
	return &Scheduler{
		processor: processor,
		store:     store,
		sites:     sites,
		schedule:  schedule,
		log:       logger.GetLogger("scheduler"),
	}
}

// Start begins the freshness checks. The returned error covers schedule
// parsing only; crawl failures are logged and retried on the next tick.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.schedule, func() {
		s.checkFreshness(ctx)
	})
	if err != nil {
		return errortypes.ConfigError(err, "invalid freshness schedule")
	}

	s.cron = c
	c.Start()
	s.log.Info("Freshness scheduler started with schedule %q", s.schedule)
	return nil
}

// Stop halts the scheduler and waits for a running check to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.log.Info("Freshness scheduler stopped")
	}
}

// checkFreshness recrawls every website whose namespace is stale.
func (s *Scheduler) checkFreshness(ctx context.Context) {
	for _, site := range s.sites {
		stale, err := s.isStale(site)
		if err != nil {
			s.log.Error("Freshness check failed for %s: %v", site.Name, err)
			continue
		}
		if !stale {
			continue
		}

		s.log.Info("Content for %s is stale, recrawling", site.Name)
		if _, err := s.processor.CrawlWebsite(ctx, site, true); err != nil {
			s.log.Error("Scheduled recrawl of %s failed: %v", site.Name, err)
		}
	}
}

func (s *Scheduler) isStale(site config.WebsiteConfig) (bool, error) {
	lastCrawled, err := s.store.LastCrawled(site.Namespace())
	if err != nil {
		return false, err
	}
	if lastCrawled.IsZero() {
		// Never crawled; the initial crawl is handled at startup, not here.
		return false, nil
	}

	maxAge := time.Duration(site.FreshnessDays) * 24 * time.Hour
	return time.Since(lastCrawled) > maxAge, nil
}
