package lunch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Store lookups when the requested entity
// does not exist.
var ErrNotFound = errors.New("not found")

// SiteScraper is a unit of scrape work: one implementation per site.
// A scraper is constructed once at supervisor startup with its resolved
// site id and a shared cache-backed HTTP client, then driven by Run
// commands for the rest of the process lifetime.
type SiteScraper interface {
	// Name is a stable display name used only for logging.
	Name() string
	// Scrape performs one full scrape of the site. Any error aborts this
	// run only; the scraper must remain usable for the next run.
	Scrape(ctx context.Context) (*SiteScrapeResult, error)
}

// Store persists the scraped hierarchy and serves the read side.
type Store interface {
	// SiteRelation resolves a url_id triple to its uuid triple.
	SiteRelation(ctx context.Context, key SiteKey) (SiteRelation, error)
	// ApplyScrape atomically replaces the restaurant/dish subtree for the
	// result's site. Applying the same result twice yields the same end
	// state.
	ApplyScrape(ctx context.Context, res *SiteScrapeResult) error

	Countries(ctx context.Context) ([]Country, error)
	Cities(ctx context.Context, countryURLID string) ([]City, error)
	Sites(ctx context.Context, countryURLID, cityURLID string) ([]Site, error)
	SiteMenu(ctx context.Context, siteID uuid.UUID) (*Site, error)

	Close()
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
