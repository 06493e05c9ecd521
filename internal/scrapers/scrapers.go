// Package scrapers wires the individual site adapters into the set the
// supervisor runs.
package scrapers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"golunch/internal/fetch"
	"golunch/internal/lunch"
	"golunch/internal/scrapers/lindholmen"
	"golunch/internal/scrapers/lindholmensite"
)

// Options selects between adapter variants.
type Options struct {
	// LegacyLindholmen uses the old lindholmen.se HTML scraper instead
	// of the community data set.
	LegacyLindholmen bool
}

// All constructs every configured site scraper, resolving each one's
// site identity against the store exactly once. A key that does not
// resolve is a deployment error and fails startup.
func All(ctx context.Context, client *fetch.Client, store lunch.Store, opts Options, logger *zap.Logger) ([]lunch.SiteScraper, error) {
	lhKey := lunch.SiteKey{Country: "se", City: "gbg", Site: "lh"}
	rel, err := store.SiteRelation(ctx, lhKey)
	if err != nil {
		return nil, fmt.Errorf("resolve site %s/%s/%s: %w", lhKey.Country, lhKey.City, lhKey.Site, err)
	}

	var lh lunch.SiteScraper
	if opts.LegacyLindholmen {
		lh = lindholmensite.New(client, rel.SiteID, logger.Named("lindholmensite"))
	} else {
		lh = lindholmen.New(client, rel.SiteID, logger.Named("lindholmen"))
	}
	return []lunch.SiteScraper{lh}, nil
}
