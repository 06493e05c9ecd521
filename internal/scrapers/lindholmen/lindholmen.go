// Package lindholmen scrapes the Lindholmen area menu from the
// community-maintained lindholmen_lunch data set: a directory of
// restaurant links plus one menu file per weekday. Permission is granted
// to use this data.
package lindholmen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"golunch/internal/fetch"
	"golunch/internal/lunch"
	"golunch/internal/scrapers/scrapeutil"
)

const (
	linksURL   = "https://raw.githubusercontent.com/Fawenah/lindholmen_lunch/refs/heads/main/data/restaurant_links.json"
	dayURLBase = "https://github.com/Fawenah/lindholmen_lunch/raw/refs/heads/main/data/lunch_data_%s.json"
	// menu files are keyed by the upstream scraper name
	keySuffix = "Scraper"
)

// restaurantLink is one entry of the directory file, keyed by restaurant
// name.
type restaurantLink struct {
	URL string `json:"url"`
	Map string `json:"map"`
}

// menuItem is one dish of a day menu.
type menuItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float32  `json:"price"`
	Tags        []string `json:"tags"`
}

// dayMenu is one restaurant's menu for the day.
type dayMenu struct {
	Items []menuItem `json:"items"`
}

// Scraper implements lunch.SiteScraper for the Lindholmen site.
type Scraper struct {
	client *fetch.Client
	siteID uuid.UUID
	logger *zap.Logger
	now    func() time.Time
	// overridable in tests
	linksURL   string
	dayURLBase string
}

// New constructs the scraper with its resolved site id and the shared
// cached client.
func New(client *fetch.Client, siteID uuid.UUID, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		client:     client,
		siteID:     siteID,
		logger:     logger,
		now:        time.Now,
		linksURL:   linksURL,
		dayURLBase: dayURLBase,
	}
}

// Name implements lunch.SiteScraper.
func (s *Scraper) Name() string {
	return "se/gbg/lindholmen"
}

// Scrape fetches the restaurant directory and the current weekday's menu
// file, then joins menu entries to restaurants by name. Menu entries
// without a matching restaurant are logged and skipped; restaurants
// without menus are kept (links and map URL only), as upstream does.
func (s *Scraper) Scrape(ctx context.Context) (*lunch.SiteScrapeResult, error) {
	start := time.Now()

	links, err := s.fetchLinks(ctx)
	if err != nil {
		return nil, err
	}

	restaurants := make(map[string]*lunch.Restaurant, len(links))
	for name, link := range links {
		r := lunch.NewRestaurant(name, s.siteID)
		r.URL = link.URL
		r.MapURL = link.Map
		restaurants[name] = &r
	}
	s.logger.Debug("constructed initial restaurant set",
		zap.Int("restaurants", len(restaurants)),
		zap.Duration("elapsed", time.Since(start)))

	menus, err := s.fetchDayMenus(ctx)
	if err != nil {
		return nil, err
	}

	for key, menu := range menus {
		name := strings.TrimSuffix(key, keySuffix)
		r, ok := restaurants[name]
		if !ok {
			s.logger.Debug("no restaurant match for menu key", zap.String("key", name))
			continue
		}
		for _, item := range menu.Items {
			d := lunch.NewDish(item.Name)
			d.Description = scrapeutil.ReduceWhitespace(item.Description)
			d.Tags = item.Tags
			d.Price = item.Price
			r.AddDish(d)
		}
	}

	out := make([]lunch.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, *r)
	}

	s.logger.Debug("scrape done", zap.Duration("elapsed", time.Since(start)))
	return &lunch.SiteScrapeResult{
		SiteID:      s.siteID,
		Restaurants: out,
	}, nil
}

func (s *Scraper) fetchLinks(ctx context.Context) (map[string]restaurantLink, error) {
	body, err := s.client.GetAsString(ctx, s.linksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch restaurant links: %w", err)
	}
	var links map[string]restaurantLink
	if err := json.Unmarshal([]byte(body), &links); err != nil {
		return nil, fmt.Errorf("decode restaurant links: %w", err)
	}
	return links, nil
}

func (s *Scraper) fetchDayMenus(ctx context.Context) (map[string]dayMenu, error) {
	// there are only files for monday-friday; on other days the fetch
	// fails and the run is reported as an error
	url := fmt.Sprintf(s.dayURLBase, scrapeutil.WeekdayName(s.now()))
	body, err := s.client.GetAsString(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch day menu: %w", err)
	}
	var menus map[string]dayMenu
	if err := json.Unmarshal([]byte(body), &menus); err != nil {
		return nil, fmt.Errorf("decode day menu: %w", err)
	}
	return menus, nil
}
