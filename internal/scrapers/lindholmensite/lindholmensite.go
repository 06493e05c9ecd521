// Package lindholmensite scrapes the legacy lindholmen.se day-lunch page
// directly: one HTML document carries every restaurant's menu, and each
// restaurant's own page carries its address. The site stopped publishing
// menus mid-2025, but the embedded view still works and this adapter is
// kept for sites that still serve the layout.
package lindholmensite

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"golunch/internal/fetch"
	"golunch/internal/lunch"
	"golunch/internal/scrapers/scrapeutil"
)

const (
	defaultScrapeURL = "https://lindholmen.uit.se/omradet/dagens-lunch?embed-mode=iframe"
	urlPrefix        = "https://www.lindholmen.se/sv/"
	mapsDomain       = "maps.google.com"
)

// Scraper implements lunch.SiteScraper for the embedded day-lunch view.
type Scraper struct {
	client *fetch.Client
	siteID uuid.UUID
	logger *zap.Logger
	// overridable in tests
	scrapeURL string
	linkBase  string
	// fetchAddresses disables the per-restaurant detail fetches when the
	// menu page alone is wanted (and in tests)
	fetchAddresses bool
}

// New constructs the scraper with its resolved site id and the shared
// cached client.
func New(client *fetch.Client, siteID uuid.UUID, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		client:         client,
		siteID:         siteID,
		logger:         logger,
		scrapeURL:      defaultScrapeURL,
		linkBase:       urlPrefix,
		fetchAddresses: true,
	}
}

// Name implements lunch.SiteScraper.
func (s *Scraper) Name() string {
	return "se/gbg/lindholmensite"
}

// Scrape parses the day-lunch page into restaurants and dishes, then
// fetches each restaurant's page for address details. Address failures
// are logged per restaurant and do not fail the run.
func (s *Scraper) Scrape(ctx context.Context) (*lunch.SiteScrapeResult, error) {
	body, err := s.client.GetAsString(ctx, s.scrapeURL)
	if err != nil {
		return nil, err
	}

	restaurants, err := s.parseMenuPage(body)
	if err != nil {
		return nil, err
	}

	if s.fetchAddresses {
		s.updateAddresses(ctx, restaurants)
	}

	out := make([]lunch.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, *r)
	}
	return &lunch.SiteScrapeResult{
		SiteID:      s.siteID,
		Restaurants: out,
	}, nil
}

// parseMenuPage walks the children of div.view-content: an element with
// class "title" starts a new restaurant, everything else with a dish name
// inside belongs to the current one.
func (s *Scraper) parseMenuPage(body string) (map[string]*lunch.Restaurant, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse menu page: %w", err)
	}

	view := doc.Find("div.view-content").First()
	if view.Length() == 0 {
		return nil, fmt.Errorf("invalid HTML: no view content")
	}

	restaurants := make(map[string]*lunch.Restaurant)
	var current string

	view.Children().Each(func(_ int, sel *goquery.Selection) {
		class, ok := sel.Attr("class")
		if !ok {
			return
		}
		if strings.Contains(class, "title") {
			if name := strings.TrimSpace(sel.Text()); name != "" {
				current = name
			}
			return
		}
		dish, ok := parseDish(sel)
		if !ok || current == "" {
			return
		}
		link := s.linkBase + scrapeutil.Slugify(current)
		r, exists := restaurants[link]
		if !exists {
			nr := lunch.NewRestaurant(current, s.siteID)
			nr.URL = link
			r = &nr
			restaurants[link] = r
		}
		r.AddDish(dish)
	})

	return restaurants, nil
}

// updateAddresses fetches each restaurant's page and fills in address
// and map URL, throttled by the client's request delay.
func (s *Scraper) updateAddresses(ctx context.Context, restaurants map[string]*lunch.Restaurant) {
	for link, r := range restaurants {
		// throttle so we don't get blocked
		select {
		case <-time.After(s.client.RequestDelay()):
		case <-ctx.Done():
			return
		}
		addr, mapURL, err := s.fetchAddrInfo(ctx, link)
		if err != nil {
			s.logger.Error("failed to get address info",
				zap.String("url", link), zap.Error(err))
			continue
		}
		r.Address = addr
		r.MapURL = mapURL
	}
}

// fetchAddrInfo looks for a Google Maps link on the restaurant page,
// whose query carries the street address; failing that it falls back to
// the first paragraph after the heading.
func (s *Scraper) fetchAddrInfo(ctx context.Context, pageURL string) (addr, mapURL string, err error) {
	s.logger.Debug("fetching address info", zap.String("url", pageURL))
	body, err := s.client.GetAsString(ctx, pageURL)
	if err != nil {
		return "", "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("parse restaurant page: %w", err)
	}
	content := doc.Find("div.content").First()
	if content.Length() == 0 {
		return "", "", fmt.Errorf("invalid HTML: no content")
	}

	var found bool
	content.Find("p > a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, mapsDomain) {
			return true
		}
		u, perr := url.Parse(href)
		if perr != nil {
			err = perr
			return false
		}
		for _, v := range u.Query() {
			if len(v) > 0 && v[0] != "" {
				addr = strings.TrimSpace(v[0])
				mapURL = u.String()
				found = true
				return false
			}
		}
		return true
	})
	if err != nil {
		return "", "", err
	}
	if found {
		return addr, mapURL, nil
	}

	// no map link; try to find just an address, as on some pages
	if p := content.Find("div > h3 + p").First(); p.Length() > 0 {
		if text := strings.TrimSpace(p.Text()); text != "" {
			return text, "", nil
		}
	}
	return "", "", fmt.Errorf("no address found")
}

// parseDish extracts one dish from a menu row: the dish-name span holds
// name and description as separate text nodes, siblings carry type tag
// and price.
func parseDish(sel *goquery.Selection) (lunch.Dish, bool) {
	nameSel := sel.Find("span.dish-name").First()
	if nameSel.Length() == 0 {
		return lunch.Dish{}, false
	}
	parts := textParts(nameSel)
	if len(parts) == 0 || parts[0] == "" {
		return lunch.Dish{}, false
	}

	d := lunch.NewDish(parts[0])
	if len(parts) > 1 {
		d.Description = scrapeutil.ReduceWhitespace(parts[1])
	}
	if t := strings.TrimSpace(sel.Find("div.icon-dish").First().Text()); t != "" {
		d.Tags = append(d.Tags, t)
	}
	if p := sel.Find("div.table-list__column--price").First(); p.Length() > 0 {
		d.Price = scrapeutil.ParsePrice(p.Text())
	}
	return d, true
}

// textParts returns the trimmed direct text nodes of a selection's first
// node, skipping child elements.
func textParts(sel *goquery.Selection) []string {
	if len(sel.Nodes) == 0 {
		return nil
	}
	var parts []string
	for n := sel.Nodes[0].FirstChild; n != nil; n = n.NextSibling {
		if n.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(n.Data); t != "" {
			parts = append(parts, t)
		}
	}
	return parts
}
