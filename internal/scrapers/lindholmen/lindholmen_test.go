package lindholmen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"golunch/internal/fetch"
	"golunch/internal/lunch"
)

const linksJSON = `{
	"Bistrot Bellora": {"url": "https://example.com/bistrot", "map": "https://maps.google.com/?q=Bistrot"},
	"Pier 11": {"url": "https://example.com/pier11", "map": "https://maps.google.com/?q=Pier+11"},
	"Ghost Kitchen": {"url": "https://example.com/ghost", "map": ""}
}`

const mondayJSON = `{
	"Bistrot BelloraScraper": {"items": [
		{"name": "meatballs", "description": "with  spaghetti", "price": 95, "tags": ["meat"]},
		{"name": "soup of the day", "price": 85}
	]},
	"Pier 11Scraper": {"items": [
		{"name": "fish and chips", "price": 129.5}
	]},
	"UnknownPlaceScraper": {"items": [
		{"name": "mystery meat", "price": 50}
	]}
}`

func newTestScraper(t *testing.T) (*Scraper, uuid.UUID) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/links.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(linksJSON))
	})
	mux.HandleFunc("/lunch_data_monday.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(mondayJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := fetch.NewClient(fetch.Options{RequestTimeout: time.Second}, zap.NewNop())
	siteID := uuid.New()

	s := New(client, siteID, zap.NewNop())
	s.linksURL = srv.URL + "/links.json"
	s.dayURLBase = srv.URL + "/lunch_data_%s.json"
	// pin the clock to a Monday
	s.now = func() time.Time {
		return time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC)
	}
	return s, siteID
}

func TestScrapeJoinsMenusToRestaurants(t *testing.T) {
	t.Parallel()

	s, siteID := newTestScraper(t)

	res, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Equal(t, siteID, res.SiteID)
	require.Equal(t, 3, res.NumRestaurants())
	require.Equal(t, 3, res.NumDishes())

	byName := make(map[string]lunch.Restaurant, len(res.Restaurants))
	for _, r := range res.Restaurants {
		require.Equal(t, siteID, r.SiteID)
		byName[r.Name] = r
	}

	bistrot := byName["Bistrot Bellora"]
	require.Equal(t, "https://example.com/bistrot", bistrot.URL)
	require.Len(t, bistrot.Dishes, 2)
	for _, d := range bistrot.Dishes {
		require.Equal(t, bistrot.ID, d.RestaurantID)
	}
	require.Equal(t, "meatballs", bistrot.Dishes[0].Name)
	require.Equal(t, "with spaghetti", bistrot.Dishes[0].Description)
	require.InDelta(t, 95.0, bistrot.Dishes[0].Price, 0.001)
	require.Equal(t, []string{"meat"}, bistrot.Dishes[0].Tags)

	pier := byName["Pier 11"]
	require.Len(t, pier.Dishes, 1)
	require.InDelta(t, 129.5, pier.Dishes[0].Price, 0.001)

	// a restaurant with no menu keeps its links and has no dishes
	ghost := byName["Ghost Kitchen"]
	require.Empty(t, ghost.Dishes)
	require.Equal(t, "https://example.com/ghost", ghost.URL)
}

func TestScrapeFailsWhenLinksUnreachable(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t)
	s.linksURL = "http://127.0.0.1:1/nope.json"

	_, err := s.Scrape(context.Background())
	require.Error(t, err)
}

func TestScrapeFailsOnMissingDayFile(t *testing.T) {
	t.Parallel()

	s, _ := newTestScraper(t)
	// a Saturday: no data file exists upstream, the run errors out
	s.now = func() time.Time {
		return time.Date(2026, 8, 22, 11, 0, 0, 0, time.UTC)
	}

	_, err := s.Scrape(context.Background())
	require.Error(t, err)
}
