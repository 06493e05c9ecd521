package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"golunch/internal/lunch"
)

type fakeStore struct {
	rel  lunch.SiteRelation
	site *lunch.Site
}

func (f *fakeStore) SiteRelation(_ context.Context, key lunch.SiteKey) (lunch.SiteRelation, error) {
	if key.Site != "lh" {
		return lunch.SiteRelation{}, fmt.Errorf("site %s: %w", key.Site, lunch.ErrNotFound)
	}
	return f.rel, nil
}

func (f *fakeStore) ApplyScrape(context.Context, *lunch.SiteScrapeResult) error { return nil }
func (f *fakeStore) Countries(context.Context) ([]lunch.Country, error)         { return nil, nil }
func (f *fakeStore) Cities(context.Context, string) ([]lunch.City, error)       { return nil, nil }
func (f *fakeStore) Sites(context.Context, string, string) ([]lunch.Site, error) {
	return nil, nil
}

func (f *fakeStore) SiteMenu(context.Context, uuid.UUID) (*lunch.Site, error) {
	return f.site, nil
}

func (f *fakeStore) Close() {}

func newTestServer(gtag string) *Server {
	siteID := uuid.New()
	r := lunch.NewRestaurant("Bistrot Bellora", siteID)
	r.URL = "https://example.com/bistrot"
	d := lunch.NewDish("meatballs")
	d.Description = "with spaghetti"
	d.Price = 95
	r.AddDish(d)

	store := &fakeStore{
		rel: lunch.SiteRelation{SiteID: siteID},
		site: &lunch.Site{
			ID:          siteID,
			Name:        "Lindholmen",
			URLID:       "lh",
			Restaurants: []lunch.Restaurant{r},
		},
	}
	return NewServer(store, gtag, zap.NewNop())
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestRootRedirectsToDefaultSite(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestServer(""), "/")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/se/gbg/lh", rec.Header().Get("Location"))
}

func TestMenuPageRendersRestaurantsAndDishes(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestServer(""), "/se/gbg/lh")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	require.Contains(t, body, "<h1>Lindholmen</h1>")
	require.Contains(t, body, "Bistrot Bellora")
	require.Contains(t, body, "meatballs")
	require.Contains(t, body, "with spaghetti")
	require.NotContains(t, body, "googletagmanager")
}

func TestMenuPageInjectsGTag(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestServer("G-TEST123"), "/se/gbg/lh")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "googletagmanager.com/gtag/js?id=G-TEST123")
}

func TestUnknownSiteIs404(t *testing.T) {
	t.Parallel()

	rec := get(t, newTestServer(""), "/se/gbg/nowhere")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
