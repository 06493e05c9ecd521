package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"golunch/internal/lunch"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewWithPool(mock)
	require.NoError(t, err)
	return store, mock
}

func scrapeResult(siteID uuid.UUID) *lunch.SiteScrapeResult {
	r1 := lunch.NewRestaurant("Bistrot Bellora", siteID)
	r1.URL = "https://example.com/bistrot"
	d := lunch.NewDish("meatballs")
	d.Description = "with spaghetti"
	d.Tags = []string{"meat", "dagens"}
	d.Price = 95
	r1.AddDish(d)
	r1.AddDish(lunch.NewDish("soup of the day"))

	r2 := lunch.NewRestaurant("Pier 11", siteID)
	r2.AddDish(lunch.NewDish("fish and chips"))

	return &lunch.SiteScrapeResult{
		SiteID:      siteID,
		Restaurants: []lunch.Restaurant{r1, r2},
	}
}

// expectApply registers the full delete-then-insert transaction for one
// apply of the given result.
func expectApply(mock pgxmock.PgxPoolIface, res *lunch.SiteScrapeResult) {
	mock.ExpectBegin()
	mock.ExpectExec("delete from restaurant").
		WithArgs(res.SiteID).
		WillReturnResult(pgxmock.NewResult("DELETE", int64(res.NumRestaurants())))
	mock.ExpectExec("insert into restaurant").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", int64(res.NumRestaurants())))
	mock.ExpectExec("insert into dish").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", int64(res.NumDishes())))
	mock.ExpectCommit()
	// deferred rollback after commit is a no-op
	mock.ExpectRollback()
}

func TestSiteRelationResolvesTriple(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	countryID, cityID, siteID := uuid.New(), uuid.New(), uuid.New()
	mock.ExpectQuery("select co.country_id, ci.city_id, site_id").
		WithArgs("se", "gbg", "lh").
		WillReturnRows(pgxmock.NewRows([]string{"country_id", "city_id", "site_id"}).
			AddRow(countryID, cityID, siteID))

	rel, err := store.SiteRelation(context.Background(), lunch.SiteKey{Country: "se", City: "gbg", Site: "lh"})
	require.NoError(t, err)
	require.Equal(t, lunch.SiteRelation{CountryID: countryID, CityID: cityID, SiteID: siteID}, rel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRelationUnknownKeyFails(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	mock.ExpectQuery("select co.country_id, ci.city_id, site_id").
		WithArgs("xx", "nowhere", "void").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.SiteRelation(context.Background(), lunch.SiteKey{Country: "xx", City: "nowhere", Site: "void"})
	require.ErrorIs(t, err, lunch.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyScrapeReplacesSubtree(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	res := scrapeResult(uuid.New())

	expectApply(mock, res)
	require.NoError(t, store.ApplyScrape(context.Background(), res))

	// applying the identical result again issues the identical
	// delete-then-insert transaction, so the end state is the same
	expectApply(mock, res)
	require.NoError(t, store.ApplyScrape(context.Background(), res))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyScrapeRollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	res := scrapeResult(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("delete from restaurant").
		WithArgs(res.SiteID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("insert into restaurant").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.ApplyScrape(context.Background(), res)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert restaurants")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountriesListsAll(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	seID := uuid.New()
	mock.ExpectQuery("select country_id, name, url_id").
		WillReturnRows(pgxmock.NewRows([]string{"country_id", "name", "url_id", "currency_suffix"}).
			AddRow(seID, "Sweden", "se", "kr"))

	countries, err := store.Countries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 1)
	require.Equal(t, "Sweden", countries[0].Name)
	require.Equal(t, "se", countries[0].URLID)
	require.Equal(t, "kr", countries[0].CurrencySuffix)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteMenuJoinsSubtree(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)

	siteID, cityID := uuid.New(), uuid.New()
	r1, r2 := uuid.New(), uuid.New()
	parsed := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("select site_id, city_id, name, url_id").
		WithArgs(siteID).
		WillReturnRows(pgxmock.NewRows([]string{"site_id", "city_id", "name", "url_id", "comment"}).
			AddRow(siteID, cityID, "Lindholmen", "lh", ""))
	mock.ExpectQuery("select restaurant_id, site_id, restaurant_name").
		WithArgs(siteID).
		WillReturnRows(pgxmock.NewRows([]string{
			"restaurant_id", "site_id", "restaurant_name", "comment", "address", "url", "map_url", "created_at",
		}).
			AddRow(r1, siteID, "Bistrot Bellora", "", "Lindholmspiren 1", "https://example.com/bistrot", "", parsed).
			AddRow(r2, siteID, "Pier 11", "", "", "", "", parsed))
	mock.ExpectQuery("select dish_id, restaurant_id, dish_name").
		WithArgs(pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{
			"dish_id", "restaurant_id", "dish_name", "description", "comment", "tags", "price",
		}).
			AddRow(uuid.New(), r1, "meatballs", "with spaghetti", "", "meat,dagens", float32(95)).
			AddRow(uuid.New(), r2, "fish and chips", "", "", "", float32(129.5)))
	mock.ExpectCommit()
	mock.ExpectRollback()

	site, err := store.SiteMenu(context.Background(), siteID)
	require.NoError(t, err)
	require.Equal(t, "Lindholmen", site.Name)
	require.Len(t, site.Restaurants, 2)

	bistrot := site.Restaurants[0]
	require.Equal(t, "Bistrot Bellora", bistrot.Name)
	require.Len(t, bistrot.Dishes, 1)
	require.Equal(t, []string{"meat", "dagens"}, bistrot.Dishes[0].Tags)
	require.InDelta(t, 95.0, bistrot.Dishes[0].Price, 0.001)

	pier := site.Restaurants[1]
	require.Len(t, pier.Dishes, 1)
	require.Empty(t, pier.Dishes[0].Tags)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteMenuEmptySiteHasNoDishQuery(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	siteID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("select site_id, city_id, name, url_id").
		WithArgs(siteID).
		WillReturnRows(pgxmock.NewRows([]string{"site_id", "city_id", "name", "url_id", "comment"}).
			AddRow(siteID, uuid.New(), "Lindholmen", "lh", ""))
	mock.ExpectQuery("select restaurant_id, site_id, restaurant_name").
		WithArgs(siteID).
		WillReturnRows(pgxmock.NewRows([]string{
			"restaurant_id", "site_id", "restaurant_name", "comment", "address", "url", "map_url", "created_at",
		}))
	mock.ExpectCommit()
	mock.ExpectRollback()

	site, err := store.SiteMenu(context.Background(), siteID)
	require.NoError(t, err)
	require.Empty(t, site.Restaurants)
	require.NoError(t, mock.ExpectationsWereMet())
}
