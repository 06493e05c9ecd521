// Package postgres provides the Postgres-backed lunch.Store.
//
// Anything that is more than a single query runs in a transaction, reads
// included: a scrape apply replaces a site's whole restaurant subtree
// with fresh ids, so a multi-query read outside a transaction could see
// rows that are already gone.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"golunch/internal/lunch"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements lunch.Store on a pgx connection pool.
type Store struct {
	pool pool
}

// New creates a Store using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: p}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for
// testing).
func NewWithPool(p pool) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: p}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SiteRelation resolves a url_id triple to its uuid triple.
func (s *Store) SiteRelation(ctx context.Context, key lunch.SiteKey) (lunch.SiteRelation, error) {
	const q = `
with co as (
	select country_id from country where url_id = $1
), ci as (
	select city_id from city, co where city.country_id = co.country_id and url_id = $2
)
select co.country_id, ci.city_id, site_id from co, ci, site where site.city_id = ci.city_id and url_id = $3`

	var rel lunch.SiteRelation
	err := s.pool.QueryRow(ctx, q, key.Country, key.City, key.Site).
		Scan(&rel.CountryID, &rel.CityID, &rel.SiteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return lunch.SiteRelation{}, fmt.Errorf("site %s/%s/%s: %w", key.Country, key.City, key.Site, lunch.ErrNotFound)
	}
	if err != nil {
		return lunch.SiteRelation{}, fmt.Errorf("resolve site relation: %w", err)
	}
	return rel, nil
}

// ApplyScrape atomically replaces the restaurant subtree for the site in
// the result. Deleting the restaurants cascades to their dishes, so a
// replay of the same result reaches the same end state.
func (s *Store) ApplyScrape(ctx context.Context, res *lunch.SiteScrapeResult) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin apply: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `delete from restaurant where site_id = $1`, res.SiteID); err != nil {
		return fmt.Errorf("clear site restaurants: %w", err)
	}

	rows := newRestaurantRows(res.Restaurants)
	if _, err := tx.Exec(ctx, `
insert into restaurant (site_id, restaurant_id, restaurant_name, comment, address, url, map_url, created_at)
select * from unnest($1::uuid[], $2::uuid[], $3::text[], $4::text[], $5::text[], $6::text[], $7::text[], $8::timestamptz[])`,
		rows.siteIDs, rows.restaurantIDs, rows.names, rows.comments,
		rows.addresses, rows.urls, rows.mapURLs, rows.parsedAts,
	); err != nil {
		return fmt.Errorf("insert restaurants: %w", err)
	}

	if _, err := tx.Exec(ctx, `
insert into dish (restaurant_id, dish_id, dish_name, description, comment, price, tags)
select * from unnest($1::uuid[], $2::uuid[], $3::text[], $4::text[], $5::text[], $6::real[], $7::text[])`,
		rows.dishes.restaurantIDs, rows.dishes.dishIDs, rows.dishes.names,
		rows.dishes.descriptions, rows.dishes.comments, rows.dishes.prices,
		rows.dishes.tags,
	); err != nil {
		return fmt.Errorf("insert dishes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit apply: %w", err)
	}
	return nil
}

// Countries lists all countries.
func (s *Store) Countries(ctx context.Context) ([]lunch.Country, error) {
	rows, err := s.pool.Query(ctx, `
select country_id, name, url_id, coalesce(currency_suffix, '') from country order by name`)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	var out []lunch.Country
	for rows.Next() {
		var c lunch.Country
		if err := rows.Scan(&c.ID, &c.Name, &c.URLID, &c.CurrencySuffix); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Cities lists the cities of one country.
func (s *Store) Cities(ctx context.Context, countryURLID string) ([]lunch.City, error) {
	rows, err := s.pool.Query(ctx, `
select city.city_id, city.country_id, city.name, city.url_id
from city join country on city.country_id = country.country_id
where country.url_id = $1 order by city.name`, countryURLID)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var out []lunch.City
	for rows.Next() {
		var c lunch.City
		if err := rows.Scan(&c.ID, &c.CountryID, &c.Name, &c.URLID); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Sites lists the sites of one city.
func (s *Store) Sites(ctx context.Context, countryURLID, cityURLID string) ([]lunch.Site, error) {
	rows, err := s.pool.Query(ctx, `
select site.site_id, site.city_id, site.name, site.url_id, coalesce(site.comment, '')
from site
join city on site.city_id = city.city_id
join country on city.country_id = country.country_id
where country.url_id = $1 and city.url_id = $2 order by site.name`, countryURLID, cityURLID)
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()

	var out []lunch.Site
	for rows.Next() {
		var st lunch.Site
		if err := rows.Scan(&st.ID, &st.CityID, &st.Name, &st.URLID, &st.Comment); err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SiteMenu loads one site with its full restaurant and dish subtree. The
// reads run in one transaction so an apply cannot slip in between them.
func (s *Store) SiteMenu(ctx context.Context, siteID uuid.UUID) (*lunch.Site, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin menu read: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var site lunch.Site
	err = tx.QueryRow(ctx, `
select site_id, city_id, name, url_id, coalesce(comment, '') from site where site_id = $1`, siteID).
		Scan(&site.ID, &site.CityID, &site.Name, &site.URLID, &site.Comment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("site %s: %w", siteID, lunch.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query site: %w", err)
	}

	restaurants, ids, err := siteRestaurants(ctx, tx, siteID)
	if err != nil {
		return nil, err
	}

	dishes, err := restaurantDishes(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit menu read: %w", err)
	}

	byID := make(map[uuid.UUID]*lunch.Restaurant, len(restaurants))
	for i := range restaurants {
		byID[restaurants[i].ID] = &restaurants[i]
	}
	for _, d := range dishes {
		if r, ok := byID[d.RestaurantID]; ok {
			r.Dishes = append(r.Dishes, d)
		}
	}
	site.Restaurants = restaurants
	return &site, nil
}

func siteRestaurants(ctx context.Context, tx pgx.Tx, siteID uuid.UUID) ([]lunch.Restaurant, []uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
select restaurant_id, site_id, restaurant_name, coalesce(comment, ''), coalesce(address, ''),
	coalesce(url, ''), coalesce(map_url, ''), created_at
from restaurant where site_id = $1 order by restaurant_name`, siteID)
	if err != nil {
		return nil, nil, fmt.Errorf("query restaurants: %w", err)
	}
	defer rows.Close()

	var (
		out []lunch.Restaurant
		ids []uuid.UUID
	)
	for rows.Next() {
		var r lunch.Restaurant
		if err := rows.Scan(&r.ID, &r.SiteID, &r.Name, &r.Comment, &r.Address,
			&r.URL, &r.MapURL, &r.ParsedAt); err != nil {
			return nil, nil, fmt.Errorf("scan restaurant: %w", err)
		}
		out = append(out, r)
		ids = append(ids, r.ID)
	}
	return out, ids, rows.Err()
}

func restaurantDishes(ctx context.Context, tx pgx.Tx, restaurantIDs []uuid.UUID) ([]lunch.Dish, error) {
	if len(restaurantIDs) == 0 {
		return nil, nil
	}
	rows, err := tx.Query(ctx, `
select dish_id, restaurant_id, dish_name, coalesce(description, ''), coalesce(comment, ''),
	coalesce(tags, ''), price
from dish where restaurant_id = any($1::uuid[]) order by dish_name`, restaurantIDs)
	if err != nil {
		return nil, fmt.Errorf("query dishes: %w", err)
	}
	defer rows.Close()

	var out []lunch.Dish
	for rows.Next() {
		var (
			d    lunch.Dish
			tags string
		)
		if err := rows.Scan(&d.ID, &d.RestaurantID, &d.Name, &d.Description,
			&d.Comment, &tags, &d.Price); err != nil {
			return nil, fmt.Errorf("scan dish: %w", err)
		}
		if tags != "" {
			d.Tags = strings.Split(tags, ",")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// restaurantRows is the column-major form of a scrape result, suitable
// for multi-row insert via unnest.
type restaurantRows struct {
	siteIDs       []uuid.UUID
	restaurantIDs []uuid.UUID
	names         []string
	comments      []*string
	addresses     []*string
	urls          []*string
	mapURLs       []*string
	parsedAts     []time.Time
	dishes        dishRows
}

type dishRows struct {
	restaurantIDs []uuid.UUID
	dishIDs       []uuid.UUID
	names         []string
	descriptions  []*string
	comments      []*string
	prices        []float32
	tags          []string
}

func newRestaurantRows(restaurants []lunch.Restaurant) restaurantRows {
	var rs restaurantRows
	for i := range restaurants {
		r := &restaurants[i]
		rs.siteIDs = append(rs.siteIDs, r.SiteID)
		rs.restaurantIDs = append(rs.restaurantIDs, r.ID)
		rs.names = append(rs.names, r.Name)
		rs.comments = append(rs.comments, nullable(r.Comment))
		rs.addresses = append(rs.addresses, nullable(r.Address))
		rs.urls = append(rs.urls, nullable(r.URL))
		rs.mapURLs = append(rs.mapURLs, nullable(r.MapURL))
		rs.parsedAts = append(rs.parsedAts, r.ParsedAt)
		for _, d := range r.Dishes {
			rs.dishes.restaurantIDs = append(rs.dishes.restaurantIDs, d.RestaurantID)
			rs.dishes.dishIDs = append(rs.dishes.dishIDs, d.ID)
			rs.dishes.names = append(rs.dishes.names, d.Name)
			rs.dishes.descriptions = append(rs.dishes.descriptions, nullable(d.Description))
			rs.dishes.comments = append(rs.dishes.comments, nullable(d.Comment))
			rs.dishes.prices = append(rs.dishes.prices, d.Price)
			rs.dishes.tags = append(rs.dishes.tags, strings.Join(d.Tags, ","))
		}
	}
	return rs
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
