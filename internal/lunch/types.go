// Package lunch defines the domain types and interfaces shared across
// subsystems: the restaurant/dish hierarchy, scrape results, and the
// contracts consumed by the supervisor and the web servers.
package lunch

import (
	"time"

	"github.com/google/uuid"
)

// Dish is a single menu item. Identity is assigned fresh on every scrape;
// dishes have no history.
type Dish struct {
	ID           uuid.UUID `json:"-"`
	RestaurantID uuid.UUID `json:"-"`
	// Name of the dish, e.g. "meatballs"
	Name string `json:"name"`
	// More details, e.g. "with spaghetti"
	Description string `json:"description,omitempty"`
	// Extra info, e.g. "contains nuts"
	Comment string `json:"comment,omitempty"`
	// Free-text labels for filtering, e.g. "vego", "gluten"
	Tags []string `json:"tags,omitempty"`
	// Price in whatever currency the country uses
	Price float32 `json:"price"`
}

// NewDish creates a Dish with a fresh id.
func NewDish(name string) Dish {
	return Dish{
		ID:   uuid.New(),
		Name: name,
	}
}

// ForRestaurant returns a copy of the dish bound to the given restaurant.
func (d Dish) ForRestaurant(restaurantID uuid.UUID) Dish {
	d.RestaurantID = restaurantID
	return d
}

// Restaurant is one restaurant at a site, with the dishes found on the
// latest scrape. A restaurant's identity does not survive across scrape
// cycles; every cycle replaces the whole subtree.
type Restaurant struct {
	ID     uuid.UUID `json:"-"`
	SiteID uuid.UUID `json:"-"`
	// Name of restaurant
	Name string `json:"name"`
	// Extra info
	Comment string `json:"comment,omitempty"`
	// Street address
	Address string `json:"address,omitempty"`
	// Homepage
	URL string `json:"url,omitempty"`
	// Google maps URL
	MapURL string `json:"map_url,omitempty"`
	// When this restaurant was last scraped
	ParsedAt time.Time `json:"parsed_at"`
	Dishes   []Dish    `json:"dishes"`
}

// NewRestaurant creates a Restaurant with a fresh id, stamped now.
func NewRestaurant(name string, siteID uuid.UUID) Restaurant {
	return Restaurant{
		ID:       uuid.New(),
		SiteID:   siteID,
		Name:     name,
		ParsedAt: time.Now(),
	}
}

// AddDish appends a dish, binding it to this restaurant.
func (r *Restaurant) AddDish(d Dish) {
	r.Dishes = append(r.Dishes, d.ForRestaurant(r.ID))
}

// NumDishes counts the dishes over all restaurants in the slice.
func NumDishes(restaurants []Restaurant) int {
	var n int
	for i := range restaurants {
		n += len(restaurants[i].Dishes)
	}
	return n
}

// Site is a distinct scrape target location, e.g. one area's lunch
// aggregator, holding the restaurants found there.
type Site struct {
	ID     uuid.UUID `json:"-"`
	CityID uuid.UUID `json:"-"`
	Name   string    `json:"name"`
	URLID  string    `json:"url_id"`
	// Extra info
	Comment     string       `json:"comment,omitempty"`
	Restaurants []Restaurant `json:"restaurants,omitempty"`
}

// City groups sites.
type City struct {
	ID        uuid.UUID `json:"-"`
	CountryID uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	URLID     string    `json:"url_id"`
	Sites     []Site    `json:"sites,omitempty"`
}

// Country groups cities.
type Country struct {
	ID    uuid.UUID `json:"-"`
	Name  string    `json:"name"`
	URLID string    `json:"url_id"`
	// Currency abbreviation used as suffix for dish prices
	CurrencySuffix string `json:"currency_suffix,omitempty"`
	Cities         []City `json:"cities,omitempty"`
}

// SiteScrapeResult is the output of one scraper run: the full restaurant
// set for one site. It is immutable after construction; ownership moves
// from the scraper goroutine to the supervisor over the result channel.
type SiteScrapeResult struct {
	SiteID      uuid.UUID
	Restaurants []Restaurant
}

// NumRestaurants reports the restaurant count.
func (r *SiteScrapeResult) NumRestaurants() int {
	return len(r.Restaurants)
}

// NumDishes reports the total dish count over all restaurants.
func (r *SiteScrapeResult) NumDishes() int {
	return NumDishes(r.Restaurants)
}

// SiteKey is the logical identity of a site: the url_id triple used in
// URLs and in the database, e.g. {"se", "gbg", "lh"}.
type SiteKey struct {
	Country string
	City    string
	Site    string
}

// SiteRelation is the resolved identity of a site. It is looked up once at
// supervisor startup and held for the process lifetime.
type SiteRelation struct {
	CountryID uuid.UUID
	CityID    uuid.UUID
	SiteID    uuid.UUID
}
