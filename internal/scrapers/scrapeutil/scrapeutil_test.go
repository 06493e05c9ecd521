package scrapeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReduceWhitespace(t *testing.T) {
	t.Parallel()

	require.Equal(t, "with spaghetti", ReduceWhitespace("  with \n\t spaghetti "))
	require.Equal(t, "", ReduceWhitespace("   "))
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 95.0, ParsePrice("95 kr"), 0.001)
	require.InDelta(t, 129.5, ParsePrice("129,50"), 0.001)
	require.InDelta(t, 120.0, ParsePrice(" 120:- "), 0.001)
	require.Zero(t, ParsePrice("free"))
	require.Zero(t, ParsePrice(""))
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	require.Equal(t, "bistrot-bellora", Slugify("Bistrot Bellora"))
	// apostrophes are stripped, not dashed; diacritics are folded
	require.Equal(t, "lottas-cafe", Slugify("Lotta's Café"))
	// stop words dropped, matching the site's own slugs
	require.Equal(t, "taste-india", Slugify("Taste of India"))
}

func TestWeekdayName(t *testing.T) {
	t.Parallel()

	// 2026-08-24 is a Monday
	d := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "monday", WeekdayName(d))
}
