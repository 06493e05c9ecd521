// Package scrapeutil holds small text helpers shared by the site
// scrapers.
package scrapeutil

import (
	"strconv"
	"strings"
	"time"
)

// ReduceWhitespace collapses all whitespace runs to single spaces and
// trims the ends.
func ReduceWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParsePrice reads a leading decimal number from a string like "95 kr"
// or "129,50". Anything unparseable is 0.
func ParsePrice(s string) float32 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) {
		c := s[end]
		if (c < '0' || c > '9') && c != '.' && c != ',' {
			break
		}
		end++
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s[:end], ",", "."), 32)
	if err != nil {
		return 0
	}
	return float32(v)
}

// stop words that lindholmen.se strips when building its slugs
var slugStopWords = map[string]bool{
	"by": true,
	"of": true,
}

var slugTransliterations = strings.NewReplacer(
	"å", "a", "ä", "a", "ö", "o", "é", "e", "è", "e", "ü", "u",
)

// Slugify builds a lindholmen.se-style URL slug from a restaurant name:
// apostrophes removed, stop words dropped, swedish diacritics folded,
// everything else lowercased with non-alphanumerics collapsed to single
// dashes.
func Slugify(name string) string {
	name = strings.ReplaceAll(name, "'", "")
	name = slugTransliterations.Replace(strings.ToLower(name))
	var words []string
	for _, w := range strings.Fields(name) {
		if slugStopWords[w] {
			continue
		}
		words = append(words, w)
	}
	var b strings.Builder
	lastDash := true // avoid a leading dash
	for _, r := range strings.Join(words, " ") {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// WeekdayName returns the lowercase english weekday name used in the
// community data file names.
func WeekdayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}
