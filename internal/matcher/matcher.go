// Package matcher selects the listings whose titles mention a search term.
package matcher

import (
	"strings"

	"github.com/user/adboard/internal/db"
)

// Match partitions listings into hits, whose lowercased title contains at
// least one term, and the remaining listings. Every input listing lands in
// exactly one of the two slices, in input order, however many terms it
// matches. Terms are expected lowercase; empty terms are ignored.
func Match(listings []db.Listing, terms []string) (hits, remaining []db.Listing) {
	hits = make([]db.Listing, 0)
	remaining = make([]db.Listing, 0, len(listings))

	for _, l := range listings {
		if containsTerm(l.Title, terms) {
			hits = append(hits, l)
		} else {
			remaining = append(remaining, l)
		}
	}
	return hits, remaining
}

func containsTerm(title string, terms []string) bool {
	lower := strings.ToLower(title)
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
