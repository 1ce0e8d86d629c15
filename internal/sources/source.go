package sources

import (
	"context"
	"time"

	"github.com/user/adboard/internal/db"
)

// Source defines the interface for listing sources
type Source interface {
	// Name returns the source identifier
	Name() string
	// Fetch pages through baseURL and returns every listing posted on or
	// after cutoff (a calendar date)
	Fetch(ctx context.Context, baseURL string, cutoff time.Time) ([]db.Listing, error)
}
