// Package enrich fills presentation fields (poster, overview, release date)
// from external metadata providers. Enrichment is best-effort: provider
// failures degrade to placeholders and never fail a recommendation.
package enrich

import (
	"context"

	"github.com/cinesense/cinesense/internal/models"
)

const (
	// PlaceholderPoster is used when no provider returns artwork.
	PlaceholderPoster = "https://via.placeholder.com/500x750?text=No+Image"
	// NoOverview is used when neither the catalog nor a provider has a summary.
	NoOverview = "No overview available."
	// NotAvailable marks a missing release date.
	NotAvailable = "N/A"
)

// Details is what a provider knows about a title. Zero-valued fields mean
// the provider had nothing.
type Details struct {
	Poster      string
	Overview    string
	ReleaseDate string
	Rating      float64
}

// Enricher looks up presentation details for a title. Implementations must
// not return errors; a miss is an empty Details.
type Enricher interface {
	Lookup(ctx context.Context, title string, ct models.ContentType) Details
}

// Apply merges provider details into a recommendation, preferring catalog
// values already present, then provider values, then placeholders.
func Apply(rec *models.Recommendation, d Details) {
	if rec.Poster == "" {
		rec.Poster = d.Poster
	}
	if rec.Poster == "" {
		rec.Poster = PlaceholderPoster
	}
	if rec.Overview == "" {
		rec.Overview = d.Overview
	}
	if rec.Overview == "" {
		rec.Overview = NoOverview
	}
	if rec.ReleaseDate == "" {
		rec.ReleaseDate = d.ReleaseDate
	}
	if rec.ReleaseDate == "" {
		rec.ReleaseDate = NotAvailable
	}
	if rec.Rating == 0 {
		rec.Rating = d.Rating
	}
}

// Noop is an Enricher that always misses. Used when no provider is configured.
type Noop struct{}

func (Noop) Lookup(context.Context, string, models.ContentType) Details { return Details{} }
