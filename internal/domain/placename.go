package domain

import (
	"context"
	"log/slog"
)

// PlaceResolver turns a WGS84 position into a human-readable place name.
type PlaceResolver interface {
	ResolvePlace(ctx context.Context, lat, lon float64) (string, error)
}

// EnrichWithPlaceNames fills in Located.Place via the resolver. A nil
// resolver is a no-op. On a failed lookup the place stays empty and renders
// as "unknown" downstream; enrichment must never block descriptor building.
// The input slice is not modified.
func EnrichWithPlaceNames(ctx context.Context, pairs []Located, resolver PlaceResolver, logger *slog.Logger) []Located {
	if resolver == nil {
		return pairs
	}

	enriched := make([]Located, len(pairs))
	copy(enriched, pairs)
	for i := range enriched {
		place, err := resolver.ResolvePlace(ctx, enriched[i].Point.Lat, enriched[i].Point.Lon)
		if err != nil {
			logger.Warn("place lookup failed",
				"lat", enriched[i].Point.Lat,
				"lon", enriched[i].Point.Lon,
				"error", err,
			)
			continue
		}
		enriched[i].Place = place
	}
	return enriched
}
