package providers

import (
	"context"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
)

// PlaceLookup is the boundary to the mapping/places provider
type PlaceLookup interface {
	// NearbySearch returns restaurants within radiusMeters of center
	NearbySearch(ctx context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error)

	// GetDetails fetches exactly the requested fields of one place
	GetDetails(ctx context.Context, placeID string, fields []entities.PlaceField) (*entities.Place, error)

	// Geocode resolves a free-text address to its best matching location
	Geocode(ctx context.Context, address string) (*entities.GeocodedLocation, error)
}
