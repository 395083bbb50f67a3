package places

import (
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	"github.com/zatekoja/restaurantfinder/backend/pkg/config"
)

// NewProvider selects the places provider for the configuration: Google
// when a usable key is set, fixtures in development, otherwise nil so the
// place lookup feature reports itself as disabled.
func NewProvider(cfg *config.MapsConfig, development bool) providers.PlaceLookup {
	if cfg != nil && cfg.Enabled() {
		return NewGoogleProvider(cfg.APIKey)
	}
	if development {
		log.Warn().Msg("MAPS_API_KEY is not set; using mock places provider")
		return NewMockProvider()
	}
	log.Warn().Msg("MAPS_API_KEY is not set; place lookup disabled")
	return nil
}
