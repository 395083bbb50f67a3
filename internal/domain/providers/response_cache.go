package providers

import (
	"context"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
)

// ResponseCache stores provider responses by place identifier.
// Put overwrites unconditionally; Get never triggers a fetch.
type ResponseCache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, value V)
	Len() int
}

// UsageRecorder counts external API calls
type UsageRecorder interface {
	Record(category entities.UsageCategory)
}
