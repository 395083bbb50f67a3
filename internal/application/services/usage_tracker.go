package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
)

// UsageTracker counts external API calls per category over a rolling
// 24h window. The first Record after the window expires zeroes every
// counter before applying its own increment.
type UsageTracker struct {
	mu       sync.Mutex
	now      func() time.Time
	counters entities.UsageCounters
}

// NewUsageTracker creates a tracker whose first window starts now.
func NewUsageTracker(now func() time.Time) *UsageTracker {
	if now == nil {
		now = time.Now
	}
	return &UsageTracker{
		now: now,
		counters: entities.UsageCounters{
			ResetAtEpochMillis: now().Add(entities.UsageWindow).UnixMilli(),
		},
	}
}

// Record counts one call in category. Unknown categories only advance the
// reset window.
func (t *UsageTracker) Record(category entities.UsageCategory) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.UnixMilli() > t.counters.ResetAtEpochMillis {
		t.counters = entities.UsageCounters{
			ResetAtEpochMillis: now.Add(entities.UsageWindow).UnixMilli(),
		}
		log.Debug().Msg("api usage counters reset")
	}

	switch category {
	case entities.UsageNearbySearch:
		t.counters.NearbySearchCount++
	case entities.UsagePlaceDetails:
		t.counters.PlaceDetailsCount++
	case entities.UsageAIAnalysis:
		t.counters.GeminiRequestCount++
	}

	log.Debug().
		Str("category", string(category)).
		Int("nearby_search", t.counters.NearbySearchCount).
		Int("place_details", t.counters.PlaceDetailsCount).
		Int("gemini", t.counters.GeminiRequestCount).
		Msg("api usage recorded")
}

// Snapshot returns a copy of the current counters
func (t *UsageTracker) Snapshot() entities.UsageCounters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}

