package entities

import (
	"slices"
	"time"
)

// LatLng is a WGS84 coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Review is a single guest rating and comment on a place
type Review struct {
	Rating               int    `json:"rating"`
	Text                 string `json:"text"`
	AuthorName           string `json:"author_name"`
	PostedAtEpochSeconds int64  `json:"posted_at"`
}

// PostedAt returns the review timestamp
func (r Review) PostedAt() time.Time {
	return time.Unix(r.PostedAtEpochSeconds, 0)
}

// Business status values reported by the places provider
const (
	BusinessStatusOperational       = "OPERATIONAL"
	BusinessStatusClosedTemporarily = "CLOSED_TEMPORARILY"
	BusinessStatusClosedPermanently = "CLOSED_PERMANENTLY"
)

// GeocodedLocation is the best match for a free-text address query
type GeocodedLocation struct {
	Query            string `json:"query"`
	FormattedAddress string `json:"formatted_address"`
	Location         LatLng `json:"location"`
}

// RatingTier buckets a place rating for map markers
type RatingTier string

const (
	RatingTierHigh    RatingTier = "high"
	RatingTierMedium  RatingTier = "medium"
	RatingTierLow     RatingTier = "low"
	RatingTierUnrated RatingTier = "unrated"
)

// TierForRating maps a 0-5 rating to its tier. Zero means unrated.
func TierForRating(rating float64) RatingTier {
	switch {
	case rating >= 4.0:
		return RatingTierHigh
	case rating >= 3.0:
		return RatingTierMedium
	case rating > 0:
		return RatingTierLow
	default:
		return RatingTierUnrated
	}
}

// PlaceSummary is one row of a nearby search
type PlaceSummary struct {
	PlaceID          string     `json:"place_id"`
	Name             string     `json:"name"`
	Vicinity         string     `json:"vicinity,omitempty"`
	Location         LatLng     `json:"location"`
	Rating           float64    `json:"rating,omitempty"`
	UserRatingsTotal int        `json:"user_ratings_total,omitempty"`
	PriceLevel       int        `json:"price_level,omitempty"`
	BusinessStatus   string     `json:"business_status,omitempty"`
	HasOpeningHours  bool       `json:"has_opening_hours"`
	OpenNow          *bool      `json:"open_now,omitempty"`
	RatingTier       RatingTier `json:"rating_tier"`
}

// StatusLabel describes whether the place is trading. Places without
// opening hours report "hours unknown" regardless of business status.
func (p *PlaceSummary) StatusLabel() string {
	if !p.HasOpeningHours {
		return "hours unknown"
	}
	switch p.BusinessStatus {
	case BusinessStatusOperational:
		return "open"
	case BusinessStatusClosedTemporarily:
		return "temporarily closed"
	case BusinessStatusClosedPermanently:
		return "permanently closed"
	default:
		return "check opening hours"
	}
}

// Place is the field-selected details record of one place
type Place struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Address          string   `json:"formatted_address,omitempty"`
	Phone            string   `json:"formatted_phone_number,omitempty"`
	Website          string   `json:"website,omitempty"`
	WeekdayHours     []string `json:"weekday_text,omitempty"`
	OpenNow          *bool    `json:"open_now,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"user_ratings_total,omitempty"`
	PriceLevel       int      `json:"price_level,omitempty"`
	PhotoReferences  []string `json:"photo_references,omitempty"`
	Location         *LatLng  `json:"location,omitempty"`
	BusinessStatus   string   `json:"business_status,omitempty"`
	Reviews          []Review `json:"reviews,omitempty"`
}

// PlaceField names a field that can be requested from the details endpoint
type PlaceField string

const (
	FieldName             PlaceField = "name"
	FieldFormattedAddress PlaceField = "formatted_address"
	FieldPhoneNumber      PlaceField = "formatted_phone_number"
	FieldWebsite          PlaceField = "website"
	FieldOpeningHours     PlaceField = "opening_hours"
	FieldRating           PlaceField = "rating"
	FieldUserRatingsTotal PlaceField = "user_ratings_total"
	FieldPriceLevel       PlaceField = "price_level"
	FieldPhotos           PlaceField = "photos"
	FieldGeometry         PlaceField = "geometry"
	FieldPlaceID          PlaceField = "place_id"
	FieldBusinessStatus   PlaceField = "business_status"
	FieldReviews          PlaceField = "reviews"
)

// DetailsFields is the fixed field set requested for a details view
var DetailsFields = []PlaceField{
	FieldName, FieldFormattedAddress, FieldPhoneNumber, FieldWebsite,
	FieldOpeningHours, FieldRating, FieldUserRatingsTotal, FieldPriceLevel,
	FieldPhotos, FieldGeometry, FieldPlaceID, FieldBusinessStatus,
}

// ReviewFields is the narrower field set requested for review lookups
var ReviewFields = []PlaceField{
	FieldName, FieldReviews, FieldRating, FieldUserRatingsTotal,
}

// Clone returns a deep copy so callers cannot alias cached slices
func (p *Place) Clone() *Place {
	if p == nil {
		return nil
	}
	c := *p
	c.WeekdayHours = slices.Clone(p.WeekdayHours)
	c.PhotoReferences = slices.Clone(p.PhotoReferences)
	c.Reviews = slices.Clone(p.Reviews)
	if p.OpenNow != nil {
		open := *p.OpenNow
		c.OpenNow = &open
	}
	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	return &c
}
