package places

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
)

const earthRadiusMeters = 6371000.0

// mockRestaurant is a fixture placed at a fixed offset from the search center
type mockRestaurant struct {
	place       entities.Place
	northMeters float64
	eastMeters  float64
}

var mockRestaurants = []mockRestaurant{
	{
		northMeters: 120, eastMeters: -80,
		place: entities.Place{
			PlaceID: "mock-sushi-1", Name: "Sakura Sushi", Address: "1-2-3 Marunouchi",
			Phone: "03-1234-5678", Rating: 4.6, UserRatingsTotal: 312, PriceLevel: 3,
			BusinessStatus: entities.BusinessStatusOperational,
			WeekdayHours:   []string{"Monday: 11:00 AM – 10:00 PM"},
			Reviews: []entities.Review{
				{Rating: 5, Text: "Fresh fish and friendly chefs.", AuthorName: "Ken", PostedAtEpochSeconds: 1717200000},
				{Rating: 4, Text: "Great omakase, a little pricey.", AuthorName: "Mia", PostedAtEpochSeconds: 1717300000},
			},
		},
	},
	{
		northMeters: -350, eastMeters: 200,
		place: entities.Place{
			PlaceID: "mock-ramen-2", Name: "Tonkotsu Alley", Address: "4-5-6 Yaesu",
			Rating: 3.8, UserRatingsTotal: 95, PriceLevel: 1,
			BusinessStatus: entities.BusinessStatusOperational,
			WeekdayHours:   []string{"Monday: 6:00 PM – 2:00 AM"},
			Reviews: []entities.Review{
				{Rating: 4, Text: "Rich broth, long queue.", AuthorName: "Taro", PostedAtEpochSeconds: 1716000000},
				{Rating: 3, Text: "Noodles were overcooked this time.", AuthorName: "Lee", PostedAtEpochSeconds: 1716100000},
			},
		},
	},
	{
		northMeters: 600, eastMeters: 550,
		place: entities.Place{
			PlaceID: "mock-cafe-3", Name: "Quiet Corner Cafe", Address: "7-8 Ginza",
			Rating: 2.9, UserRatingsTotal: 18,
			BusinessStatus: entities.BusinessStatusClosedTemporarily,
		},
	},
	{
		northMeters: -2500, eastMeters: -1800,
		place: entities.Place{
			PlaceID: "mock-izakaya-4", Name: "Lantern Izakaya", Address: "9-10 Shimbashi",
			BusinessStatus: entities.BusinessStatusOperational,
			Reviews: []entities.Review{
				{Rating: 5, Text: "Best yakitori in the area.", AuthorName: "Aya", PostedAtEpochSeconds: 1715000000},
			},
		},
	},
}

// mockLandmarks answers Geocode; a query matches when it contains the key.
var mockLandmarks = []struct {
	key      string
	location entities.GeocodedLocation
}{
	{"tokyo station", entities.GeocodedLocation{FormattedAddress: "1 Chome Marunouchi, Chiyoda City, Tokyo", Location: entities.LatLng{Lat: 35.6812, Lng: 139.7671}}},
	{"shibuya", entities.GeocodedLocation{FormattedAddress: "Shibuya City, Tokyo", Location: entities.LatLng{Lat: 35.6580, Lng: 139.7016}}},
	{"shinjuku", entities.GeocodedLocation{FormattedAddress: "Shinjuku City, Tokyo", Location: entities.LatLng{Lat: 35.6938, Lng: 139.7034}}},
	{"osaka", entities.GeocodedLocation{FormattedAddress: "Osaka, Japan", Location: entities.LatLng{Lat: 34.7025, Lng: 135.4959}}},
}

// MockProvider serves fixture restaurants positioned around each search
// center. It is used in development when no maps key is configured.
type MockProvider struct {
	mu         sync.Mutex
	lastCenter entities.LatLng
}

// NewMockProvider creates a new mock places provider
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var _ providers.PlaceLookup = (*MockProvider)(nil)

// NearbySearch returns the fixtures within radiusMeters of center, nearest first.
func (m *MockProvider) NearbySearch(ctx context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error) {
	m.mu.Lock()
	m.lastCenter = center
	m.mu.Unlock()

	type ranked struct {
		summary  entities.PlaceSummary
		distance float64
	}
	var found []ranked
	for _, fixture := range mockRestaurants {
		loc := offset(center, fixture.northMeters, fixture.eastMeters)
		distance := HaversineMeters(center, loc)
		if distance > float64(radiusMeters) {
			continue
		}
		p := fixture.place
		found = append(found, ranked{
			distance: distance,
			summary: entities.PlaceSummary{
				PlaceID:          p.PlaceID,
				Name:             p.Name,
				Vicinity:         p.Address,
				Location:         loc,
				Rating:           p.Rating,
				UserRatingsTotal: p.UserRatingsTotal,
				PriceLevel:       p.PriceLevel,
				BusinessStatus:   p.BusinessStatus,
				HasOpeningHours:  len(p.WeekdayHours) > 0,
				RatingTier:       entities.TierForRating(p.Rating),
			},
		})
	}

	slices.SortFunc(found, func(a, b ranked) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		}
		return 0
	})

	results := make([]entities.PlaceSummary, len(found))
	for i, r := range found {
		results[i] = r.summary
	}
	return results, nil
}

// GetDetails returns the requested fields of a fixture
func (m *MockProvider) GetDetails(ctx context.Context, placeID string, fields []entities.PlaceField) (*entities.Place, error) {
	for _, fixture := range mockRestaurants {
		if fixture.place.PlaceID != placeID {
			continue
		}
		m.mu.Lock()
		center := m.lastCenter
		m.mu.Unlock()
		loc := offset(center, fixture.northMeters, fixture.eastMeters)
		return selectFields(fixture.place, loc, fields), nil
	}
	return nil, apperrors.NewPlaceLookupError("place details", "NOT_FOUND", nil)
}

// Geocode matches address against the fixture landmarks, case-insensitively.
// Unknown addresses fail with ZERO_RESULTS like the real endpoint.
func (m *MockProvider) Geocode(ctx context.Context, address string) (*entities.GeocodedLocation, error) {
	query := strings.TrimSpace(address)
	if query == "" {
		return nil, apperrors.NewValidationError("address is required")
	}
	lowered := strings.ToLower(query)
	for _, landmark := range mockLandmarks {
		if strings.Contains(lowered, landmark.key) {
			found := landmark.location
			found.Query = query
			return &found, nil
		}
	}
	return nil, apperrors.NewPlaceLookupError("geocode", "ZERO_RESULTS", nil)
}

// selectFields copies only the requested fields, as the real endpoint does.
func selectFields(src entities.Place, loc entities.LatLng, fields []entities.PlaceField) *entities.Place {
	out := &entities.Place{}
	for _, f := range fields {
		switch f {
		case entities.FieldPlaceID:
			out.PlaceID = src.PlaceID
		case entities.FieldName:
			out.Name = src.Name
		case entities.FieldFormattedAddress:
			out.Address = src.Address
		case entities.FieldPhoneNumber:
			out.Phone = src.Phone
		case entities.FieldWebsite:
			out.Website = src.Website
		case entities.FieldOpeningHours:
			out.WeekdayHours = slices.Clone(src.WeekdayHours)
		case entities.FieldRating:
			out.Rating = src.Rating
		case entities.FieldUserRatingsTotal:
			out.UserRatingsTotal = src.UserRatingsTotal
		case entities.FieldPriceLevel:
			out.PriceLevel = src.PriceLevel
		case entities.FieldPhotos:
			out.PhotoReferences = slices.Clone(src.PhotoReferences)
		case entities.FieldGeometry:
			l := loc
			out.Location = &l
		case entities.FieldBusinessStatus:
			out.BusinessStatus = src.BusinessStatus
		case entities.FieldReviews:
			out.Reviews = slices.Clone(src.Reviews)
		}
	}
	if out.PlaceID == "" {
		out.PlaceID = src.PlaceID
	}
	return out
}

// HaversineMeters returns the great-circle distance between two points
func HaversineMeters(from, to entities.LatLng) float64 {
	lat1Rad := toRadians(from.Lat)
	lat2Rad := toRadians(to.Lat)
	deltaLat := toRadians(to.Lat - from.Lat)
	deltaLon := toRadians(to.Lng - from.Lng)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func offset(center entities.LatLng, northMeters, eastMeters float64) entities.LatLng {
	dLat := northMeters / earthRadiusMeters
	dLng := eastMeters / (earthRadiusMeters * math.Cos(toRadians(center.Lat)))
	return entities.LatLng{
		Lat: center.Lat + dLat*180/math.Pi,
		Lng: center.Lng + dLng*180/math.Pi,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
