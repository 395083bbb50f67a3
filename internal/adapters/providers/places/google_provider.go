package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantfinder/backend/internal/domain/providers"
	apperrors "github.com/zatekoja/restaurantfinder/backend/pkg/errors"
	"github.com/zatekoja/restaurantfinder/backend/pkg/retry"
)

const (
	googlePlacesBaseURL = "https://maps.googleapis.com/maps/api/place"
	googleGeocodeURL    = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultHTTPTimeout  = 8 * time.Second
	statusOK            = "OK"
	placeTypeRestaurant = "restaurant"
)

// GoogleProvider implements PlaceLookup using the Places Web Service and
// the Geocoding API.
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	geocodeURL string
	httpClient *http.Client
	retry      retry.Config
}

// NewGoogleProvider creates a new Google places provider.
func NewGoogleProvider(apiKey string) *GoogleProvider {
	return NewGoogleProviderWithOptions(apiKey, googlePlacesBaseURL, nil)
}

// NewGoogleProviderWithOptions allows overriding base URL and HTTP client (used for tests).
// With a custom base URL, geocoding is served from its sibling /geocode/json.
func NewGoogleProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) *GoogleProvider {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = googlePlacesBaseURL
	}
	geocodeURL := googleGeocodeURL
	if baseURL != googlePlacesBaseURL {
		geocodeURL = strings.TrimSuffix(baseURL, "/place") + "/geocode/json"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	cfg := retry.DefaultConfig()
	cfg.Retryable = isTransient
	return &GoogleProvider{
		apiKey:     apiKey,
		baseURL:    baseURL,
		geocodeURL: geocodeURL,
		httpClient: httpClient,
		retry:      cfg,
	}
}

var _ providers.PlaceLookup = (*GoogleProvider)(nil)

// NearbySearch returns restaurants within radiusMeters of center, in the
// order the provider ranks them.
func (g *GoogleProvider) NearbySearch(ctx context.Context, center entities.LatLng, radiusMeters int) ([]entities.PlaceSummary, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("type", placeTypeRestaurant)

	var payload nearbySearchResponse
	if err := g.get(ctx, "nearby search", g.baseURL+"/nearbysearch/json", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		return nil, apperrors.NewPlaceLookupError("nearby search", payload.Status, upstreamMessage(payload.ErrorMessage))
	}

	results := make([]entities.PlaceSummary, 0, len(payload.Results))
	for _, r := range payload.Results {
		summary := entities.PlaceSummary{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			Vicinity:         r.Vicinity,
			Location:         entities.LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			PriceLevel:       r.PriceLevel,
			BusinessStatus:   r.BusinessStatus,
			RatingTier:       entities.TierForRating(r.Rating),
		}
		if r.OpeningHours != nil {
			summary.HasOpeningHours = true
			summary.OpenNow = r.OpeningHours.OpenNow
		}
		results = append(results, summary)
	}
	return results, nil
}

// GetDetails fetches exactly the requested fields of one place.
func (g *GoogleProvider) GetDetails(ctx context.Context, placeID string, fields []entities.PlaceField) (*entities.Place, error) {
	if strings.TrimSpace(placeID) == "" {
		return nil, apperrors.NewValidationError("place ID is required")
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("at least one details field is required")
	}

	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", strings.Join(names, ","))

	var payload detailsResponse
	if err := g.get(ctx, "place details", g.baseURL+"/details/json", params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		return nil, apperrors.NewPlaceLookupError("place details", payload.Status, upstreamMessage(payload.ErrorMessage))
	}

	r := payload.Result
	place := &entities.Place{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		Address:          r.FormattedAddress,
		Phone:            r.FormattedPhoneNumber,
		Website:          r.Website,
		Rating:           r.Rating,
		UserRatingsTotal: r.UserRatingsTotal,
		PriceLevel:       r.PriceLevel,
		BusinessStatus:   r.BusinessStatus,
	}
	if place.PlaceID == "" {
		place.PlaceID = placeID
	}
	if r.OpeningHours != nil {
		place.OpenNow = r.OpeningHours.OpenNow
		place.WeekdayHours = r.OpeningHours.WeekdayText
	}
	if r.Geometry != nil {
		place.Location = &entities.LatLng{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}
	}
	for _, photo := range r.Photos {
		if photo.PhotoReference != "" {
			place.PhotoReferences = append(place.PhotoReferences, photo.PhotoReference)
		}
	}
	for _, review := range r.Reviews {
		place.Reviews = append(place.Reviews, entities.Review{
			Rating:               review.Rating,
			Text:                 review.Text,
			AuthorName:           review.AuthorName,
			PostedAtEpochSeconds: review.Time,
		})
	}
	return place, nil
}

// Geocode resolves address with the Geocoding API. Any status other than
// OK, ZERO_RESULTS included, is a PLACE_LOOKUP_FAILED error.
func (g *GoogleProvider) Geocode(ctx context.Context, address string) (*entities.GeocodedLocation, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return nil, apperrors.NewValidationError("address is required")
	}

	params := url.Values{}
	params.Set("address", trimmed)

	var payload geocodeResponse
	if err := g.get(ctx, "geocode", g.geocodeURL, params, &payload); err != nil {
		return nil, err
	}
	if payload.Status != statusOK {
		return nil, apperrors.NewPlaceLookupError("geocode", payload.Status, upstreamMessage(payload.ErrorMessage))
	}
	if len(payload.Results) == 0 {
		return nil, apperrors.NewPlaceLookupError("geocode", "ZERO_RESULTS", nil)
	}

	result := payload.Results[0]
	return &entities.GeocodedLocation{
		Query:            trimmed,
		FormattedAddress: result.FormattedAddress,
		Location:         entities.LatLng{Lat: result.Geometry.Location.Lat, Lng: result.Geometry.Location.Lng},
	}, nil
}

// get performs one GET against endpoint, retrying transient failures.
func (g *GoogleProvider) get(ctx context.Context, operation, endpoint string, params url.Values, out any) error {
	if g.apiKey == "" {
		return apperrors.NewFeatureDisabledError("google maps")
	}
	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	return retry.DoWithLog(ctx, g.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to build %s request: %w", operation, err))
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request failed: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return &httpStatusError{operation: operation, code: resp.StatusCode}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return retry.Permanent(&httpStatusError{operation: operation, code: resp.StatusCode})
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("failed to decode %s response: %w", operation, err))
		}
		return nil
	}, func(attempt int, err error, next time.Duration) {
		log.Warn().Err(err).Str("operation", operation).Int("attempt", attempt).Dur("backoff", next).Msg("retrying places request")
	})
}

type httpStatusError struct {
	operation string
	code      int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP status %d", e.operation, e.code)
}

// isTransient retries server errors and network failures, never
// cancellation or client errors.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func upstreamMessage(message string) error {
	if message == "" {
		return nil
	}
	return errors.New(message)
}

type nearbySearchResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Results      []nearbyResult `json:"results"`
}

type nearbyResult struct {
	PlaceID          string        `json:"place_id"`
	Name             string        `json:"name"`
	Vicinity         string        `json:"vicinity"`
	Geometry         placeGeometry `json:"geometry"`
	Rating           float64       `json:"rating"`
	UserRatingsTotal int           `json:"user_ratings_total"`
	PriceLevel       int           `json:"price_level"`
	BusinessStatus   string        `json:"business_status"`
	OpeningHours     *openingHours `json:"opening_hours"`
}

type detailsResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Result       detailsResult `json:"result"`
}

type detailsResult struct {
	PlaceID              string         `json:"place_id"`
	Name                 string         `json:"name"`
	FormattedAddress     string         `json:"formatted_address"`
	FormattedPhoneNumber string         `json:"formatted_phone_number"`
	Website              string         `json:"website"`
	OpeningHours         *openingHours  `json:"opening_hours"`
	Rating               float64        `json:"rating"`
	UserRatingsTotal     int            `json:"user_ratings_total"`
	PriceLevel           int            `json:"price_level"`
	Photos               []placePhoto   `json:"photos"`
	Geometry             *placeGeometry `json:"geometry"`
	BusinessStatus       string         `json:"business_status"`
	Reviews              []placeReview  `json:"reviews"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string        `json:"formatted_address"`
	Geometry         placeGeometry `json:"geometry"`
}

type placeGeometry struct {
	Location placeLocation `json:"location"`
}

type placeLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type openingHours struct {
	OpenNow     *bool    `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

type placePhoto struct {
	PhotoReference string `json:"photo_reference"`
}

type placeReview struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}
