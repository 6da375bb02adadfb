package location

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sundown-sh/sundown/internal/errors"
)

// DefaultZipcodeBaseURL is the public zippopotam.us endpoint.
const DefaultZipcodeBaseURL = "https://api.zippopotam.us"

// zippopotamResponse mirrors the zippopotam.us payload. Coordinates are
// returned as strings.
type zippopotamResponse struct {
	PostCode string `json:"post code"`
	Places   []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state"`
		Latitude  string `json:"latitude"`
		Longitude string `json:"longitude"`
	} `json:"places"`
}

// ZipcodeResolver looks up coordinates for a postal code over HTTP.
// The resolved Location carries no timezone; the sun model falls back to
// the system-local zone unless the user supplies one explicitly.
type ZipcodeResolver struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewZipcodeResolver creates a resolver. An empty baseURL selects the
// public zippopotam.us service.
func NewZipcodeResolver(baseURL string, logger *slog.Logger, httpClient ...*http.Client) *ZipcodeResolver {
	if baseURL == "" {
		baseURL = DefaultZipcodeBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	var hc *http.Client
	if len(httpClient) > 0 && httpClient[0] != nil {
		hc = httpClient[0]
	} else {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &ZipcodeResolver{
		baseURL:    baseURL,
		httpClient: hc,
		logger:     logger,
	}
}

// Resolve looks up a postal code in the given two-letter country and
// returns its Location. Unknown codes map to ErrNotFound.
func (r *ZipcodeResolver) Resolve(ctx context.Context, zipcode, country string) (Location, error) {
	if zipcode == "" {
		return Location{}, errors.InvalidInputf("zipcode must not be empty")
	}
	if country == "" {
		country = "US"
	}

	reqURL := fmt.Sprintf("%s/%s/%s", r.baseURL, url.PathEscape(country), url.PathEscape(zipcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Location{}, errors.WrapErrorf(err, "failed to create request")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Error("location: zipcode lookup failed", "url", reqURL, "error", err)
		return Location{}, errors.WrapErrorf(err, "zipcode lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Location{}, errors.NotFoundf("zipcode %s (%s)", zipcode, country)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		r.logger.Error("location: zipcode lookup failed", "url", reqURL, "error", err)
		return Location{}, err
	}

	var body zippopotamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		r.logger.Error("location: zipcode decode failed", "url", reqURL, "error", err)
		return Location{}, errors.WrapErrorf(err, "failed to decode response")
	}
	if len(body.Places) == 0 {
		return Location{}, errors.NotFoundf("zipcode %s (%s): no places in response", zipcode, country)
	}

	place := body.Places[0]
	lat, err := strconv.ParseFloat(place.Latitude, 64)
	if err != nil {
		return Location{}, errors.WrapErrorf(err, "invalid latitude %q in response", place.Latitude)
	}
	lon, err := strconv.ParseFloat(place.Longitude, 64)
	if err != nil {
		return Location{}, errors.WrapErrorf(err, "invalid longitude %q in response", place.Longitude)
	}

	loc, err := New(lat, lon, "")
	if err != nil {
		return Location{}, err
	}
	if place.PlaceName != "" {
		loc.Name = place.PlaceName
		if place.State != "" {
			loc.Name += ", " + place.State
		}
	}

	r.logger.Debug("location: zipcode resolved",
		"zipcode", zipcode,
		"country", country,
		"name", loc.Name,
		"latitude", loc.Latitude,
		"longitude", loc.Longitude,
	)
	return loc, nil
}
