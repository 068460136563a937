package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"star-burger/internal/model"
)

// ErrUnexpectedStatus is returned for non-200 provider responses.
var ErrUnexpectedStatus = errors.New("unexpected geocoder response status")

// yandexResponse mirrors the part of the Yandex Geocoder payload we read.
type yandexResponse struct {
	Response struct {
		GeoObjectCollection struct {
			FeatureMember []struct {
				GeoObject struct {
					Point struct {
						Pos string `json:"pos"`
					} `json:"Point"`
				} `json:"GeoObject"`
			} `json:"featureMember"`
		} `json:"GeoObjectCollection"`
	} `json:"response"`
}

// YandexConfig configures the Yandex client.
type YandexConfig struct {
	BaseURL string
	APIKey  string
	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration
	// RetryWait is the pause before the one retry.
	RetryWait time.Duration
}

// Yandex is a Provider backed by the Yandex Geocoder HTTP API.
type Yandex struct {
	cfg    YandexConfig
	client *http.Client
	logger zerolog.Logger
}

// NewYandex creates a Yandex geocoder client.
func NewYandex(cfg YandexConfig, logger zerolog.Logger) *Yandex {
	return &Yandex{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "yandex-geocoder").Logger(),
	}
}

// Fetch queries the provider, retrying once on transient failures.
func (y *Yandex) Fetch(ctx context.Context, address string) (model.Coordinates, bool, error) {
	var (
		coords model.Coordinates
		found  bool
	)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(y.cfg.RetryWait), 1),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		coords, found, err = y.fetchOnce(ctx, address)
		if err != nil {
			y.logger.Warn().
				Err(err).
				Str("address", address).
				Int("attempt", attempt).
				Msg("geocoder request failed")
		}
		return err
	}, policy)
	if err != nil {
		return model.Coordinates{}, false, fmt.Errorf("failed to geocode %q: %w", address, err)
	}

	y.logger.Debug().
		Str("address", address).
		Bool("found", found).
		Msg("geocoder request completed")

	return coords, found, nil
}

func (y *Yandex) fetchOnce(ctx context.Context, address string) (model.Coordinates, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, y.cfg.Timeout)
	defer cancel()

	query := url.Values{}
	query.Set("geocode", address)
	query.Set("apikey", y.cfg.APIKey)
	query.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return model.Coordinates{}, false, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}

	resp, err := y.client.Do(req)
	if err != nil {
		return model.Coordinates{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		// Client errors will not improve on retry.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return model.Coordinates{}, false, backoff.Permanent(statusErr)
		}
		return model.Coordinates{}, false, statusErr
	}

	var payload yandexResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Coordinates{}, false, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}

	places := payload.Response.GeoObjectCollection.FeatureMember
	if len(places) == 0 {
		return model.Coordinates{}, false, nil
	}

	coords, err := model.ParseCoordinates(places[0].GeoObject.Point.Pos)
	if err != nil {
		return model.Coordinates{}, false, backoff.Permanent(err)
	}

	return coords, true, nil
}
