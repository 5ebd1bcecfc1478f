package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/weather-location-api/internal/logger"
)

// ErrWeatherMissing is returned when a location exists but its referenced weather
// record cannot be found.
var ErrWeatherMissing = errors.New("referenced weather not found")

// Service orchestrates the two collections behind the HTTP handlers.
type Service struct {
	store Store
	log   logger.Logger
	now   func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, log logger.Logger) *Service {
	return &Service{
		store: store,
		log:   log.WithField("component", "weather_service"),
		now:   time.Now,
	}
}

// CreateLocation inserts a Weather and then a Location referencing it.
// The inserts are not transactional: when the second one fails the weather record
// is left orphaned and only logged.
func (s *Service) CreateLocation(ctx context.Context, in NewLocationInput) (Location, error) {
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}

	w := &Weather{
		Temperature: in.Temperature,
		Humidite:    in.Humidite,
		VitesseVent: in.VitesseVent,
		// Mongo keeps milliseconds; truncate so both stores answer the same.
		Date: date.UTC().Truncate(time.Millisecond),
	}
	if err := s.store.InsertWeather(ctx, w); err != nil {
		return Location{}, err
	}

	loc := &Location{
		Name:      in.Name,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Weather:   w.ID,
	}
	if err := s.store.InsertLocation(ctx, loc); err != nil {
		s.log.Warnf("location insert failed, weather %s left orphaned: %v", w.ID.Hex(), err)
		return Location{}, err
	}

	s.log.Debugf("created location %s with weather %s", loc.ID.Hex(), w.ID.Hex())
	return *loc, nil
}

// ListLocations returns every stored location with raw weather ids.
func (s *Service) ListLocations(ctx context.Context) ([]Location, error) {
	return s.store.ListLocations(ctx)
}

// GetLocationWeather returns the weather referenced by the location. The date is
// accepted by the API but not used to filter; the result always holds the single
// referenced record.
func (s *Service) GetLocationWeather(ctx context.Context, locationID string, _ time.Time) ([]Weather, error) {
	loc, err := s.store.FindLocationWithWeather(ctx, locationID)
	if err != nil {
		return nil, err
	}

	found, err := s.store.FindWeather(ctx, loc.WeatherRef.Hex())
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: location %s references %s", ErrWeatherMissing, locationID, loc.WeatherRef.Hex())
	}
	return found, nil
}

// UpdateLocation applies the patch and returns the updated record.
func (s *Service) UpdateLocation(ctx context.Context, id string, patch LocationPatch) (Location, error) {
	return s.store.UpdateLocation(ctx, id, patch)
}

// DeleteLocation removes the location. Its weather record is kept.
func (s *Service) DeleteLocation(ctx context.Context, id string) error {
	loc, err := s.store.DeleteLocation(ctx, id)
	if err != nil {
		return err
	}
	s.log.Debugf("deleted location %s, weather %s kept", loc.ID.Hex(), loc.Weather.Hex())
	return nil
}

// CountOrphanWeather delegates to the underlying store.
func (s *Service) CountOrphanWeather(ctx context.Context) (int64, error) {
	return s.store.CountOrphanWeather(ctx)
}

// Ping delegates to the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
