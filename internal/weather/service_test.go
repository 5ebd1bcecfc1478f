package weather_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-location-api/internal/logger"
	"github.com/i474232898/weather-location-api/internal/store"
	"github.com/i474232898/weather-location-api/internal/weather"
)

// failingLocationStore wraps a MemoryStore and refuses location inserts.
type failingLocationStore struct {
	*store.MemoryStore
}

func (f failingLocationStore) InsertLocation(context.Context, *weather.Location) error {
	return errors.New("duplicate key")
}

// danglingStore reports every location's weather as gone.
type danglingStore struct {
	*store.MemoryStore
}

func (d danglingStore) FindWeather(context.Context, string) ([]weather.Weather, error) {
	return []weather.Weather{}, nil
}

func TestCreateLocation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	svc := weather.NewService(mem, logger.Discard())

	loc, err := svc.CreateLocation(ctx, weather.NewLocationInput{
		Name:        "Rufisque",
		Latitude:    "13.345",
		Longitude:   "-17.234",
		Temperature: 29,
		Humidite:    2,
		VitesseVent: 20,
	})
	require.NoError(t, err)

	assert.False(t, loc.ID.IsZero())
	assert.False(t, loc.Weather.IsZero())

	l, w := mem.Counts()
	assert.Equal(t, 1, l)
	assert.Equal(t, 1, w)

	ws, err := svc.GetLocationWeather(ctx, loc.ID.Hex(), time.Now())
	require.NoError(t, err)
	require.Len(t, ws, 1)
	assert.Equal(t, loc.Weather, ws[0].ID)
	assert.Equal(t, 29.0, ws[0].Temperature)
	assert.Equal(t, 2.0, ws[0].Humidite)
	assert.Equal(t, 20.0, ws[0].VitesseVent)
}

func TestCreateLocationDefaultsDateToCreationTime(t *testing.T) {
	ctx := context.Background()
	svc := weather.NewService(store.NewMemoryStore(), logger.Discard())

	before := time.Now().UTC().Truncate(time.Millisecond)
	first, err := svc.CreateLocation(ctx, weather.NewLocationInput{Temperature: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.CreateLocation(ctx, weather.NewLocationInput{Temperature: 2})
	require.NoError(t, err)

	w1, err := svc.GetLocationWeather(ctx, first.ID.Hex(), time.Time{})
	require.NoError(t, err)
	w2, err := svc.GetLocationWeather(ctx, second.ID.Hex(), time.Time{})
	require.NoError(t, err)

	assert.False(t, w1[0].Date.Before(before))
	assert.True(t, w2[0].Date.After(w1[0].Date))
	assert.Equal(t, time.UTC, w1[0].Date.Location())
}

func TestCreateLocationKeepsSuppliedDate(t *testing.T) {
	ctx := context.Background()
	svc := weather.NewService(store.NewMemoryStore(), logger.Discard())

	date := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	loc, err := svc.CreateLocation(ctx, weather.NewLocationInput{Date: date})
	require.NoError(t, err)

	ws, err := svc.GetLocationWeather(ctx, loc.ID.Hex(), time.Time{})
	require.NoError(t, err)
	assert.True(t, date.Equal(ws[0].Date))
}

func TestCreateLocationOrphansWeatherOnFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := weather.NewService(failingLocationStore{mem}, logger.Discard())

	_, err := svc.CreateLocation(context.Background(), weather.NewLocationInput{Temperature: 3})
	require.Error(t, err)

	l, w := mem.Counts()
	assert.Zero(t, l)
	assert.Equal(t, 1, w)

	n, err := svc.CountOrphanWeather(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetLocationWeatherErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown location", func(t *testing.T) {
		svc := weather.NewService(store.NewMemoryStore(), logger.Discard())
		_, err := svc.GetLocationWeather(ctx, "000000000000000000000000", time.Now())
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NotErrorIs(t, err, weather.ErrWeatherMissing)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc := weather.NewService(store.NewMemoryStore(), logger.Discard())
		_, err := svc.GetLocationWeather(ctx, "xyz", time.Now())
		assert.ErrorIs(t, err, store.ErrInvalidID)
	})

	t.Run("weather gone", func(t *testing.T) {
		mem := store.NewMemoryStore()
		loc, err := weather.NewService(mem, logger.Discard()).CreateLocation(ctx, weather.NewLocationInput{})
		require.NoError(t, err)

		svc := weather.NewService(danglingStore{mem}, logger.Discard())
		_, err = svc.GetLocationWeather(ctx, loc.ID.Hex(), time.Now())
		assert.ErrorIs(t, err, weather.ErrWeatherMissing)
	})
}

func TestUpdateAndDeleteLocation(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	svc := weather.NewService(mem, logger.Discard())

	loc, err := svc.CreateLocation(ctx, weather.NewLocationInput{Name: "Rufisque", Latitude: "1", Longitude: "2"})
	require.NoError(t, err)

	name := "Dakar"
	updated, err := svc.UpdateLocation(ctx, loc.ID.Hex(), weather.LocationPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Dakar", updated.Name)
	assert.Equal(t, "1", updated.Latitude)
	assert.Equal(t, loc.Weather, updated.Weather)

	require.NoError(t, svc.DeleteLocation(ctx, loc.ID.Hex()))
	assert.ErrorIs(t, svc.DeleteLocation(ctx, loc.ID.Hex()), store.ErrNotFound)

	l, w := mem.Counts()
	assert.Zero(t, l)
	assert.Equal(t, 1, w)

	locs, err := svc.ListLocations(ctx)
	require.NoError(t, err)
	assert.Empty(t, locs)
	assert.NoError(t, svc.Ping(ctx))
}

func TestLocationPatch(t *testing.T) {
	assert.True(t, weather.LocationPatch{}.IsEmpty())

	lat := "9"
	p := weather.LocationPatch{Latitude: &lat}
	assert.False(t, p.IsEmpty())

	loc := weather.Location{Name: "keep", Latitude: "0", Longitude: "0"}
	p.Apply(&loc)
	assert.Equal(t, weather.Location{Name: "keep", Latitude: "9", Longitude: "0"}, loc)
}
