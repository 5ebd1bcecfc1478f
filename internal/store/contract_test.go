package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/i474232898/weather-location-api/internal/weather"
)

// runStoreContract exercises the behaviour every weather.Store must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) weather.Store) {
	ctx := context.Background()

	seed := func(t *testing.T, s weather.Store, name string) (weather.Location, weather.Weather) {
		t.Helper()
		w := &weather.Weather{Temperature: 29, Humidite: 2, VitesseVent: 20, Date: time.Now().UTC().Truncate(time.Millisecond)}
		require.NoError(t, s.InsertWeather(ctx, w))
		loc := &weather.Location{Name: name, Latitude: "13.345", Longitude: "-17.234", Weather: w.ID}
		require.NoError(t, s.InsertLocation(ctx, loc))
		return *loc, *w
	}

	t.Run("insert assigns ids", func(t *testing.T) {
		s := newStore(t)
		loc, w := seed(t, s, "Rufisque")

		assert.False(t, loc.ID.IsZero())
		assert.False(t, w.ID.IsZero())
		assert.Equal(t, w.ID, loc.Weather)
	})

	t.Run("insert location requires weather", func(t *testing.T) {
		s := newStore(t)
		err := s.InsertLocation(ctx, &weather.Location{Name: "X"})
		assert.Error(t, err)
	})

	t.Run("list returns every location", func(t *testing.T) {
		s := newStore(t)
		a, _ := seed(t, s, "A")
		b, _ := seed(t, s, "B")

		locs, err := s.ListLocations(ctx)
		require.NoError(t, err)

		ids := make([]primitive.ObjectID, 0, len(locs))
		for _, l := range locs {
			ids = append(ids, l.ID)
		}
		assert.ElementsMatch(t, []primitive.ObjectID{a.ID, b.ID}, ids)
	})

	t.Run("find resolves weather", func(t *testing.T) {
		s := newStore(t)
		loc, w := seed(t, s, "Rufisque")

		got, err := s.FindLocationWithWeather(ctx, loc.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, loc.ID, got.ID)
		assert.Equal(t, w.ID, got.WeatherRef)
		require.NotNil(t, got.WeatherDoc)
		assert.Equal(t, 29.0, got.WeatherDoc.Temperature)

		ws, err := s.FindWeather(ctx, w.ID.Hex())
		require.NoError(t, err)
		require.Len(t, ws, 1)
		assert.Equal(t, w.Date.UnixMilli(), ws[0].Date.UnixMilli())
	})

	t.Run("find missing and malformed ids", func(t *testing.T) {
		s := newStore(t)

		_, err := s.FindLocationWithWeather(ctx, primitive.NilObjectID.Hex())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.FindLocationWithWeather(ctx, "nope")
		assert.ErrorIs(t, err, ErrInvalidID)

		ws, err := s.FindWeather(ctx, primitive.NewObjectID().Hex())
		require.NoError(t, err)
		assert.Empty(t, ws)
	})

	t.Run("update sets only provided fields", func(t *testing.T) {
		s := newStore(t)
		loc, _ := seed(t, s, "Rufisque")

		name := "Dakar"
		got, err := s.UpdateLocation(ctx, loc.ID.Hex(), weather.LocationPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Dakar", got.Name)
		assert.Equal(t, "13.345", got.Latitude)
		assert.Equal(t, "-17.234", got.Longitude)
		assert.Equal(t, loc.Weather, got.Weather)

		same, err := s.UpdateLocation(ctx, loc.ID.Hex(), weather.LocationPatch{})
		require.NoError(t, err)
		assert.Equal(t, got, same)

		_, err = s.UpdateLocation(ctx, primitive.NewObjectID().Hex(), weather.LocationPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete keeps weather", func(t *testing.T) {
		s := newStore(t)
		loc, w := seed(t, s, "Rufisque")

		orphans, err := s.CountOrphanWeather(ctx)
		require.NoError(t, err)
		assert.Zero(t, orphans)

		deleted, err := s.DeleteLocation(ctx, loc.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, loc.ID, deleted.ID)

		_, err = s.DeleteLocation(ctx, loc.ID.Hex())
		assert.ErrorIs(t, err, ErrNotFound)

		ws, err := s.FindWeather(ctx, w.ID.Hex())
		require.NoError(t, err)
		assert.Len(t, ws, 1)

		orphans, err = s.CountOrphanWeather(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), orphans)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(ctx))
	})
}
