package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/i474232898/weather-location-api/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// It mirrors the mongo gateway's semantics, including object ids.
type MemoryStore struct {
	mu sync.RWMutex

	weathers  map[primitive.ObjectID]weather.Weather
	locations map[primitive.ObjectID]weather.Location

	// insertion order of locations, so listings are stable
	order []primitive.ObjectID
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		weathers:  make(map[primitive.ObjectID]weather.Weather),
		locations: make(map[primitive.ObjectID]weather.Location),
	}
}

func (s *MemoryStore) InsertWeather(ctx context.Context, w *weather.Weather) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w.ID = primitive.NewObjectID()
	s.weathers[w.ID] = *w
	return nil
}

func (s *MemoryStore) InsertLocation(ctx context.Context, loc *weather.Location) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if loc.Weather.IsZero() {
		return errRequiredWeather
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loc.ID = primitive.NewObjectID()
	s.locations[loc.ID] = *loc
	s.order = append(s.order, loc.ID)
	return nil
}

func (s *MemoryStore) ListLocations(ctx context.Context) ([]weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.Location, 0, len(s.locations))
	for _, id := range s.order {
		if loc, ok := s.locations[id]; ok {
			out = append(out, loc)
		}
	}
	return out, nil
}

func (s *MemoryStore) FindLocationWithWeather(ctx context.Context, id string) (weather.LocationWithWeather, error) {
	oid, err := parseID(id, modelLocation)
	if err != nil {
		return weather.LocationWithWeather{}, err
	}
	if err := ctx.Err(); err != nil {
		return weather.LocationWithWeather{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[oid]
	if !ok {
		return weather.LocationWithWeather{}, ErrNotFound
	}

	out := weather.LocationWithWeather{
		ID:         loc.ID,
		Name:       loc.Name,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
		WeatherRef: loc.Weather,
	}
	if w, ok := s.weathers[loc.Weather]; ok {
		out.WeatherDoc = &w
	}
	return out, nil
}

func (s *MemoryStore) FindWeather(ctx context.Context, id string) ([]weather.Weather, error) {
	oid, err := parseID(id, modelWeather)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.weathers[oid]
	if !ok {
		return []weather.Weather{}, nil
	}
	return []weather.Weather{w}, nil
}

func (s *MemoryStore) UpdateLocation(ctx context.Context, id string, patch weather.LocationPatch) (weather.Location, error) {
	oid, err := parseID(id, modelLocation)
	if err != nil {
		return weather.Location{}, err
	}
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locations[oid]
	if !ok {
		return weather.Location{}, ErrNotFound
	}
	patch.Apply(&loc)
	s.locations[oid] = loc
	return loc, nil
}

func (s *MemoryStore) DeleteLocation(ctx context.Context, id string) (weather.Location, error) {
	oid, err := parseID(id, modelLocation)
	if err != nil {
		return weather.Location{}, err
	}
	if err := ctx.Err(); err != nil {
		return weather.Location{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.locations[oid]
	if !ok {
		return weather.Location{}, ErrNotFound
	}
	delete(s.locations, oid)
	for i, v := range s.order {
		if v == oid {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return loc, nil
}

func (s *MemoryStore) CountOrphanWeather(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	referenced := make(map[primitive.ObjectID]struct{}, len(s.locations))
	for _, loc := range s.locations {
		referenced[loc.Weather] = struct{}{}
	}

	var n int64
	for id := range s.weathers {
		if _, ok := referenced[id]; !ok {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Counts reports how many records each collection holds.
func (s *MemoryStore) Counts() (locations, weathers int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.locations), len(s.weathers)
}
