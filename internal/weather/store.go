package weather

import (
	"context"
)

// Store is the contract the persistence gateway (mongo or in-memory) must satisfy.
// Ids are hex object ids; implementations reject malformed ids and report missing
// records with their own not-found error.
type Store interface {
	InsertWeather(ctx context.Context, w *Weather) error
	InsertLocation(ctx context.Context, loc *Location) error

	ListLocations(ctx context.Context) ([]Location, error)
	// FindLocationWithWeather looks a location up and resolves its weather reference.
	FindLocationWithWeather(ctx context.Context, id string) (LocationWithWeather, error)
	// FindWeather returns every weather record with the given id (zero or one).
	FindWeather(ctx context.Context, id string) ([]Weather, error)

	UpdateLocation(ctx context.Context, id string, patch LocationPatch) (Location, error)
	DeleteLocation(ctx context.Context, id string) (Location, error)

	// CountOrphanWeather counts weather records no location references.
	CountOrphanWeather(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}
