package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/i474232898/weather-location-api/internal/logger"
	"github.com/i474232898/weather-location-api/internal/weather"
)

const (
	collLocations = "locations"
	collWeathers  = "weathers"
)

// MongoStore is the persistence gateway backed by MongoDB. It holds the single
// long-lived client for the process; the driver's pool is goroutine-safe.
type MongoStore struct {
	client    *mongo.Client
	locations *mongo.Collection
	weathers  *mongo.Collection
	circuit   *gobreaker.CircuitBreaker
	log       logger.Logger
}

var _ weather.Store = (*MongoStore)(nil)

// Connect dials uri and pings the primary within timeout. Any failure here is
// meant to be fatal for the process.
func Connect(ctx context.Context, uri, database string, timeout time.Duration, log logger.Logger) (*MongoStore, error) {
	log = log.WithField("component", "mongo_store")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	log.Infof("connected to mongo database %q", database)

	return &MongoStore{
		client:    client,
		locations: db.Collection(collLocations),
		weathers:  db.Collection(collWeathers),
		circuit:   newCircuit(log),
		log:       log,
	}, nil
}

// newCircuit opens after five consecutive driver failures and half-opens after 30s.
// Missing records and bad ids are answers, not failures.
func newCircuit(log logger.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mongo",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInvalidID) ||
				errors.Is(err, errRequiredWeather) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("circuit %s: %s -> %s", name, from, to)
		},
	})
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// guard runs fn through the circuit breaker.
func (s *MongoStore) guard(fn func() error) error {
	_, err := s.circuit.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (s *MongoStore) InsertWeather(ctx context.Context, w *weather.Weather) error {
	w.ID = primitive.NewObjectID()
	return s.guard(func() error {
		if _, err := s.weathers.InsertOne(ctx, w); err != nil {
			return fmt.Errorf("insert weather: %w", err)
		}
		return nil
	})
}

func (s *MongoStore) InsertLocation(ctx context.Context, loc *weather.Location) error {
	if loc.Weather.IsZero() {
		return errRequiredWeather
	}
	loc.ID = primitive.NewObjectID()
	return s.guard(func() error {
		if _, err := s.locations.InsertOne(ctx, loc); err != nil {
			return fmt.Errorf("insert location: %w", err)
		}
		return nil
	})
}

func (s *MongoStore) ListLocations(ctx context.Context) ([]weather.Location, error) {
	out := []weather.Location{}
	err := s.guard(func() error {
		cur, err := s.locations.Find(ctx, bson.D{})
		if err != nil {
			return fmt.Errorf("find locations: %w", err)
		}
		if err := cur.All(ctx, &out); err != nil {
			return fmt.Errorf("decode locations: %w", err)
		}
		return nil
	})
	return out, err
}

func (s *MongoStore) FindLocationWithWeather(ctx context.Context, id string) (weather.LocationWithWeather, error) {
	oid, err := parseID(id, modelLocation)
	if err != nil {
		return weather.LocationWithWeather{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collWeathers},
			{Key: "localField", Value: "weather"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "weather_doc"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$weather_doc"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$limit", Value: 1}},
	}

	var out []weather.LocationWithWeather
	err = s.guard(func() error {
		cur, err := s.locations.Aggregate(ctx, pipeline)
		if err != nil {
			return fmt.Errorf("lookup location: %w", err)
		}
		if err := cur.All(ctx, &out); err != nil {
			return fmt.Errorf("decode location: %w", err)
		}
		if len(out) == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return weather.LocationWithWeather{}, err
	}
	return out[0], nil
}

func (s *MongoStore) FindWeather(ctx context.Context, id string) ([]weather.Weather, error) {
	oid, err := parseID(id, modelWeather)
	if err != nil {
		return nil, err
	}

	out := []weather.Weather{}
	err = s.guard(func() error {
		cur, err := s.weathers.Find(ctx, bson.D{{Key: "_id", Value: oid}})
		if err != nil {
			return fmt.Errorf("find weather: %w", err)
		}
		if err := cur.All(ctx, &out); err != nil {
			return fmt.Errorf("decode weather: %w", err)
		}
		return nil
	})
	return out, err
}

func (s *MongoStore) UpdateLocation(ctx context.Context, id string, patch weather.LocationPatch) (weather.Location, error) {
	oid, err := parseID(id, modelLocation)
	if err != nil {
		return weather.Location{}, err
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	var loc weather.Location

	err = s.guard(func() error {
		var res *mongo.SingleResult
		if patch.IsEmpty() {
			// $set must not be empty; an empty patch is a plain read.
			res = s.locations.FindOne(ctx, filter)
		} else {
			opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
			res = s.locations.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: patchSet(patch)}}, opts)
		}
		return decodeSingle(res, &loc, "update location")
	})
	return loc, err
}

func (s *MongoStore) DeleteLocation(ctx context.Context, id string) (weather.Location, error) {
	oid, err := parseID(id, modelLocation)
	if err != nil {
		return weather.Location{}, err
	}

	var loc weather.Location
	err = s.guard(func() error {
		res := s.locations.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}})
		return decodeSingle(res, &loc, "delete location")
	})
	return loc, err
}

func (s *MongoStore) CountOrphanWeather(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collLocations},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "weather"},
			{Key: "as", Value: "refs"},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "refs", Value: bson.D{{Key: "$size", Value: 0}}}}}},
		{{Key: "$count", Value: "orphans"}},
	}

	var n int64
	err := s.guard(func() error {
		cur, err := s.weathers.Aggregate(ctx, pipeline)
		if err != nil {
			return fmt.Errorf("count orphan weather: %w", err)
		}
		var rows []struct {
			Orphans int64 `bson:"orphans"`
		}
		if err := cur.All(ctx, &rows); err != nil {
			return fmt.Errorf("decode orphan count: %w", err)
		}
		if len(rows) > 0 {
			n = rows[0].Orphans
		}
		return nil
	})
	return n, err
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func patchSet(p weather.LocationPatch) bson.D {
	set := bson.D{}
	if p.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *p.Name})
	}
	if p.Latitude != nil {
		set = append(set, bson.E{Key: "latitude", Value: *p.Latitude})
	}
	if p.Longitude != nil {
		set = append(set, bson.E{Key: "longitude", Value: *p.Longitude})
	}
	return set
}

func decodeSingle(res *mongo.SingleResult, dst interface{}, op string) error {
	if err := res.Decode(dst); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
