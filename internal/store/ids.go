package store

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	modelLocation = "Location"
	modelWeather  = "Weather"
)

var (
	// ErrNotFound is returned when the targeted record does not exist.
	ErrNotFound = errors.New("no record found")

	// ErrInvalidID is returned when an id is not a valid object id.
	ErrInvalidID = errors.New("invalid object id")

	errRequiredWeather = errors.New("location validation failed: weather is required")
)

// parseID converts a hex id, reporting the offending value and model on failure.
func parseID(value, model string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: cast to ObjectId failed for value %q at path \"_id\" for model %q", ErrInvalidID, value, model)
	}
	return oid, nil
}
