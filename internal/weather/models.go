package weather

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Weather is a single atmospheric observation. It is only ever created alongside a
// Location and is never mutated or deleted through the API.
type Weather struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Temperature float64            `bson:"temperature" json:"temperature"`
	Humidite    float64            `bson:"humidite" json:"humidite"`
	VitesseVent float64            `bson:"vitesse_vent" json:"vitesse_vent"`
	Date        time.Time          `bson:"date" json:"date"`
}

// Location is a named point referencing exactly one Weather by id.
// Latitude and longitude are kept verbatim as supplied by the client.
type Location struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Latitude  string             `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude string             `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Weather   primitive.ObjectID `bson:"weather" json:"weather"`
}

// LocationWithWeather is a Location whose weather reference has been resolved inline.
// WeatherDoc is nil when the referenced record no longer exists.
type LocationWithWeather struct {
	ID         primitive.ObjectID `bson:"_id"`
	Name       string             `bson:"name,omitempty"`
	Latitude   string             `bson:"latitude,omitempty"`
	Longitude  string             `bson:"longitude,omitempty"`
	WeatherRef primitive.ObjectID `bson:"weather"`
	WeatherDoc *Weather           `bson:"weather_doc,omitempty"`
}

// LocationPatch carries the attributes an update may change. Nil fields are left alone.
// There is no weather field: the reference is fixed at creation.
type LocationPatch struct {
	Name      *string
	Latitude  *string
	Longitude *string
}

// IsEmpty reports whether the patch changes nothing.
func (p LocationPatch) IsEmpty() bool {
	return p.Name == nil && p.Latitude == nil && p.Longitude == nil
}

// Apply copies the set fields onto loc.
func (p LocationPatch) Apply(loc *Location) {
	if p.Name != nil {
		loc.Name = *p.Name
	}
	if p.Latitude != nil {
		loc.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		loc.Longitude = *p.Longitude
	}
}

// NewLocationInput is what a create request provides.
type NewLocationInput struct {
	Name        string
	Latitude    string
	Longitude   string
	Temperature float64
	Humidite    float64
	VitesseVent float64
	// Date is optional; the zero value means "now".
	Date time.Time
}
