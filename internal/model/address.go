package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coordinates is a WGS-84 point.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// String renders the point the way geocoders do: "lon lat".
func (c Coordinates) String() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + " " + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// ParseCoordinates parses a "lon lat" pair separated by whitespace.
func ParseCoordinates(s string) (Coordinates, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Coordinates{}, fmt.Errorf("expected \"lon lat\", got %q", s)
	}

	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude %q: %w", fields[0], err)
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude %q: %w", fields[1], err)
	}

	return Coordinates{Lon: lon, Lat: lat}, nil
}

// CoordinatesFrom returns nil unless both parts are known.
func CoordinatesFrom(lon, lat *float64) *Coordinates {
	if lon == nil || lat == nil {
		return nil
	}
	return &Coordinates{Lon: *lon, Lat: *lat}
}

// Address is a geocoded address keyed by its exact string.
type Address struct {
	Address     string    `json:"address" db:"address"`
	Coordinates           `json:"coordinates"`
	RequestedAt time.Time `json:"requestedAt" db:"requested_at"`
}
