package domain

import (
	"math"
	"time"
)

// ObservationRecord is one field-collected sighting as parsed from the source
// table. Coordinates are metres in the source UTM zone; NaN marks a missing or
// unparsable value. Attribute fields are free-form and may be empty.
type ObservationRecord struct {
	Easting  float64
	Northing float64
	Date     string
	Sex      string
	Age      string
}

// HasCoordinates reports whether both coordinates carry usable numeric values.
func (r ObservationRecord) HasCoordinates() bool {
	return !math.IsNaN(r.Easting) && !math.IsNaN(r.Northing)
}

// GeoPoint is a reprojected coordinate pair in WGS84 degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Located pairs a validated record with its reprojected position. Place is
// optional reverse-lookup enrichment and stays empty when disabled or
// unresolved.
type Located struct {
	Record ObservationRecord
	Point  GeoPoint
	Place  string
}

// ValidRange holds the inclusive per-axis bounds for plausible coordinates.
// It is deployment configuration for a region, never derived from the data.
type ValidRange struct {
	EastingMin  float64
	EastingMax  float64
	NorthingMin float64
	NorthingMax float64
}

// Validate checks that min <= max on each axis. A violation is a
// *ConfigurationError: the bounds come from config, so a malformed range is a
// deployment mistake rather than a per-record failure.
func (v ValidRange) Validate() error {
	if !(v.EastingMin <= v.EastingMax) {
		return &ConfigurationError{Reason: "easting bounds inverted: min > max"}
	}
	if !(v.NorthingMin <= v.NorthingMax) {
		return &ConfigurationError{Reason: "northing bounds inverted: min > max"}
	}
	return nil
}

// Contains reports whether both coordinates are present and inside the bounds.
func (v ValidRange) Contains(r ObservationRecord) bool {
	return r.HasCoordinates() &&
		r.Easting >= v.EastingMin && r.Easting <= v.EastingMax &&
		r.Northing >= v.NorthingMin && r.Northing <= v.NorthingMax
}

// Style is the visual treatment of one marker.
type Style struct {
	Color     string `json:"color"`
	FillColor string `json:"fill_color"`
	Radius    int    `json:"radius"`
}

// MarkerDescriptor is the renderer-agnostic unit handed to a rendering
// surface: where the marker goes, how it looks, and what it says. Descriptors
// are immutable once built and never share identity.
type MarkerDescriptor struct {
	Position  GeoPoint
	Style     Style
	PopupHTML string
	Label     string
	BuiltAt   time.Time
}
