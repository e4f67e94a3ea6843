package domain

import (
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

// Extent summarizes where a descriptor set sits on the map: its bounding box,
// the box midpoint, and the great-circle distance across the box diagonal.
// Renderers use it to pick an initial view instead of hard-coding one.
type Extent struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
	Center         GeoPoint
	SpanMeters     float64
}

// ComputeExtent reduces a descriptor sequence to its extent. ok is false for
// an empty sequence, which has no meaningful view.
func ComputeExtent(descriptors []MarkerDescriptor) (ext Extent, ok bool) {
	if len(descriptors) == 0 {
		return Extent{}, false
	}

	first := descriptors[0].Position
	ext = Extent{MinLon: first.Lon, MaxLon: first.Lon, MinLat: first.Lat, MaxLat: first.Lat}
	for _, d := range descriptors[1:] {
		p := d.Position
		ext.MinLon = min(ext.MinLon, p.Lon)
		ext.MaxLon = max(ext.MaxLon, p.Lon)
		ext.MinLat = min(ext.MinLat, p.Lat)
		ext.MaxLat = max(ext.MaxLat, p.Lat)
	}

	ext.Center = GeoPoint{
		Lon: (ext.MinLon + ext.MaxLon) / 2,
		Lat: (ext.MinLat + ext.MaxLat) / 2,
	}

	a := s2.PointFromLatLng(s2.LatLngFromDegrees(ext.MinLat, ext.MinLon))
	b := s2.PointFromLatLng(s2.LatLngFromDegrees(ext.MaxLat, ext.MaxLon))
	angle := s2.ChordAngleBetweenPoints(a, b).Angle()
	ext.SpanMeters = angle.Radians() * earthRadiusMeters

	return ext, true
}
