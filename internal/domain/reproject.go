package domain

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/wroge/wgs84"
)

// Projection converts coordinates between one UTM zone and WGS84
// longitude/latitude. The zero value is unusable; build one with
// NewUTMProjection.
type Projection struct {
	zone     int
	northern bool
	forward  wgs84.Func
	inverse  wgs84.Func
}

// NewUTMProjection builds the forward and inverse transforms for a UTM zone.
// Zones run 1..60; anything else is a *ConfigurationError.
func NewUTMProjection(zone int, northern bool) (Projection, error) {
	if zone < 1 || zone > 60 {
		return Projection{}, &ConfigurationError{Reason: fmt.Sprintf("UTM zone %d outside 1..60", zone)}
	}
	utm := wgs84.UTM(float64(zone), northern)
	return Projection{
		zone:     zone,
		northern: northern,
		forward:  utm.To(wgs84.LonLat()),
		inverse:  wgs84.LonLat().To(utm),
	}, nil
}

// Zone returns the configured UTM zone number.
func (p Projection) Zone() int { return p.zone }

// Forward transforms one easting/northing pair to WGS84 degrees. ok is false
// when the input sits outside the transform's domain, i.e. the result is not
// finite or not a legal longitude/latitude.
func (p Projection) Forward(easting, northing float64) (GeoPoint, bool) {
	lon, lat, _ := p.forward(easting, northing, 0)
	if !isFinite(lon) || !isFinite(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return GeoPoint{}, false
	}
	return GeoPoint{Lon: lon, Lat: lat}, true
}

// Inverse transforms a WGS84 point back to easting/northing metres. The
// library's series inverse drifts by metres at high latitudes, so the result
// is refined with Newton steps against Forward until Forward maps it back
// onto the requested point. Used for round-trip verification.
func (p Projection) Inverse(point GeoPoint) (easting, northing float64) {
	easting, northing, _ = p.inverse(point.Lon, point.Lat, 0)

	// Step size for the finite-difference Jacobian of Forward.
	const h = 1.0 // metres
	for range 8 {
		lon, lat, _ := p.forward(easting, northing, 0)
		dLon := point.Lon - lon
		dLat := point.Lat - lat
		if math.Abs(dLon) < 1e-12 && math.Abs(dLat) < 1e-12 {
			break
		}

		lonE, latE, _ := p.forward(easting+h, northing, 0)
		lonN, latN, _ := p.forward(easting, northing+h, 0)
		dLonDE := (lonE - lon) / h
		dLatDE := (latE - lat) / h
		dLonDN := (lonN - lon) / h
		dLatDN := (latN - lat) / h

		det := dLonDE*dLatDN - dLonDN*dLatDE
		if det == 0 || !isFinite(det) {
			break
		}
		easting += (dLon*dLatDN - dLat*dLonDN) / det
		northing += (dLat*dLonDE - dLon*dLatDE) / det
	}
	return easting, northing
}

// Reproject converts validated records in order, aborting the whole batch on
// the first transform failure. The error is a *ProjectionError carrying the
// offending record's index, so nothing silently corrupt ever reaches a
// renderer. Callers wanting per-record skipping use ReprojectLenient instead.
func (p Projection) Reproject(records []ObservationRecord) ([]Located, error) {
	located := make([]Located, 0, len(records))
	for i, r := range records {
		point, ok := p.Forward(r.Easting, r.Northing)
		if !ok {
			return nil, &ProjectionError{Index: i, Easting: r.Easting, Northing: r.Northing}
		}
		located = append(located, Located{Record: r, Point: point})
	}
	return located, nil
}

// ReprojectLenient converts validated records in order, dropping records the
// transform rejects and logging one diagnostic per drop. This is the explicit
// skip-and-log alternative to Reproject's abort-batch policy.
func (p Projection) ReprojectLenient(records []ObservationRecord, logger *slog.Logger) []Located {
	located := make([]Located, 0, len(records))
	for i, r := range records {
		point, ok := p.Forward(r.Easting, r.Northing)
		if !ok {
			logger.Warn("skipping record outside transform domain",
				"index", i,
				"easting", r.Easting,
				"northing", r.Northing,
			)
			continue
		}
		located = append(located, Located{Record: r, Point: point})
	}
	return located
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
