package domain

import "fmt"

// ConfigurationError marks a fatal misconfiguration: malformed bounds, an
// unknown UTM zone, a broken popup template. It is surfaced immediately and
// never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// ProjectionError identifies one record whose coordinates fall outside the
// mathematical domain of the coordinate transform. Index is the record's
// position within the batch handed to the reprojector.
type ProjectionError struct {
	Index    int
	Easting  float64
	Northing float64
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("reproject record %d: easting=%g northing=%g outside transform domain",
		e.Index, e.Easting, e.Northing)
}
