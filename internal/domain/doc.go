// Package domain models GPS-collar reindeer observation data and the pure
// transforms that turn it into renderer-ready marker descriptors.
//
// # Data Source
//
// Observations arrive as small batch-loaded CSV tables exported from field
// collection tools. Each row is one sighting with projected coordinates and a
// handful of free-form attributes:
//
//	utm_easting, utm_northing  metres in a UTM zone (zone is deployment config,
//	                           not part of the data; Scandinavian deployments
//	                           typically use zone 33 north)
//	date                       free-form date string, often ISO but not always
//	sex                        "male", "female", or anything else field crews typed
//	age                        free-form, frequently empty
//
// Missing or unparsable coordinates are represented as NaN so that zero,
// which is a legal UTM value, is never conflated with absence.
//
// # Pipeline Stages
//
// The stages are pure, order-preserving sequence functions with no shared
// state, so each is independently testable:
//
//	records → Validate → Reproject → EnrichWithPlaceNames → BuildDescriptors
//
// [Validate] drops rows with missing coordinates or coordinates outside the
// per-region [ValidRange]; both axes must pass. [Projection.Reproject] converts
// UTM metres to WGS84 degrees, either aborting the batch or skipping bad rows
// depending on the caller's chosen policy. [BuildDescriptors] is total: style
// lookup and popup rendering always succeed, degrading to the designated
// fallback style and "unknown" placeholders, because partial field data is the
// common case rather than an exception.
//
// # Labels
//
// Descriptor labels are "Observation N" with N counting 1..N over the output
// sequence. Rows removed by validation or lenient reprojection leave no gaps,
// so the labels shown on a map are always dense.
//
// # Coordinates
//
// Positions keep full double precision through the pipeline. The 4-decimal
// rounding visible in popup text (about 11 m of precision) happens only at
// presentation time, inside popup rendering.
package domain
