package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPopup(t *testing.T) *PopupTemplate {
	t.Helper()
	popup, err := NewPopupTemplate(DefaultPopupTemplate)
	require.NoError(t, err)
	return popup
}

func TestNewPopupTemplate_Invalid(t *testing.T) {
	_, err := NewPopupTemplate("{{.Unclosed")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "popup template")
}

func TestBuildDescriptors(t *testing.T) {
	fixedTime := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	t.Cleanup(func() { SetClock(nil) })

	rules := testStyleRules()
	popup := testPopup(t)

	t.Run("one descriptor per pair with attributes in popup", func(t *testing.T) {
		pairs := []Located{
			{
				Record: ObservationRecord{Date: "2025-07-12", Sex: "male", Age: "adult"},
				Point:  GeoPoint{Lon: 13.8473219, Lat: 78.3120555},
				Place:  "Adventdalen",
			},
		}

		descriptors, err := BuildDescriptors(pairs, rules, popup)

		require.NoError(t, err)
		require.Len(t, descriptors, 1)
		d := descriptors[0]
		assert.Equal(t, "Observation 1", d.Label)
		assert.Equal(t, maleStyle, d.Style)
		assert.Equal(t, pairs[0].Point, d.Position)
		assert.Equal(t, fixedTime, d.BuiltAt)
		assert.Contains(t, d.PopupHTML, "Observation 1")
		assert.Contains(t, d.PopupHTML, "Date: 2025-07-12")
		assert.Contains(t, d.PopupHTML, "Sex: male")
		assert.Contains(t, d.PopupHTML, "Age: adult")
		assert.Contains(t, d.PopupHTML, "Place: Adventdalen")
	})

	t.Run("popup position is rounded to 4 decimals", func(t *testing.T) {
		pairs := []Located{
			{Point: GeoPoint{Lon: 13.8473219, Lat: 78.3120555}},
		}

		descriptors, err := BuildDescriptors(pairs, rules, popup)

		require.NoError(t, err)
		assert.Contains(t, descriptors[0].PopupHTML, "Position: 78.3121, 13.8473")
		// The descriptor itself keeps full precision.
		assert.Equal(t, 13.8473219, descriptors[0].Position.Lon)
	})

	t.Run("missing attributes render as placeholders", func(t *testing.T) {
		pairs := []Located{
			{Record: ObservationRecord{}, Point: GeoPoint{Lon: 15, Lat: 78}},
		}

		descriptors, err := BuildDescriptors(pairs, rules, popup)

		require.NoError(t, err)
		d := descriptors[0]
		assert.Contains(t, d.PopupHTML, "Date: unknown")
		assert.Contains(t, d.PopupHTML, "Sex: unknown")
		assert.Contains(t, d.PopupHTML, "Age: unknown")
		assert.Contains(t, d.PopupHTML, "Place: unknown")
		assert.Equal(t, defaultStyle, d.Style)
	})

	t.Run("free-form field data is escaped", func(t *testing.T) {
		pairs := []Located{
			{Record: ObservationRecord{Sex: `<script>alert(1)</script>`}, Point: GeoPoint{Lon: 15, Lat: 78}},
		}

		descriptors, err := BuildDescriptors(pairs, rules, popup)

		require.NoError(t, err)
		assert.NotContains(t, descriptors[0].PopupHTML, "<script>")
	})

	t.Run("labels are dense over the output order", func(t *testing.T) {
		pairs := make([]Located, 5)
		for i := range pairs {
			pairs[i] = Located{Point: GeoPoint{Lon: 15 + float64(i)*0.01, Lat: 78}}
		}

		descriptors, err := BuildDescriptors(pairs, rules, popup)

		require.NoError(t, err)
		require.Len(t, descriptors, 5)
		for i, d := range descriptors {
			assert.Equal(t, fmt.Sprintf("Observation %d", i+1), d.Label)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		descriptors, err := BuildDescriptors(nil, rules, popup)
		require.NoError(t, err)
		assert.Empty(t, descriptors)
	})
}

// TestPipelineScenario walks the documented three-record example through the
// full validate → reproject → build chain.
func TestPipelineScenario(t *testing.T) {
	records := []ObservationRecord{
		{Easting: 450000, Northing: 8700000, Sex: "male"},
		{Easting: 999999, Northing: 8700000, Sex: "female"},
		{Easting: 460000, Northing: 8700000},
	}

	kept, err := Validate(records, svalbardBounds)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.Equal(t, records[0], kept[0])
	assert.Equal(t, records[2], kept[1])

	p := testProjection(t)
	located, err := p.Reproject(kept)
	require.NoError(t, err)
	require.Len(t, located, 2)

	descriptors, err := BuildDescriptors(located, testStyleRules(), testPopup(t))
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	assert.Equal(t, "Observation 1", descriptors[0].Label)
	assert.Equal(t, "Observation 2", descriptors[1].Label)
	assert.Equal(t, maleStyle, descriptors[0].Style)
	// Missing sex resolves to the configured default, never an error.
	assert.Equal(t, defaultStyle, descriptors[1].Style)
}
