package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarandus/obsmap/internal/domain"
	"github.com/tarandus/obsmap/internal/observability"
	"github.com/tarandus/obsmap/internal/pipeline"
)

// --- mocks ---

type mockSource struct {
	records []domain.ObservationRecord
	err     error
}

func (m *mockSource) ReadAll(_ context.Context) ([]domain.ObservationRecord, error) {
	return m.records, m.err
}

type mockRenderer struct {
	name     string
	err      error
	rendered [][]domain.MarkerDescriptor
}

func (m *mockRenderer) Name() string { return m.name }

func (m *mockRenderer) Render(_ context.Context, descriptors []domain.MarkerDescriptor) error {
	m.rendered = append(m.rendered, descriptors)
	return m.err
}

type stubResolver struct{ place string }

func (s *stubResolver) ResolvePlace(_ context.Context, _, _ float64) (string, error) {
	return s.place, nil
}

// --- helpers ---

var testBounds = domain.ValidRange{
	EastingMin: 400000, EastingMax: 900000,
	NorthingMin: 6500000, NorthingMax: 9500000,
}

func testParams(t *testing.T, source pipeline.Source, renderers ...pipeline.Renderer) pipeline.Params {
	t.Helper()

	projection, err := domain.NewUTMProjection(33, true)
	require.NoError(t, err)
	popup, err := domain.NewPopupTemplate(domain.DefaultPopupTemplate)
	require.NoError(t, err)

	return pipeline.Params{
		Source:     source,
		Bounds:     testBounds,
		Projection: projection,
		Styles: domain.NewStyleRules(map[string]domain.Style{
			"male":   {Color: "#2c7fb8", Radius: 6},
			"female": {Color: "#de2d26", Radius: 6},
		}, domain.Style{Color: "#636363", Radius: 6}),
		Popup:     popup,
		Renderers: renderers,
		Logger:    slog.Default(),
		Metrics:   observability.NewMetricsForTesting(),
	}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: 450000, Northing: 8700000, Sex: "male", Date: "2025-07-12"},
		{Easting: 999999, Northing: 8700000, Sex: "female"},
		{Easting: 460000, Northing: 8700000},
	}}
	renderer := &mockRenderer{name: "mock"}

	p := pipeline.New(testParams(t, source, renderer))

	descriptors, err := p.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	assert.Equal(t, "Observation 1", descriptors[0].Label)
	assert.Equal(t, "Observation 2", descriptors[1].Label)
	// Missing sex gets the default style, never an error.
	assert.Equal(t, "#636363", descriptors[1].Style.Color)

	require.Len(t, renderer.rendered, 1)
	if diff := cmp.Diff(descriptors, renderer.rendered[0]); diff != "" {
		t.Fatalf("renderer received different descriptors (-want +got):\n%s", diff)
	}
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SourceError(t *testing.T) {
	source := &mockSource{err: errors.New("no such file")}
	p := pipeline.New(testParams(t, source))

	_, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read observations")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_AbortsOnProjectionFailure(t *testing.T) {
	// Widen the bounds so a monstrous easting survives validation and hits
	// the transform.
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: 450000, Northing: 8700000},
		{Easting: 1e9, Northing: 8700000},
	}}
	params := testParams(t, source)
	params.Bounds = domain.ValidRange{EastingMin: 0, EastingMax: 1e12, NorthingMin: 0, NorthingMax: 1e12}

	p := pipeline.New(params)

	_, err := p.Run(context.Background())

	var projErr *domain.ProjectionError
	require.ErrorAs(t, err, &projErr)
	assert.Equal(t, 1, projErr.Index)
}

func TestPipeline_Run_SkipPolicyDropsBadRecords(t *testing.T) {
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: 450000, Northing: 8700000, Sex: "male"},
		{Easting: 1e9, Northing: 8700000, Sex: "female"},
		{Easting: 460000, Northing: 8700000, Sex: "female"},
	}}
	renderer := &mockRenderer{name: "mock"}
	params := testParams(t, source, renderer)
	params.Bounds = domain.ValidRange{EastingMin: 0, EastingMax: 1e12, NorthingMin: 0, NorthingMax: 1e12}
	params.SkipBadProjections = true

	p := pipeline.New(params)

	descriptors, err := p.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, descriptors, 2)
	// Labels stay dense after the skip.
	assert.Equal(t, "Observation 1", descriptors[0].Label)
	assert.Equal(t, "Observation 2", descriptors[1].Label)
}

func TestPipeline_Run_MalformedBounds(t *testing.T) {
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: 450000, Northing: 8700000},
	}}
	params := testParams(t, source)
	params.Bounds = domain.ValidRange{EastingMin: 900000, EastingMax: 400000, NorthingMin: 0, NorthingMax: 1}

	p := pipeline.New(params)

	_, err := p.Run(context.Background())

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestPipeline_Run_RendererFailureDoesNotStopOthers(t *testing.T) {
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: 450000, Northing: 8700000, Sex: "male"},
	}}
	broken := &mockRenderer{name: "broken", err: errors.New("disk full")}
	working := &mockRenderer{name: "working"}

	p := pipeline.New(testParams(t, source, broken, working))

	descriptors, err := p.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "render broken")
	assert.Len(t, descriptors, 1)
	assert.Len(t, working.rendered, 1, "second target still renders")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PlaceEnrichment(t *testing.T) {
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: 450000, Northing: 8700000, Sex: "male"},
	}}
	renderer := &mockRenderer{name: "mock"}
	params := testParams(t, source, renderer)
	params.Resolver = &stubResolver{place: "Adventdalen"}

	p := pipeline.New(params)

	descriptors, err := p.Run(context.Background())

	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Contains(t, descriptors[0].PopupHTML, "Place: Adventdalen")
}

func TestPipeline_Run_AllRecordsFiltered(t *testing.T) {
	source := &mockSource{records: []domain.ObservationRecord{
		{Easting: math.NaN(), Northing: 8700000},
		{Easting: 1, Northing: 2},
	}}
	renderer := &mockRenderer{name: "mock"}

	p := pipeline.New(testParams(t, source, renderer))

	descriptors, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Empty(t, descriptors)
	// An empty but complete run still renders (clearing stale surfaces) and
	// still counts as ready.
	assert.Len(t, renderer.rendered, 1)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}
