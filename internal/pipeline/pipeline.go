package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tarandus/obsmap/internal/domain"
	"github.com/tarandus/obsmap/internal/observability"
)

// Source reads the full observation table. Inputs are small, batch-loaded
// tables, so there is no streaming contract.
type Source interface {
	ReadAll(ctx context.Context) ([]domain.ObservationRecord, error)
}

// Renderer is one rendering surface. All side effects live behind this
// boundary; the stages upstream of it are pure.
type Renderer interface {
	Name() string
	Render(ctx context.Context, descriptors []domain.MarkerDescriptor) error
}

// Params wires a Pipeline. Resolver may be nil (enrichment disabled).
type Params struct {
	Source     Source
	Bounds     domain.ValidRange
	Projection domain.Projection
	Styles     domain.StyleRules
	Popup      *domain.PopupTemplate
	Resolver   domain.PlaceResolver
	Renderers  []Renderer
	Logger     *slog.Logger
	Metrics    *observability.Metrics

	// SkipBadProjections selects the lenient reprojection policy: records the
	// transform rejects are dropped with a diagnostic instead of aborting the
	// whole run.
	SkipBadProjections bool
}

// Pipeline orchestrates one read→validate→reproject→build→render pass.
type Pipeline struct {
	source     Source
	bounds     domain.ValidRange
	projection domain.Projection
	styles     domain.StyleRules
	popup      *domain.PopupTemplate
	resolver   domain.PlaceResolver
	renderers  []Renderer
	logger     *slog.Logger
	metrics    *observability.Metrics
	lenient    bool
	ready      atomic.Bool
}

// New creates a Pipeline from its parts.
func New(p Params) *Pipeline {
	return &Pipeline{
		source:     p.Source,
		bounds:     p.Bounds,
		projection: p.Projection,
		styles:     p.Styles,
		popup:      p.Popup,
		resolver:   p.Resolver,
		renderers:  p.Renderers,
		logger:     p.Logger,
		metrics:    p.Metrics,
		lenient:    p.SkipBadProjections,
	}
}

// CheckReadiness returns nil once at least one run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one complete pass and returns the descriptors it built. A
// render-target failure does not abort the remaining targets; all render
// errors are joined into the returned error.
func (p *Pipeline) Run(ctx context.Context) ([]domain.MarkerDescriptor, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	records, err := p.source.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read observations: %w", err)
	}
	p.metrics.RecordsRead.Add(float64(len(records)))

	kept, err := domain.Validate(records, p.bounds)
	if err != nil {
		return nil, err
	}
	rejected := len(records) - len(kept)
	p.metrics.RecordsRejected.Add(float64(rejected))
	p.logger.Info("validated records", "read", len(records), "kept", len(kept), "rejected", rejected)

	located, err := p.reproject(kept)
	if err != nil {
		return nil, err
	}

	located = domain.EnrichWithPlaceNames(ctx, located, p.resolver, p.logger)

	descriptors, err := domain.BuildDescriptors(located, p.styles, p.popup)
	if err != nil {
		return nil, err
	}
	p.metrics.DescriptorsBuilt.Add(float64(len(descriptors)))

	if err := p.render(ctx, descriptors); err != nil {
		return descriptors, err
	}

	p.ready.Store(true)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("run complete", "descriptors", len(descriptors), "duration", time.Since(start))
	return descriptors, nil
}

func (p *Pipeline) reproject(records []domain.ObservationRecord) ([]domain.Located, error) {
	if p.lenient {
		located := p.projection.ReprojectLenient(records, p.logger)
		p.metrics.ProjectionFailures.Add(float64(len(records) - len(located)))
		return located, nil
	}

	located, err := p.projection.Reproject(records)
	if err != nil {
		p.metrics.ProjectionFailures.Inc()
		return nil, err
	}
	return located, nil
}

// render fans the descriptor sequence out to every configured target. Targets
// are independent: one failing surface must not stop the others.
func (p *Pipeline) render(ctx context.Context, descriptors []domain.MarkerDescriptor) error {
	var errs []error
	for _, r := range p.renderers {
		renderStart := time.Now()
		err := r.Render(ctx, descriptors)
		p.metrics.RenderDuration.WithLabelValues(r.Name()).Observe(time.Since(renderStart).Seconds())

		if err != nil {
			p.metrics.RenderOutcomes.WithLabelValues(r.Name(), "error").Inc()
			p.logger.Error("render failed", "target", r.Name(), "error", err)
			errs = append(errs, fmt.Errorf("render %s: %w", r.Name(), err))
			continue
		}
		p.metrics.RenderOutcomes.WithLabelValues(r.Name(), "success").Inc()
		p.logger.Info("rendered", "target", r.Name(), "markers", len(descriptors))
	}
	return errors.Join(errs...)
}
