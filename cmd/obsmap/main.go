package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tarandus/obsmap/internal/adapter/csvsource"
	"github.com/tarandus/obsmap/internal/adapter/geojsonfile"
	httpadapter "github.com/tarandus/obsmap/internal/adapter/http"
	kafkaadapter "github.com/tarandus/obsmap/internal/adapter/kafka"
	"github.com/tarandus/obsmap/internal/adapter/leaflet"
	"github.com/tarandus/obsmap/internal/adapter/nominatim"
	"github.com/tarandus/obsmap/internal/config"
	"github.com/tarandus/obsmap/internal/domain"
	"github.com/tarandus/obsmap/internal/observability"
	"github.com/tarandus/obsmap/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	bounds := domain.ValidRange{
		EastingMin:  cfg.EastingMin,
		EastingMax:  cfg.EastingMax,
		NorthingMin: cfg.NorthingMin,
		NorthingMax: cfg.NorthingMax,
	}
	if err := bounds.Validate(); err != nil {
		logger.Error("invalid coordinate bounds", "error", err)
		os.Exit(1)
	}

	projection, err := domain.NewUTMProjection(cfg.UTMZone, cfg.UTMNorthern)
	if err != nil {
		logger.Error("invalid projection", "error", err)
		os.Exit(1)
	}
	logger.Info("projection configured", "utm_zone", projection.Zone(), "northern", cfg.UTMNorthern)

	styles := domain.NewStyleRules(styleTable(cfg), domain.Style{
		Color:     cfg.StyleDefault,
		FillColor: cfg.StyleDefault,
		Radius:    cfg.MarkerRadius,
	})

	popupSrc := cfg.PopupTemplate
	if popupSrc == "" {
		popupSrc = domain.DefaultPopupTemplate
	}
	popup, err := domain.NewPopupTemplate(popupSrc)
	if err != nil {
		logger.Error("invalid popup template", "error", err)
		os.Exit(1)
	}

	// Initialize place-name enrichment (feature-flagged via NOMINATIM_ENABLED).
	var resolver domain.PlaceResolver
	if cfg.NominatimEnabled {
		client := nominatim.NewClient(cfg.NominatimBaseURL, cfg.NominatimTimeout, logger, metrics)
		resolver = nominatim.NewCachedResolver(client, cfg.NominatimCacheSize, metrics)
		metrics.PlaceEnabled.Set(1)
		logger.Info("place enrichment enabled", "base_url", cfg.NominatimBaseURL, "cache_size", cfg.NominatimCacheSize)
	} else {
		logger.Info("place enrichment disabled")
	}

	// Assemble render targets. An empty path disables a file target.
	var renderers []pipeline.Renderer
	var geoJSON, mapPage httpadapter.ContentSnapshot
	if cfg.GeoJSONPath != "" {
		w := geojsonfile.NewWriter(cfg.GeoJSONPath, logger)
		renderers = append(renderers, w)
		geoJSON = w
	}
	if cfg.LeafletPath != "" {
		r := leaflet.NewRenderer(cfg.LeafletPath, cfg.MapTitle, logger)
		renderers = append(renderers, r)
		mapPage = r
	}
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		renderers = append(renderers, publisher)
	}
	if len(renderers) == 0 {
		logger.Error("no render targets configured")
		os.Exit(1)
	}

	p := pipeline.New(pipeline.Params{
		Source:             csvsource.NewFileReader(cfg.InputPath, logger),
		Bounds:             bounds,
		Projection:         projection,
		Styles:             styles,
		Popup:              popup,
		Resolver:           resolver,
		Renderers:          renderers,
		Logger:             logger,
		Metrics:            metrics,
		SkipBadProjections: cfg.ReprojectPolicy == config.PolicySkip,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.ServeEnabled {
		// One-shot mode: run the pipeline and exit.
		exitCode := 0
		if _, err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
			exitCode = 1
		}
		closePublisher(publisher, logger)
		os.Exit(exitCode)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, mapPage, geoJSON, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if _, err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closePublisher(publisher, logger)

	logger.Info("shutdown complete")
}

// styleTable expands the category→color config into full marker styles.
func styleTable(cfg *config.Config) map[string]domain.Style {
	table := make(map[string]domain.Style, len(cfg.StyleRules))
	for category, color := range cfg.StyleRules {
		table[category] = domain.Style{
			Color:     color,
			FillColor: color,
			Radius:    cfg.MarkerRadius,
		}
	}
	return table
}

func closePublisher(publisher *kafkaadapter.Publisher, logger *slog.Logger) {
	if publisher == nil {
		return
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}
}
