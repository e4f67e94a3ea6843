// Package leaflet renders marker descriptors to a self-contained HTML map
// page built on the Leaflet CDN distribution.
package leaflet

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tarandus/obsmap/internal/domain"
)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
	maxZoom: 19,
	attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
var markers = {{.Markers}};
markers.forEach(function (m) {
	L.circleMarker([m.lat, m.lon], {
		radius: m.radius,
		color: m.color,
		fillColor: m.fill_color,
		fillOpacity: 0.8
	}).addTo(map).bindPopup(m.popup);
});
</script>
</body>
</html>
`

type markerJSON struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Color     string  `json:"color"`
	FillColor string  `json:"fill_color"`
	Radius    int     `json:"radius"`
	Popup     string  `json:"popup"`
}

type pageData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Markers   template.JS
}

// Renderer writes the map page to disk and keeps the last rendering in
// memory for HTTP serving.
type Renderer struct {
	path   string
	title  string
	tmpl   *template.Template
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot []byte
}

// NewRenderer creates a renderer targeting path. title becomes the page
// title of the generated document.
func NewRenderer(path, title string, logger *slog.Logger) *Renderer {
	return &Renderer{
		path:   path,
		title:  title,
		tmpl:   template.Must(template.New("map").Parse(pageTemplate)),
		logger: logger,
	}
}

// Name identifies this render target in logs and metrics.
func (r *Renderer) Name() string { return "leaflet" }

// Render builds the page, writes it to disk, and retains the bytes for
// Snapshot. An empty descriptor set still produces a valid page centered on
// a default view.
func (r *Renderer) Render(_ context.Context, descriptors []domain.MarkerDescriptor) error {
	markers := make([]markerJSON, 0, len(descriptors))
	for _, d := range descriptors {
		markers = append(markers, markerJSON{
			Lat:       d.Position.Lat,
			Lon:       d.Position.Lon,
			Color:     d.Style.Color,
			FillColor: d.Style.FillColor,
			Radius:    d.Style.Radius,
			Popup:     d.PopupHTML,
		})
	}
	encoded, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}

	data := pageData{
		Title:     r.title,
		CenterLat: 0,
		CenterLon: 0,
		Zoom:      2,
		Markers:   template.JS(encoded),
	}
	if extent, ok := domain.ComputeExtent(descriptors); ok {
		data.CenterLat = extent.Center.Lat
		data.CenterLon = extent.Center.Lon
		data.Zoom = zoomForSpan(extent.SpanMeters)
	}

	var page strings.Builder
	if err := r.tmpl.Execute(&page, data); err != nil {
		return fmt.Errorf("execute map template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(r.path, []byte(page.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}

	r.mu.Lock()
	r.snapshot = []byte(page.String())
	r.mu.Unlock()

	r.logger.Info("wrote map page", "path", r.path, "markers", len(markers))
	return nil
}

// Snapshot returns the last rendered page, or nil before the first run.
func (r *Renderer) Snapshot() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// zoomForSpan picks an initial zoom level so the marker extent roughly fills
// the viewport. The thresholds assume a desktop-sized map pane.
func zoomForSpan(spanMeters float64) int {
	switch {
	case spanMeters <= 0:
		return 12
	case spanMeters < 2000:
		return 13
	case spanMeters < 10000:
		return 11
	case spanMeters < 50000:
		return 9
	case spanMeters < 250000:
		return 7
	case spanMeters < 1000000:
		return 5
	default:
		return 3
	}
}
