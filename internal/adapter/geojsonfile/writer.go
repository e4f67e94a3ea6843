// Package geojsonfile renders marker descriptors to a GeoJSON
// FeatureCollection on disk.
package geojsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tarandus/obsmap/internal/domain"
)

// Writer renders descriptors to a GeoJSON file and keeps the last encoding
// in memory for HTTP serving.
type Writer struct {
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	snapshot []byte
}

// NewWriter creates a writer targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Name identifies this render target in logs and metrics.
func (w *Writer) Name() string { return "geojson" }

// Render encodes the descriptors as a FeatureCollection, writes the file,
// and retains the bytes for Snapshot.
func (w *Writer) Render(_ context.Context, descriptors []domain.MarkerDescriptor) error {
	fc := geojson.NewFeatureCollection()
	for _, d := range descriptors {
		f := geojson.NewFeature(orb.Point{d.Position.Lon, d.Position.Lat})
		f.Properties["label"] = d.Label
		f.Properties["popup"] = d.PopupHTML
		f.Properties["marker-color"] = d.Style.Color
		f.Properties["fill"] = d.Style.FillColor
		f.Properties["radius"] = d.Style.Radius
		f.Properties["built_at"] = d.BuiltAt.UTC().Format(time.RFC3339)
		fc.Append(f)
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode feature collection: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.snapshot = data
	w.mu.Unlock()

	w.logger.Info("wrote geojson", "path", w.path, "features", len(descriptors), "bytes", len(data))
	return nil
}

// Snapshot returns the last rendered document, or nil before the first run.
func (w *Writer) Snapshot() []byte {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}
