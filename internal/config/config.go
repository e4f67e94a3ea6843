package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Reprojection failure policies. See the reprojector for semantics.
const (
	PolicyAbort = "abort"
	PolicySkip  = "skip"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	InputPath       string
	HTTPAddr        string
	ServeEnabled    bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Region configuration: plausible coordinate window and source CRS.
	EastingMin      float64
	EastingMax      float64
	NorthingMin     float64
	NorthingMax     float64
	UTMZone         int
	UTMNorthern     bool
	ReprojectPolicy string

	// Marker styling: category→color table plus the designated default.
	StyleRules    map[string]string
	StyleDefault  string
	MarkerRadius  int
	PopupTemplate string

	// Render targets. An empty path disables a file target.
	GeoJSONPath string
	LeafletPath string
	MapTitle    string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Nominatim place-name enrichment.
	NominatimEnabled   bool
	NominatimBaseURL   string
	NominatimTimeout   time.Duration
	NominatimCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("INPUT_PATH", "observations.csv")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SERVE_ENABLED", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", 10*time.Second)

	// Defaults cover the Svalbard zone-33 deployment the collars ship from.
	v.SetDefault("EASTING_MIN", 400000.0)
	v.SetDefault("EASTING_MAX", 900000.0)
	v.SetDefault("NORTHING_MIN", 6500000.0)
	v.SetDefault("NORTHING_MAX", 9500000.0)
	v.SetDefault("UTM_ZONE", 33)
	v.SetDefault("UTM_HEMISPHERE", "north")
	v.SetDefault("REPROJECT_POLICY", PolicyAbort)

	v.SetDefault("STYLE_RULES", "male=#2c7fb8,female=#de2d26")
	v.SetDefault("STYLE_DEFAULT", "#636363")
	v.SetDefault("MARKER_RADIUS", 6)
	v.SetDefault("POPUP_TEMPLATE", "")

	v.SetDefault("GEOJSON_PATH", "out/observations.geojson")
	v.SetDefault("LEAFLET_PATH", "out/map.html")
	v.SetDefault("MAP_TITLE", "Reindeer observations")

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_TOPIC", "observation-markers")

	v.SetDefault("NOMINATIM_ENABLED", false)
	v.SetDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("NOMINATIM_TIMEOUT", 5*time.Second)
	v.SetDefault("NOMINATIM_CACHE_SIZE", 1000)

	northern, err := parseHemisphere(v.GetString("UTM_HEMISPHERE"))
	if err != nil {
		return nil, err
	}

	styleRules, err := parseStyleRules(v.GetString("STYLE_RULES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputPath:       v.GetString("INPUT_PATH"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		ServeEnabled:    v.GetBool("SERVE_ENABLED"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		LogFormat:       v.GetString("LOG_FORMAT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),

		EastingMin:      v.GetFloat64("EASTING_MIN"),
		EastingMax:      v.GetFloat64("EASTING_MAX"),
		NorthingMin:     v.GetFloat64("NORTHING_MIN"),
		NorthingMax:     v.GetFloat64("NORTHING_MAX"),
		UTMZone:         v.GetInt("UTM_ZONE"),
		UTMNorthern:     northern,
		ReprojectPolicy: v.GetString("REPROJECT_POLICY"),

		StyleRules:    styleRules,
		StyleDefault:  v.GetString("STYLE_DEFAULT"),
		MarkerRadius:  v.GetInt("MARKER_RADIUS"),
		PopupTemplate: v.GetString("POPUP_TEMPLATE"),

		GeoJSONPath: v.GetString("GEOJSON_PATH"),
		LeafletPath: v.GetString("LEAFLET_PATH"),
		MapTitle:    v.GetString("MAP_TITLE"),

		KafkaEnabled: v.GetBool("KAFKA_ENABLED"),
		KafkaBrokers: splitBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_TOPIC"),

		NominatimEnabled:   v.GetBool("NOMINATIM_ENABLED"),
		NominatimBaseURL:   v.GetString("NOMINATIM_BASE_URL"),
		NominatimTimeout:   v.GetDuration("NOMINATIM_TIMEOUT"),
		NominatimCacheSize: v.GetInt("NOMINATIM_CACHE_SIZE"),
	}

	if cfg.InputPath == "" {
		return nil, errors.New("INPUT_PATH is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.ReprojectPolicy != PolicyAbort && cfg.ReprojectPolicy != PolicySkip {
		return nil, fmt.Errorf("invalid REPROJECT_POLICY %q: want %q or %q", cfg.ReprojectPolicy, PolicyAbort, PolicySkip)
	}
	if cfg.StyleDefault == "" {
		return nil, errors.New("STYLE_DEFAULT is required")
	}
	if cfg.MarkerRadius <= 0 {
		return nil, errors.New("invalid MARKER_RADIUS")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
		}
	}
	if cfg.NominatimEnabled {
		if cfg.NominatimBaseURL == "" {
			return nil, errors.New("NOMINATIM_ENABLED is true but NOMINATIM_BASE_URL is empty")
		}
		if cfg.NominatimTimeout <= 0 {
			return nil, errors.New("invalid NOMINATIM_TIMEOUT")
		}
		if cfg.NominatimCacheSize <= 0 {
			return nil, errors.New("invalid NOMINATIM_CACHE_SIZE")
		}
	}

	return cfg, nil
}

func parseHemisphere(s string) (northern bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return true, nil
	case "south", "s":
		return false, nil
	default:
		return false, fmt.Errorf("invalid UTM_HEMISPHERE %q: want north or south", s)
	}
}

// parseStyleRules parses "category=color,category=color" into a lookup table.
func parseStyleRules(s string) (map[string]string, error) {
	rules := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return rules, nil
	}
	for _, pair := range strings.Split(s, ",") {
		category, color, ok := strings.Cut(pair, "=")
		category = strings.TrimSpace(category)
		color = strings.TrimSpace(color)
		if !ok || category == "" || color == "" {
			return nil, fmt.Errorf("invalid STYLE_RULES entry %q: want category=color", pair)
		}
		rules[category] = color
	}
	return rules, nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
