// Package config defines scraper configuration and its layered loading.
//
// Precedence (low to high): compiled-in defaults, an optional YAML file named
// by MARKITIT_CONFIG, then MARKITIT_-prefixed environment variables. The
// defaults carry the site parameters for every dedicated adapter, so a bare
// binary scrapes the known sources without any external configuration.
package config

import "time"

// SourceConfig describes one external event-listing site. Adapter selects the
// implementation; sites without a dedicated adapter use "generic" with a
// container selector and a field-to-locator map.
type SourceConfig struct {
	Adapter  string   `koanf:"adapter"`
	URL      string   `koanf:"url"`
	Keywords []string `koanf:"keywords"`
	Regions  []string `koanf:"regions"`
	Pages    int      `koanf:"pages"`
	PageSize int      `koanf:"page_size"`

	// NeedsDetailPage makes the adapter follow each event's teaser link and
	// merge detail-only fields into the list-level record.
	NeedsDetailPage bool `koanf:"needs_detail_page"`

	// ApplicationLink is a fixed application URL for sites that funnel every
	// event through one form.
	ApplicationLink string `koanf:"application_link"`

	// ContainerSelector and Selectors drive the generic adapter and override
	// site-specific locators for the dedicated browser adapters.
	ContainerSelector string            `koanf:"container_selector"`
	Selectors         map[string]string `koanf:"selectors"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// UserAgent is sent on every HTTP fetch and browser session.
	UserAgent string `koanf:"user_agent"`

	// HTTPTimeoutSec bounds each page fetch.
	HTTPTimeoutSec int `koanf:"http_timeout_sec"`

	// PaceMinMS and PaceMaxMS bound the random delay between network
	// operations.
	PaceMinMS int `koanf:"pace_min_ms"`
	PaceMaxMS int `koanf:"pace_max_ms"`

	// DataDir is where the file-backed store keeps its snapshot when no
	// Postgres DSN is configured.
	DataDir string `koanf:"data_dir"`

	// PostgresDSN selects the Postgres-backed document store when set.
	PostgresDSN string `koanf:"postgres_dsn"`

	// MetricsAddr exposes Prometheus metrics during a run when set,
	// e.g. ":9090". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// EnabledSources lists the source identifiers a default run scrapes.
	EnabledSources []string `koanf:"enabled_sources"`

	// Sources maps source identifiers to their site configuration.
	Sources map[string]SourceConfig `koanf:"sources"`
}

// HTTPTimeout returns the per-fetch timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// PaceMin returns the lower pacing bound as a duration.
func (c *Config) PaceMin() time.Duration {
	return time.Duration(c.PaceMinMS) * time.Millisecond
}

// PaceMax returns the upper pacing bound as a duration.
func (c *Config) PaceMax() time.Duration {
	return time.Duration(c.PaceMaxMS) * time.Millisecond
}

// New creates a Config with defaults for every known source.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36",
		HTTPTimeoutSec: 15,
		PaceMinMS:      1500,
		PaceMaxMS:      4000,
		DataDir:        "~/.local/share/markitit-scraper",
		EnabledSources: []string{"eventhub", "renegadecraft", "marketsformakers", "popupshopup"},
		Sources: map[string]SourceConfig{
			"eventhub": {
				Adapter:         "eventhub",
				URL:             "https://eventhub.net/marketplace",
				Keywords:        []string{"market", "pop up"},
				Regions:         []string{"SOUTH - E"},
				Pages:           3,
				PageSize:        20,
				NeedsDetailPage: true,
			},
			"renegadecraft": {
				Adapter:         "renegadecraft",
				URL:             "https://www.renegadecraft.com/fairs/",
				NeedsDetailPage: true,
				Selectors: map[string]string{
					"city_container":        "div.fair-city",
					"city_name":             "h2.city-name",
					"event_container":       "div.fair-event",
					"event_date":            "p.fair-date",
					"event_details":         "div.fair-details",
					"location":              "p.fair-location",
					"fair_info_link":        "a.fair-link",
					"application_link_page": "a.apply-link",
				},
			},
			"marketsformakers": {
				Adapter: "marketsformakers",
				URL:     "https://www.marketsformakers.com/events",
				Selectors: map[string]string{
					"event_container":  "div.event-card",
					"event_name":       "h3.event-title",
					"event_location":   "p.event-location",
					"event_date":       "p.event-dates",
					"event_image":      "img.event-image",
					"application_link": "a.apply-button",
				},
			},
			"popupshopup": {
				Adapter:         "popupshopup",
				URL:             "https://www.popupshopup.com/apply",
				ApplicationLink: "https://www.popupshopup.com/apply",
				Selectors: map[string]string{
					"event_name": "select#event-select option",
				},
			},
		},
	}
}
