// Package config loads dandidav's configuration: a flat TOML file,
// overridable by DANDIDAV_-prefixed environment variables and by the most
// common settings as flags.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of the gateway.
type Config struct {
	// ListenAddr is the address http.Server listens on, e.g. ":8080".
	ListenAddr string `toml:"listen_addr"`
	// ArchiveAPIURL is the DANDI Archive REST API's base URL.
	ArchiveAPIURL string `toml:"archive_api_url"`
	// Title is the gateway's display name, used in HTML breadcrumbs and
	// the HTML page title.
	Title string `toml:"title"`
	// ZarrmanEnabled toggles the /zarrs/ manifest-tree subsystem.
	ZarrmanEnabled bool `toml:"zarrman_enabled"`
	// ZarrmanRootURL is the base URL of the external manifest tree.
	ZarrmanRootURL string `toml:"zarrman_root_url"`
	// ZarrmanCacheMaxWeight caps the manifest cache's total heap-size
	// estimate, in bytes.
	ZarrmanCacheMaxWeight int64 `toml:"zarrman_cache_max_weight"`
	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration used when no file, environment
// variable, or flag overrides a setting.
func Default() Config {
	return Config{
		ListenAddr:            ":8080",
		ArchiveAPIURL:         "https://api.dandiarchive.org/api/",
		Title:                 "dandidav",
		ZarrmanEnabled:        true,
		ZarrmanRootURL:        "https://datasets.datalad.org/dandi/zarr-manifests/zarr-manifests-v2-sorted/",
		ZarrmanCacheMaxWeight: 64 << 20, // 64 MiB
		LogLevel:              "info",
	}
}

// Load reads TOML configuration from r over top of Default(), then applies
// DANDIDAV_-prefixed environment overrides.
func Load(r io.Reader) (Config, error) {
	c := Default()
	if r != nil {
		if _, err := toml.NewDecoder(r).Decode(&c); err != nil {
			return Config{}, fmt.Errorf("config: failed to decode TOML: %w", err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadFile is a convenience wrapper around Load for a path on disk. A
// missing path is not an error: it just means "use defaults plus
// environment".
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Load(nil)
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Load(nil)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

const envPrefix = "DANDIDAV_"

func (c *Config) applyEnv() error {
	for _, kv := range []struct {
		env string
		dst *string
	}{
		{"LISTEN_ADDR", &c.ListenAddr},
		{"ARCHIVE_API_URL", &c.ArchiveAPIURL},
		{"TITLE", &c.Title},
		{"ZARRMAN_ROOT_URL", &c.ZarrmanRootURL},
		{"LOG_LEVEL", &c.LogLevel},
	} {
		if v, ok := os.LookupEnv(envPrefix + kv.env); ok {
			*kv.dst = v
		}
	}
	if v, ok := os.LookupEnv(envPrefix + "ZARRMAN_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: invalid %sZARRMAN_ENABLED: %w", envPrefix, err)
		}
		c.ZarrmanEnabled = b
	}
	if v, ok := os.LookupEnv(envPrefix + "ZARRMAN_CACHE_MAX_WEIGHT"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: invalid %sZARRMAN_CACHE_MAX_WEIGHT: %w", envPrefix, err)
		}
		c.ZarrmanCacheMaxWeight = n
	}
	return nil
}

// ApplyFlags overrides the most common settings from command-line flag
// values, when non-empty/non-zero.
func (c *Config) ApplyFlags(listenAddr, archiveAPIURL, title string, zarrmanEnabled *bool) {
	if listenAddr != "" {
		c.ListenAddr = listenAddr
	}
	if archiveAPIURL != "" {
		c.ArchiveAPIURL = archiveAPIURL
	}
	if title != "" {
		c.Title = title
	}
	if zarrmanEnabled != nil {
		c.ZarrmanEnabled = *zarrmanEnabled
	}
}

// String renders the config as a one-line summary, safe to log at startup.
func (c Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "listen=%s archive=%s title=%q zarrman=%v log_level=%s",
		c.ListenAddr, c.ArchiveAPIURL, c.Title, c.ZarrmanEnabled, c.LogLevel)
	return b.String()
}
