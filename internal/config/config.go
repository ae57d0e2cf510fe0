// Package config loads exporter configuration from the environment, an
// optional dotenv file and an optional YAML cluster list.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ClusterConfig identifies one Patroni cluster to poll. Immutable after Load.
type ClusterConfig struct {
	Name    string `yaml:"name" validate:"required"`
	BaseURL string `yaml:"url" validate:"required,http_url"`
	Timeout time.Duration
}

type Config struct {
	Clusters     []ClusterConfig
	ClustersFile string
	ListenAddr   string
	Timeout      time.Duration
	PollInterval time.Duration
	CacheTTL     time.Duration
	LogLevel     string
}

func Load() (*Config, error) {
	cfg := &Config{
		ClustersFile: getEnv("PATRONI_CLUSTERS_FILE", ""),
		ListenAddr:   getEnv("LISTEN_ADDR", ":8000"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Timeout, err = getDuration("PATRONI_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("PATRONI_CACHE_TTL", 0); err != nil {
		return nil, err
	}

	if cfg.ClustersFile != "" {
		if os.Getenv("PATRONI_CLUSTERS") != "" || os.Getenv("PATRONI_BASE_URLS") != "" {
			return nil, fmt.Errorf("PATRONI_CLUSTERS_FILE cannot be combined with PATRONI_CLUSTERS/PATRONI_BASE_URLS")
		}
		cfg.Clusters, err = loadClustersFile(cfg.ClustersFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg.Clusters, err = clustersFromEnv()
		if err != nil {
			return nil, err
		}
	}

	for i := range cfg.Clusters {
		cfg.Clusters[i].BaseURL = strings.TrimRight(cfg.Clusters[i].BaseURL, "/")
		cfg.Clusters[i].Timeout = cfg.Timeout
	}

	return cfg, nil
}

// Validate checks the loaded config. A failure here is fatal before any
// polling begins.
func (c *Config) Validate() error {
	if len(c.Clusters) == 0 {
		return fmt.Errorf("no clusters configured: set PATRONI_CLUSTERS and PATRONI_BASE_URLS or PATRONI_CLUSTERS_FILE")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("PATRONI_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("PATRONI_CACHE_TTL must not be negative, got %s", c.CacheTTL)
	}

	seen := make(map[string]bool, len(c.Clusters))
	for _, cluster := range c.Clusters {
		if err := validate.Struct(cluster); err != nil {
			return fmt.Errorf("cluster %q: %w", cluster.Name, err)
		}
		if seen[cluster.Name] {
			return fmt.Errorf("duplicate cluster name %q", cluster.Name)
		}
		seen[cluster.Name] = true
	}
	return nil
}

func clustersFromEnv() ([]ClusterConfig, error) {
	names := splitList(os.Getenv("PATRONI_CLUSTERS"))
	urls := splitList(os.Getenv("PATRONI_BASE_URLS"))

	if len(names) != len(urls) {
		return nil, fmt.Errorf("PATRONI_CLUSTERS and PATRONI_BASE_URLS must have the same number of entries, got %d and %d",
			len(names), len(urls))
	}

	clusters := make([]ClusterConfig, len(names))
	for i := range names {
		clusters[i] = ClusterConfig{Name: names[i], BaseURL: urls[i]}
	}
	return clusters, nil
}

func loadClustersFile(path string) ([]ClusterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clusters file: %w", err)
	}

	var file struct {
		Clusters []ClusterConfig `yaml:"clusters"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse clusters file %s: %w", path, err)
	}
	return file.Clusters, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
