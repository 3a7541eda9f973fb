package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/promptdiscovery/catalog"
	"github.com/jonwraymond/promptdiscovery/history"
	"github.com/jonwraymond/promptdiscovery/recommend"
	"github.com/jonwraymond/promptdiscovery/search"
)

// ErrInvalidConfig reports a configuration that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PROMPTDISCOVERY_"

// History backends.
const (
	HistoryNone   = "none"
	HistoryMemory = "memory"
	HistoryBolt   = "bolt"
)

// Config holds all promptdiscovery configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server" json:"server"`
	Corpus    CorpusConfig     `yaml:"corpus" json:"corpus"`
	Search    SearchConfig     `yaml:"search" json:"search"`
	Recommend recommend.Config `yaml:"recommend" json:"recommend"`
	History   HistoryConfig    `yaml:"history" json:"history"`
	Cache     CacheConfig      `yaml:"cache" json:"cache"`
	Logging   LoggingConfig    `yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	Metrics         bool          `yaml:"metrics" json:"metrics"`
}

// CorpusConfig locates the prompt corpus.
type CorpusConfig struct {
	Path string `yaml:"path" json:"path"` // JSONL export
}

// SearchConfig configures BM25 ranking.
type SearchConfig struct {
	K1       float64             `yaml:"k1" json:"k1"`
	B        float64             `yaml:"b" json:"b"`
	Analyzer string              `yaml:"analyzer" json:"analyzer"` // standard, en
	Weights  search.FieldWeights `yaml:"weights" json:"weights"`
	Synonyms [][]string          `yaml:"synonyms" json:"synonyms"` // groups of equivalent terms
}

// HistoryConfig selects where user signals are stored.
type HistoryConfig struct {
	Backend    string `yaml:"backend" json:"backend"` // none, memory, bolt
	Path       string `yaml:"path" json:"path"`
	MaxHistory int    `yaml:"max_history" json:"max_history"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" json:"ttl"` // negative disables
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Search: SearchConfig{
			K1:       search.DefaultK1,
			B:        search.DefaultB,
			Analyzer: search.AnalyzerStandard,
			Weights: search.FieldWeights{
				Title:       search.DefaultTitleWeight,
				Description: search.DefaultDescriptionWeight,
				Tags:        search.DefaultTagsWeight,
				Content:     search.DefaultContentWeight,
			},
		},
		History: HistoryConfig{
			Backend:    HistoryMemory,
			MaxHistory: catalog.DefaultMaxHistory,
		},
		Cache: CacheConfig{
			TTL: catalog.DefaultCacheTTL,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadDotEnv loads environment variables from .env files. Variables that
// are already set are kept. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file, applies environment overrides
// and validates the result. An empty path or a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies PROMPTDISCOVERY_* environment variables.
func (c *Config) applyEnvOverrides(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	str("ADDR", &c.Server.Addr)
	str("CORPUS", &c.Corpus.Path)
	str("ANALYZER", &c.Search.Analyzer)
	str("HISTORY_BACKEND", &c.History.Backend)
	str("HISTORY_PATH", &c.History.Path)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v, ok := lookup(EnvPrefix + "CACHE_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sCACHE_TTL: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Cache.TTL = ttl
	}
	if v, ok := lookup(EnvPrefix + "METRICS"); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sMETRICS: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Server.Metrics = enabled
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required", ErrInvalidConfig)
	}
	if err := c.BM25().Validate(); err != nil {
		return fmt.Errorf("%w: search: %w", ErrInvalidConfig, err)
	}
	if _, err := search.NewTokenizer(c.Search.Analyzer); err != nil {
		return fmt.Errorf("%w: search: %w", ErrInvalidConfig, err)
	}
	if err := c.Recommend.Validate(); err != nil {
		return fmt.Errorf("%w: recommend: %w", ErrInvalidConfig, err)
	}

	switch strings.ToLower(c.History.Backend) {
	case "", HistoryNone, HistoryMemory:
	case HistoryBolt:
		if c.History.Path == "" {
			return fmt.Errorf("%w: history.path is required for the bolt backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown history backend %q (valid: none, memory, bolt)", ErrInvalidConfig, c.History.Backend)
	}
	if c.History.MaxHistory < 0 {
		return fmt.Errorf("%w: history.max_history must not be negative", ErrInvalidConfig)
	}

	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}

// BM25 converts the search section into a search.BM25Config.
func (c *Config) BM25() search.BM25Config {
	return search.BM25Config{
		K1:       c.Search.K1,
		B:        c.Search.B,
		Weights:  c.Search.Weights,
		Analyzer: c.Search.Analyzer,
		Synonyms: search.SynonymsFromGroups(c.Search.Synonyms),
	}
}

// CatalogOptions returns catalog options for the search, recommend, cache
// and history limits. Callers add the corpus, store, logger and metrics.
func (c *Config) CatalogOptions() catalog.Options {
	return catalog.Options{
		BM25:       c.BM25(),
		Recommend:  c.Recommend,
		CacheTTL:   c.Cache.TTL,
		MaxHistory: c.History.MaxHistory,
	}
}

// OpenHistory opens the configured history store. It returns nil for the
// none backend.
func (c *Config) OpenHistory() (history.Store, error) {
	switch strings.ToLower(c.History.Backend) {
	case HistoryBolt:
		if dir := filepath.Dir(c.History.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create history directory: %w", err)
			}
		}
		store, err := history.OpenBoltStore(c.History.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case HistoryNone:
		return nil, nil
	default:
		return history.NewInMemoryStore(), nil
	}
}
