package testsupport

import (
	"path/filepath"
	"testing"

	"slatelink/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config with repository defaults and a per-test
// journal path, leaving the journal disabled unless an option enables it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "journal.db")
	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithJournal enables the export journal on the test config.
func WithJournal() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Journal.Enabled = true
	}
}

// WithJoinKey forces an explicit join key, bypassing detection.
func WithJoinKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Matching.JoinKey = key
	}
}

// WithFuzzyThreshold overrides the fuzzy acceptance threshold.
func WithFuzzyThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Matching.FuzzyThreshold = threshold
	}
}
