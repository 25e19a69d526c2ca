package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateOverlay(); err != nil {
		return err
	}
	if err := c.validateJournal(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateMatching() error {
	if c.Matching.FuzzyThreshold <= 0 || c.Matching.FuzzyThreshold > 1 {
		return errors.New("matching.fuzzy_threshold must be in (0, 1]")
	}
	if c.Matching.FuzzyTieMargin < 0 || c.Matching.FuzzyTieMargin >= 1 {
		return errors.New("matching.fuzzy_tie_margin must be in [0, 1)")
	}
	if len(c.Matching.JoinPriority) == 0 {
		return errors.New("matching.join_priority must not be empty")
	}
	return nil
}

func (c *Config) validateOverlay() error {
	if c.Overlay.SafeMarginPct < 0 || c.Overlay.SafeMarginPct >= 50 {
		return errors.New("overlay.safe_margin_pct must be in [0, 50)")
	}
	if c.Overlay.SnapPct <= 0 || c.Overlay.SnapPct > 25 {
		return errors.New("overlay.snap_pct must be in (0, 25]")
	}
	if c.Overlay.CornerSizePct <= 0 || c.Overlay.CornerSizePct > 50 {
		return errors.New("overlay.corner_size_pct must be in (0, 50]")
	}
	if c.Overlay.MaxRows < 1 {
		return errors.New("overlay.max_rows must be at least 1")
	}
	return nil
}

func (c *Config) validateJournal() error {
	if c.Journal.Enabled && c.Journal.Path == "" {
		return errors.New("journal.path must be set when journal.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
}
