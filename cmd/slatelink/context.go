package main

import (
	"log/slog"
	"strings"
	"sync"

	"slatelink/internal/config"
	"slatelink/internal/engine"
	"slatelink/internal/journal"
	"slatelink/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	journalOnce sync.Once
	journal     *journal.Store
	journalErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: cfg.Logging.OutputPaths,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// ensureJournal opens the export journal when configured. A disabled journal
// yields a nil store, which every journal operation treats as a no-op.
func (c *commandContext) ensureJournal() (*journal.Store, error) {
	c.journalOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.journalErr = err
			return
		}
		if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
			return
		}
		c.journal, c.journalErr = journal.Open(cfg.Journal.Path, c.ensureLogger())
	})
	return c.journal, c.journalErr
}

func (c *commandContext) newEngine() (*engine.Engine, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := c.ensureJournal()
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, store, c.ensureLogger()), nil
}
