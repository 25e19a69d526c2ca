package config

import "strings"

func (c *Config) normalize() error {
	expanded, err := expandPath(c.Journal.Path)
	if err != nil {
		return err
	}
	c.Journal.Path = expanded

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	c.Matching.JoinKey = strings.TrimSpace(c.Matching.JoinKey)
	if len(c.Matching.JoinPriority) == 0 {
		c.Matching.JoinPriority = append([]string(nil), defaultJoinPriority...)
	} else {
		trimmed := make([]string, 0, len(c.Matching.JoinPriority))
		for _, name := range c.Matching.JoinPriority {
			if name = strings.TrimSpace(name); name != "" {
				trimmed = append(trimmed, name)
			}
		}
		c.Matching.JoinPriority = trimmed
	}

	if c.Overlay.MaxRows <= 0 {
		c.Overlay.MaxRows = defaultMaxRows
	}
	return nil
}
