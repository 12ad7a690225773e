package config

import "strings"

func (c *Config) normalize() error {
	c.normalizeEmby()
	c.normalizeArr()
	c.normalizeLogging()
	if err := c.normalizeSync(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeEmby() {
	c.Emby.URL = trimURL(c.Emby.URL)
	c.Emby.APIKey = strings.TrimSpace(c.Emby.APIKey)
}

func (c *Config) normalizeArr() {
	for i := range c.Arr {
		inst := &c.Arr[i]
		inst.Type = strings.ToLower(strings.TrimSpace(inst.Type))
		inst.URL = trimURL(inst.URL)
		inst.APIKey = strings.TrimSpace(inst.APIKey)
		inst.Name = strings.TrimSpace(inst.Name)
	}
}

func (c *Config) normalizeSync() error {
	if strings.TrimSpace(c.Sync.LockPath) == "" {
		c.Sync.LockPath = defaultLockPath
	}
	expanded, err := expandPath(c.Sync.LockPath)
	if err != nil {
		return err
	}
	c.Sync.LockPath = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func trimURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

// OverrideLogging replaces the log level and format when non-empty and
// re-validates the logging section.
func (c *Config) OverrideLogging(level, format string) error {
	if strings.TrimSpace(level) != "" {
		c.Logging.Level = level
	}
	if strings.TrimSpace(format) != "" {
		c.Logging.Format = format
	}
	c.normalizeLogging()
	return c.validateLogging()
}
