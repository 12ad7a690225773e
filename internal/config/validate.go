package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEmby(); err != nil {
		return err
	}
	if err := c.validateArr(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEmby() error {
	if c.Emby.URL == "" {
		return errors.New("emby.url must be set (or ARREM_EMBY_URL)")
	}
	if !strings.HasPrefix(c.Emby.URL, "http://") && !strings.HasPrefix(c.Emby.URL, "https://") {
		return fmt.Errorf("emby.url must start with http:// or https://, got %q", c.Emby.URL)
	}
	if c.Emby.APIKey == "" {
		return errors.New("emby.api_key must be set (or ARREM_EMBY_API_KEY)")
	}
	return nil
}

func (c *Config) validateArr() error {
	if len(c.Arr) == 0 {
		return errors.New("no arr instances configured; add [[arr]] tables or ARREM_ARR_1_TYPE, ARREM_ARR_1_URL and ARREM_ARR_1_API_KEY")
	}
	for i, inst := range c.Arr {
		if err := structValidator().Struct(inst); err != nil {
			return describeInstanceError(i, err)
		}
	}
	return nil
}

func describeInstanceError(index int, err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("arr[%d]: %w", index, err)
	}
	fe := fieldErrs[0]
	key := tomlKey(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("arr[%d].%s must be set", index, key)
	case "oneof":
		return fmt.Errorf("arr[%d].%s must be one of %s, got %q", index, key, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "http_url":
		return fmt.Errorf("arr[%d].%s must be an http(s) URL, got %q", index, key, fe.Value())
	default:
		return fmt.Errorf("arr[%d].%s failed %s validation", index, key, fe.Tag())
	}
}

func tomlKey(field string) string {
	switch field {
	case "APIKey":
		return "api_key"
	default:
		return strings.ToLower(field)
	}
}

func (c *Config) validateSync() error {
	if c.Sync.BatchSize <= 0 {
		return errors.New("sync.batch_size must be positive")
	}
	return nil
}

func (c *Config) validateHTTP() error {
	timeouts := map[string]int{
		"http.probe_timeout_seconds":   c.HTTP.ProbeTimeoutSeconds,
		"http.tags_timeout_seconds":    c.HTTP.TagsTimeoutSeconds,
		"http.listing_timeout_seconds": c.HTTP.ListingTimeoutSeconds,
		"http.write_timeout_seconds":   c.HTTP.WriteTimeoutSeconds,
		"http.breaker_open_seconds":    c.HTTP.BreakerOpenSeconds,
		"http.breaker_failures":        c.HTTP.BreakerFailures,
	}
	if err := ensurePositiveMap(timeouts); err != nil {
		return err
	}
	if c.HTTP.MaxRetries < 0 {
		return errors.New("http.max_retries must be zero or positive")
	}
	if c.HTTP.RetryBackoffSeconds < 0 || c.HTTP.MaxBackoffSeconds < 0 {
		return errors.New("http.retry_backoff_seconds and http.max_backoff_seconds must not be negative")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return errors.New("http.requests_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error", "critical":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warning, error, critical, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation values must not be negative")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
