package config

import (
	"fmt"
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ARREM_"

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(value), true
	}

	if value, ok := get("EMBY_URL"); ok && value != "" {
		c.Emby.URL = value
	}
	if value, ok := get("EMBY_API_KEY"); ok && value != "" {
		c.Emby.APIKey = value
	}
	if value, ok := get("DRY_RUN"); ok {
		c.Sync.DryRun = ParseBool(value)
	}
	if value, ok := get("BATCH_SIZE"); ok && value != "" {
		size, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%sBATCH_SIZE must be an integer: %w", EnvPrefix, err)
		}
		c.Sync.BatchSize = size
	}
	if value, ok := get("LOG_LEVEL"); ok && value != "" {
		c.Logging.Level = value
	}
	if value, ok := get("LOG_FORMAT"); ok && value != "" {
		c.Logging.Format = value
	}
	if value, ok := get("LOG_FILE"); ok && value != "" {
		c.Logging.File = value
	}

	if numbered := numberedInstances(get); len(numbered) > 0 {
		c.Arr = numbered
	}
	return nil
}

// numberedInstances reads ARR_1_*, ARR_2_*, ... and stops at the first index
// missing a type, url, or api key. Later indexes are never scanned.
func numberedInstances(get func(string) (string, bool)) []ArrInstance {
	var instances []ArrInstance
	for n := 1; ; n++ {
		prefix := fmt.Sprintf("ARR_%d_", n)
		arrType, _ := get(prefix + "TYPE")
		url, _ := get(prefix + "URL")
		apiKey, _ := get(prefix + "API_KEY")
		if arrType == "" || url == "" || apiKey == "" {
			return instances
		}
		name, _ := get(prefix + "NAME")
		instances = append(instances, ArrInstance{
			Type:   arrType,
			URL:    url,
			APIKey: apiKey,
			Name:   name,
		})
	}
}

// ParseBool coerces common truthy spellings. true, 1, yes and on are true;
// everything else, including unrecognised values, is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
