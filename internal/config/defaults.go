package config

const (
	defaultDryRun    = true
	defaultBatchSize = 50
	defaultLockPath  = "~/.local/state/arremsync/sync.lock"

	defaultProbeTimeoutSeconds   = 10
	defaultTagsTimeoutSeconds    = 15
	defaultListingTimeoutSeconds = 30
	defaultWriteTimeoutSeconds   = 10
	defaultMaxRetries            = 3
	defaultRetryBackoffSeconds   = 1.0
	defaultMaxBackoffSeconds     = 10.0
	defaultBreakerFailures       = 5
	defaultBreakerOpenSeconds    = 30

	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	defaultLogMaxSizeMB  = 10
	defaultLogMaxBackups = 5
	defaultLogMaxAgeDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Sync: Sync{
			DryRun:    defaultDryRun,
			BatchSize: defaultBatchSize,
			LockPath:  defaultLockPath,
		},
		HTTP: HTTP{
			ProbeTimeoutSeconds:   defaultProbeTimeoutSeconds,
			TagsTimeoutSeconds:    defaultTagsTimeoutSeconds,
			ListingTimeoutSeconds: defaultListingTimeoutSeconds,
			WriteTimeoutSeconds:   defaultWriteTimeoutSeconds,
			MaxRetries:            defaultMaxRetries,
			RetryBackoffSeconds:   defaultRetryBackoffSeconds,
			MaxBackoffSeconds:     defaultMaxBackoffSeconds,
			BreakerFailures:       defaultBreakerFailures,
			BreakerOpenSeconds:    defaultBreakerOpenSeconds,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			Format:     defaultLogFormat,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
			Compress:   true,
		},
	}
}
