package main

import (
	"log/slog"
	"net/http"

	"arremsync/internal/config"
	"arremsync/internal/services/arr"
	"arremsync/internal/services/emby"
	"arremsync/internal/services/httpx"
	"arremsync/internal/tagsync"
)

// newHTTPClient returns a retrying client. Each service gets its own so the
// rate limit applies per host.
func newHTTPClient(cfg *config.Config, logger *slog.Logger) *http.Client {
	return httpx.NewClient(httpx.Options{
		MaxRetries:        cfg.HTTP.MaxRetries,
		Backoff:           cfg.HTTP.RetryBackoff(),
		MaxBackoff:        cfg.HTTP.MaxBackoff(),
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Logger:            logger,
	})
}

func newEmbyClient(cfg *config.Config, logger *slog.Logger) *emby.Client {
	return emby.New(emby.Config{
		BaseURL:        cfg.Emby.URL,
		APIKey:         cfg.Emby.APIKey,
		ProbeTimeout:   cfg.HTTP.ProbeTimeout(),
		ListingTimeout: cfg.HTTP.ListingTimeout(),
		WriteTimeout:   cfg.HTTP.WriteTimeout(),
	},
		emby.WithHTTPClient(newHTTPClient(cfg, logger)),
		emby.WithLogger(logger),
		emby.WithBreaker(cfg.HTTP.BreakerFailures, cfg.HTTP.BreakerOpen()),
	)
}

func buildInstances(cfg *config.Config, logger *slog.Logger) ([]tagsync.Instance, error) {
	instances := make([]tagsync.Instance, 0, len(cfg.Arr))
	for i, a := range cfg.Arr {
		number := i + 1
		client, err := arr.New(arr.Config{
			Type:           a.Type,
			URL:            a.URL,
			APIKey:         a.APIKey,
			ProbeTimeout:   cfg.HTTP.ProbeTimeout(),
			TagsTimeout:    cfg.HTTP.TagsTimeout(),
			ListingTimeout: cfg.HTTP.ListingTimeout(),
		}, newHTTPClient(cfg, logger), logger)
		if err != nil {
			return nil, err
		}
		instances = append(instances, tagsync.Instance{
			Number:    number,
			Name:      a.DisplayName(number),
			ArrType:   a.Type,
			BaseURL:   a.URL,
			HasAPIKey: a.APIKey != "",
			Gateway:   client,
		})
	}
	return instances, nil
}

func buildCoordinator(cfg *config.Config, logger *slog.Logger, dryRun bool) (*tagsync.Coordinator, error) {
	instances, err := buildInstances(cfg, logger)
	if err != nil {
		return nil, err
	}
	return tagsync.NewCoordinator(newEmbyClient(cfg, logger), instances,
		tagsync.WithDryRun(dryRun),
		tagsync.WithBatchSize(cfg.Sync.BatchSize),
		tagsync.WithLogger(logger),
	)
}
