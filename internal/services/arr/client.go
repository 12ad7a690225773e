// Package arr is the Radarr/Sonarr gateway built on golift.io/starr.
package arr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golift.io/starr"
	"golift.io/starr/radarr"
	"golift.io/starr/sonarr"

	"arremsync/internal/logging"
	"arremsync/internal/services"
	"arremsync/internal/tagsync"
)

const (
	defaultProbeTimeout   = 10 * time.Second
	defaultTagsTimeout    = 15 * time.Second
	defaultListingTimeout = 30 * time.Second
)

// Config identifies one Arr instance. Zero timeouts fall back to package
// defaults.
type Config struct {
	Type           string
	URL            string
	APIKey         string
	ProbeTimeout   time.Duration
	TagsTimeout    time.Duration
	ListingTimeout time.Duration
}

// backend hides the radarr/sonarr API differences.
type backend interface {
	version(ctx context.Context) (string, error)
	tags(ctx context.Context) ([]*starr.Tag, error)
	items(ctx context.Context) ([]tagsync.ArrItem, error)
}

// Client implements tagsync.ArrGateway for one instance.
type Client struct {
	cfg     Config
	kind    tagsync.Kind
	backend backend
	logger  *slog.Logger
}

// New returns a client for cfg. httpClient may be nil, in which case starr's
// default client is used. Types other than radarr and sonarr are rejected.
func New(cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	kind, err := tagsync.KindForArrType(cfg.Type)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "arr", "new client", "", err)
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.TagsTimeout <= 0 {
		cfg.TagsTimeout = defaultTagsTimeout
	}
	if cfg.ListingTimeout <= 0 {
		cfg.ListingTimeout = defaultListingTimeout
	}

	starrCfg := &starr.Config{URL: cfg.URL, APIKey: cfg.APIKey, Client: httpClient}
	if starrCfg.Client == nil {
		starrCfg.Client = &http.Client{Timeout: cfg.ListingTimeout}
	}

	c := &Client{cfg: cfg, kind: kind, logger: logging.NewComponentLogger(logger, "arr")}
	switch kind {
	case tagsync.KindMovie:
		c.backend = radarrBackend{client: radarr.New(starrCfg)}
	default:
		c.backend = sonarrBackend{client: sonarr.New(starrCfg)}
	}
	return c, nil
}

// Kind returns the media server kind this instance maps onto.
func (c *Client) Kind() tagsync.Kind { return c.kind }

// BaseURL returns the configured instance URL.
func (c *Client) BaseURL() string { return c.cfg.URL }

// Probe checks the instance answers /api/v3/system/status with the API key.
func (c *Client) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	version, err := c.backend.version(ctx)
	if err != nil {
		return c.wrap("probe", err)
	}
	logging.WithContext(ctx, c.logger).Info("connected to arr",
		logging.String("type", c.cfg.Type),
		logging.String("url", c.cfg.URL),
		logging.String("version", version),
	)
	return nil
}

// ListTags returns the instance's tag definitions.
func (c *Client) ListTags(ctx context.Context) ([]tagsync.ArrTag, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TagsTimeout)
	defer cancel()

	raw, err := c.backend.tags(ctx)
	if err != nil {
		return nil, c.wrap("list tags", err)
	}
	tags := make([]tagsync.ArrTag, 0, len(raw))
	for _, tag := range raw {
		if tag == nil {
			continue
		}
		tags = append(tags, tagsync.ArrTag{ID: tag.ID, Label: tag.Label})
	}
	return tags, nil
}

// ListItems returns every movie (radarr) or series (sonarr).
func (c *Client) ListItems(ctx context.Context) ([]tagsync.ArrItem, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ListingTimeout)
	defer cancel()

	items, err := c.backend.items(ctx)
	if err != nil {
		return nil, c.wrap("list items", err)
	}
	logging.WithContext(ctx, c.logger).Info("arr library listed",
		logging.String("type", c.cfg.Type),
		logging.Int("items", len(items)),
	)
	return items, nil
}

func (c *Client) wrap(operation string, err error) error {
	component := fmt.Sprintf("%s %s", c.cfg.Type, c.cfg.URL)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, operation, "request timed out", err)
	case errors.Is(err, starr.ErrInvalidStatusCode):
		return services.Wrap(services.ErrRejected, component, operation, "unexpected response", err)
	default:
		return services.Wrap(services.ErrUnavailable, component, operation, "request failed", err)
	}
}

type radarrBackend struct {
	client *radarr.Radarr
}

func (b radarrBackend) version(ctx context.Context) (string, error) {
	status, err := b.client.GetSystemStatusContext(ctx)
	if err != nil {
		return "", err
	}
	return status.Version, nil
}

func (b radarrBackend) tags(ctx context.Context) ([]*starr.Tag, error) {
	return b.client.GetTagsContext(ctx)
}

func (b radarrBackend) items(ctx context.Context) ([]tagsync.ArrItem, error) {
	movies, err := b.client.GetMovieContext(ctx, 0)
	if err != nil {
		return nil, err
	}
	items := make([]tagsync.ArrItem, 0, len(movies))
	for _, m := range movies {
		if m == nil {
			continue
		}
		items = append(items, tagsync.ArrItem{
			ID:     m.ID,
			Title:  m.Title,
			TMDbID: m.TmdbID,
			IMDbID: m.ImdbID,
			TagIDs: m.Tags,
		})
	}
	return items, nil
}

type sonarrBackend struct {
	client *sonarr.Sonarr
}

// seriesRecord is decoded directly so tmdbId is read alongside tvdbId.
type seriesRecord struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	TvdbID int64  `json:"tvdbId"`
	TmdbID int64  `json:"tmdbId"`
	ImdbID string `json:"imdbId"`
	Tags   []int  `json:"tags"`
}

func (b sonarrBackend) version(ctx context.Context) (string, error) {
	status, err := b.client.GetSystemStatusContext(ctx)
	if err != nil {
		return "", err
	}
	return status.Version, nil
}

func (b sonarrBackend) tags(ctx context.Context) ([]*starr.Tag, error) {
	return b.client.GetTagsContext(ctx)
}

func (b sonarrBackend) items(ctx context.Context) ([]tagsync.ArrItem, error) {
	var records []seriesRecord
	if err := b.client.GetInto(ctx, starr.Request{URI: "v3/series"}, &records); err != nil {
		return nil, err
	}
	items := make([]tagsync.ArrItem, 0, len(records))
	for _, s := range records {
		items = append(items, tagsync.ArrItem{
			ID:     s.ID,
			Title:  s.Title,
			TMDbID: s.TmdbID,
			IMDbID: s.ImdbID,
			TVDbID: s.TvdbID,
			TagIDs: s.Tags,
		})
	}
	return items, nil
}
