// Package emby is the media server gateway: library listings with provider
// IDs and tags, additive tag writes, and a connectivity probe.
package emby

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"arremsync/internal/logging"
	"arremsync/internal/services"
	"arremsync/internal/tagsync"
)

const (
	clientName = "arremsync"

	defaultProbeTimeout   = 10 * time.Second
	defaultListingTimeout = 30 * time.Second
	defaultWriteTimeout   = 10 * time.Second

	listFields = "Tags,Path,ProviderIds"
)

// HTTPDoer describes the HTTP client used by the Emby gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the Emby endpoint and per-call timeouts. Zero timeouts fall
// back to package defaults.
type Config struct {
	BaseURL        string
	APIKey         string
	ProbeTimeout   time.Duration
	ListingTimeout time.Duration
	WriteTimeout   time.Duration
}

// SystemInfo is the subset of /System/Info the probe reports.
type SystemInfo struct {
	ServerName string `json:"ServerName"`
	Version    string `json:"Version"`
	ID         string `json:"Id"`
}

// Client talks to the Emby REST API.
type Client struct {
	cfg     Config
	baseURL string
	http    HTTPDoer
	breaker *breaker
	logger  *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "emby")
	}
}

// WithBreaker trips the circuit after failures consecutive failed calls and
// keeps it open for openFor.
func WithBreaker(failures int, openFor time.Duration) Option {
	return func(c *Client) {
		c.breaker = newBreaker(failures, openFor, c)
	}
}

// New returns an Emby client for cfg.
func New(cfg Config, opts ...Option) *Client {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.ListingTimeout <= 0 {
		cfg.ListingTimeout = defaultListingTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	c := &Client{
		cfg:     cfg,
		baseURL: apiRoot(cfg.BaseURL),
		http:    http.DefaultClient,
		logger:  logging.NewComponentLogger(nil, "emby"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.breaker == nil {
		c.breaker = newBreaker(defaultBreakerFailures, defaultBreakerOpen, c)
	}
	return c
}

// apiRoot returns the base URL with a single trailing /emby segment.
func apiRoot(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(strings.ToLower(base), "/emby") {
		return base
	}
	return base + "/emby"
}

// Info fetches server identification from /System/Info.
func (c *Client) Info(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	err := c.breaker.run(func() error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
		defer cancel()
		return c.getJSON(ctx, "probe", "/System/Info", nil, &info)
	})
	return info, err
}

// Probe checks that Emby is reachable and the API key is accepted.
func (c *Client) Probe(ctx context.Context) error {
	info, err := c.Info(ctx)
	if err != nil {
		return err
	}
	logging.WithContext(ctx, c.logger).Info("connected to emby",
		logging.String("server", info.ServerName),
		logging.String("version", info.Version),
	)
	return nil
}

// ListMovies returns every movie in the library.
func (c *Client) ListMovies(ctx context.Context) ([]tagsync.MediaItem, error) {
	return c.listItems(ctx, tagsync.KindMovie)
}

// ListSeries returns every series in the library.
func (c *Client) ListSeries(ctx context.Context) ([]tagsync.MediaItem, error) {
	return c.listItems(ctx, tagsync.KindSeries)
}

type itemsResponse struct {
	Items            []itemDTO `json:"Items"`
	TotalRecordCount int       `json:"TotalRecordCount"`
}

type itemDTO struct {
	ID          string            `json:"Id"`
	Name        string            `json:"Name"`
	Type        string            `json:"Type"`
	Tags        []string          `json:"Tags"`
	TagItems    []nameRef         `json:"TagItems"`
	ProviderIDs map[string]string `json:"ProviderIds"`
}

type nameRef struct {
	Name string `json:"Name"`
}

func (c *Client) listItems(ctx context.Context, kind tagsync.Kind) ([]tagsync.MediaItem, error) {
	query := url.Values{}
	query.Set("IncludeItemTypes", string(kind))
	query.Set("Recursive", "true")
	query.Set("Fields", listFields)

	var payload itemsResponse
	err := c.breaker.run(func() error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.ListingTimeout)
		defer cancel()
		return c.getJSON(ctx, "list "+strings.ToLower(string(kind)), "/Items", query, &payload)
	})
	if err != nil {
		return nil, err
	}

	items := make([]tagsync.MediaItem, 0, len(payload.Items))
	for _, dto := range payload.Items {
		items = append(items, dto.toMediaItem(kind))
	}
	logging.WithContext(ctx, c.logger).Info("library listed",
		logging.String("kind", string(kind)),
		logging.Int("items", len(items)),
	)
	return items, nil
}

func (d itemDTO) toMediaItem(requested tagsync.Kind) tagsync.MediaItem {
	kind := tagsync.Kind(d.Type)
	if kind == "" {
		kind = requested
	}
	tags := tagsync.NewTagSet(d.Tags...)
	for _, ref := range d.TagItems {
		if name := strings.TrimSpace(ref.Name); name != "" {
			tags[name] = struct{}{}
		}
	}
	return tagsync.MediaItem{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        kind,
		ProviderIDs: d.ProviderIDs,
		Tags:        tags,
	}
}

type addTagsRequest struct {
	Tags []nameRef `json:"Tags"`
}

// AddTags adds tags to an item. Emby ignores tags the item already has.
// An empty tag list is a no-op.
func (c *Client) AddTags(ctx context.Context, itemID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	body := addTagsRequest{Tags: make([]nameRef, 0, len(tags))}
	for _, tag := range tags {
		body.Tags = append(body.Tags, nameRef{Name: tag})
	}
	data, err := json.Marshal(body)
	if err != nil {
		return services.Wrap(services.ErrDecode, "emby", "add tags", "encode body", err)
	}

	return c.breaker.run(func() error {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()

		endpoint := c.baseURL + "/Items/" + url.PathEscape(itemID) + "/Tags/Add"
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "emby", "add tags", "build request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.do(req, "add tags")
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}

func (c *Client) getJSON(ctx context.Context, operation, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "emby", operation, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req, operation)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrDecode, "emby", operation, "decode response", err)
	}
	return nil
}

// do sends req with auth headers and maps failures onto service markers.
// The caller owns the body of a successful response.
func (c *Client) do(req *http.Request, operation string) (*http.Response, error) {
	req.Header.Set("X-Emby-Token", c.cfg.APIKey)
	req.Header.Set("X-Emby-Client", clientName)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "emby", operation, "request timed out", err)
		}
		return nil, services.Wrap(services.ErrUnavailable, "emby", operation, "request failed", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, statusError(operation, resp.StatusCode, snippet)
	}
	return resp, nil
}

func statusError(operation string, status int, body []byte) error {
	detail := fmt.Sprintf("status %d", status)
	if text := strings.TrimSpace(string(body)); text != "" {
		detail += ": " + text
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrRejected, "emby", operation, "authentication failed", errors.New(detail))
	case status == http.StatusNotFound:
		return services.Wrap(services.ErrRejected, "emby", operation, "not found", errors.New(detail))
	case status >= http.StatusInternalServerError:
		return services.Wrap(services.ErrUnavailable, "emby", operation, "server error", errors.New(detail))
	default:
		return services.Wrap(services.ErrRejected, "emby", operation, "unexpected response", errors.New(detail))
	}
}
