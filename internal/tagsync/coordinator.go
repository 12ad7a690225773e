package tagsync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"arremsync/internal/logging"
	"arremsync/internal/services"
)

// MediaServerName is the service name used for the media server in
// connection reports.
const MediaServerName = "emby"

// Instance describes one configured Arr instance.
type Instance struct {
	Number    int
	Name      string
	ArrType   string
	BaseURL   string
	HasAPIKey bool
	Gateway   ArrGateway
}

// ServiceName returns the probe key, e.g. "radarr_1".
func (i Instance) ServiceName() string {
	return fmt.Sprintf("%s_%d", i.ArrType, i.Number)
}

// ServiceStatus is the probe result for one service.
type ServiceStatus struct {
	Service string `json:"service"`
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// StatusMap indexes statuses by service name.
func StatusMap(statuses []ServiceStatus) map[string]bool {
	out := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		out[status.Service] = status.OK
	}
	return out
}

// ConnectionError lists the services whose probe failed before a run.
type ConnectionError struct {
	Failed []string
}

func (e *ConnectionError) Error() string {
	return "connection tests failed for: " + strings.Join(e.Failed, ", ")
}

// Unwrap lets errors.Is match services.ErrUnavailable.
func (e *ConnectionError) Unwrap() error { return services.ErrUnavailable }

// InstanceResult is one instance's share of a Report. Stats is nil when the
// instance failed before producing statistics.
type InstanceResult struct {
	Number  int    `json:"instance_number"`
	Name    string `json:"instance_name"`
	ArrType string `json:"arr_type"`
	BaseURL string `json:"base_url"`
	Stats   *Stats `json:"stats,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Report aggregates a multi-instance run.
type Report struct {
	TotalInstances  int              `json:"total_instances"`
	FailedInstances int              `json:"failed_instances"`
	DryRun          bool             `json:"dry_run"`
	Instances       []InstanceResult `json:"instances"`
	Totals          Stats            `json:"totals"`
}

// Failed reports whether any item or instance failed.
func (r *Report) Failed() bool {
	return r.FailedInstances > 0 || r.Totals.FailedSyncs > 0
}

// Coordinator runs every Arr instance against one media server, sharing a
// single provider index across them.
type Coordinator struct {
	media     MediaGateway
	index     Index
	instances []Instance
	syncers   []*Syncer
	dryRun    bool
	batchSize int
	logger    *slog.Logger
}

// NewCoordinator builds one Syncer per instance. Instances with an
// unsupported Arr type are rejected.
func NewCoordinator(media MediaGateway, instances []Instance, opts ...Option) (*Coordinator, error) {
	o := buildOptions(opts)
	index := o.index
	if index == nil {
		index = NewProviderIndex(media, o.logger)
	}

	c := &Coordinator{
		media:     media,
		index:     index,
		instances: instances,
		dryRun:    o.dryRun,
		batchSize: o.batchSize,
		logger:    logging.NewComponentLogger(o.logger, "coordinator"),
	}
	for _, inst := range instances {
		kind, err := KindForArrType(inst.ArrType)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, inst.ServiceName(), "coordinator", "", err)
		}
		c.syncers = append(c.syncers, NewSyncer(inst.ServiceName(), kind, inst.Gateway, media, index, opts...))
	}
	return c, nil
}

// Instances returns the configured instances.
func (c *Coordinator) Instances() []Instance {
	return append([]Instance(nil), c.instances...)
}

// TestConnections probes the media server once and every instance once, in
// configuration order.
func (c *Coordinator) TestConnections(ctx context.Context) []ServiceStatus {
	statuses := make([]ServiceStatus, 0, len(c.instances)+1)
	statuses = append(statuses, probeStatus(ctx, MediaServerName, "Emby", c.media.Probe))
	for _, inst := range c.instances {
		statuses = append(statuses, probeStatus(ctx, inst.ServiceName(), inst.Name, inst.Gateway.Probe))
	}
	return statuses
}

func probeStatus(ctx context.Context, service, name string, probe func(context.Context) error) ServiceStatus {
	status := ServiceStatus{Service: service, Name: name, OK: true}
	if err := probe(ctx); err != nil {
		status.OK = false
		status.Error = err.Error()
	}
	return status
}

// SyncAll probes every service once and aborts with a *ConnectionError if
// any probe fails. Otherwise it syncs each instance in order without
// probing again. An instance that
// fails is recorded in the report and the remaining instances still run.
// A non-positive batchSize uses the configured default.
func (c *Coordinator) SyncAll(ctx context.Context, batchSize int) (*Report, error) {
	if batchSize <= 0 {
		batchSize = c.batchSize
	}
	logger := logging.WithContext(ctx, c.logger)

	var failed []string
	for _, status := range c.TestConnections(ctx) {
		if !status.OK {
			failed = append(failed, status.Service)
			logger.Error("connection test failed",
				logging.String("service", status.Service),
				logging.String("error", status.Error),
			)
		}
	}
	if len(failed) > 0 {
		return nil, &ConnectionError{Failed: failed}
	}

	report := &Report{TotalInstances: len(c.instances), DryRun: c.dryRun, Instances: []InstanceResult{}, Totals: Stats{Errors: []string{}}}
	for i, inst := range c.instances {
		result := InstanceResult{
			Number:  inst.Number,
			Name:    inst.Name,
			ArrType: inst.ArrType,
			BaseURL: inst.BaseURL,
		}
		logger.Info("syncing instance",
			logging.String(logging.FieldInstance, inst.ServiceName()),
			logging.String("name", inst.Name),
		)
		stats, err := c.syncers[i].run(ctx, batchSize, false)
		if err != nil {
			result.Error = err.Error()
			report.FailedInstances++
			report.Totals.Errors = append(report.Totals.Errors, fmt.Sprintf("Failed to sync %s: %v", inst.Name, err))
			logger.Error("instance sync failed",
				append([]any{logging.String(logging.FieldInstance, inst.ServiceName())}, logging.ErrorAttrs(err)...)...,
			)
			if stats != nil {
				result.Stats = stats
				report.Totals.Add(*stats)
			}
		} else {
			result.Stats = stats
			report.Totals.Add(*stats)
		}
		report.Instances = append(report.Instances, result)
	}
	return report, nil
}

// Reset clears the shared provider index and every instance's tag cache.
func (c *Coordinator) Reset() {
	c.index.Reset()
	for _, s := range c.syncers {
		s.Reset()
	}
}
