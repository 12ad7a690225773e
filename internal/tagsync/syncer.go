package tagsync

import (
	"context"
	"fmt"
	"log/slog"

	"arremsync/internal/logging"
	"arremsync/internal/services"
)

// DefaultBatchSize is used when a non-positive batch size is requested.
const DefaultBatchSize = 50

// Phase is a Syncer's position in its run.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseProbe
	PhaseWarm
	PhaseProcess
	PhaseDone
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseProbe:
		return "probe"
	case PhaseWarm:
		return "warm"
	case PhaseProcess:
		return "process"
	case PhaseDone:
		return "done"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Option customizes a Syncer or Coordinator.
type Option func(*options)

type options struct {
	dryRun    bool
	batchSize int
	logger    *slog.Logger
	index     Index
	observer  func(Outcome)
}

func buildOptions(opts []Option) options {
	o := options{batchSize: DefaultBatchSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	return o
}

// WithDryRun skips media server writes.
func WithDryRun(dryRun bool) Option {
	return func(o *options) { o.dryRun = dryRun }
}

// WithBatchSize sets the default batch size for runs.
func WithBatchSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.batchSize = size
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithIndex replaces the ProviderIndex a Coordinator would build.
func WithIndex(index Index) Option {
	return func(o *options) { o.index = index }
}

// WithObserver registers a callback invoked for every recorded outcome.
func WithObserver(fn func(Outcome)) Option {
	return func(o *options) { o.observer = fn }
}

// Syncer drives one Arr instance through probe, warm and batch processing.
type Syncer struct {
	name       string
	kind       Kind
	arr        ArrGateway
	media      MediaGateway
	index      Index
	resolver   *TagResolver
	matcher    *Matcher
	reconciler *Reconciler
	batchSize  int
	observer   func(Outcome)
	logger     *slog.Logger
	phase      Phase
}

// NewSyncer builds a Syncer for the Arr instance called name.
func NewSyncer(name string, kind Kind, arr ArrGateway, media MediaGateway, index Index, opts ...Option) *Syncer {
	o := buildOptions(opts)
	return &Syncer{
		name:       name,
		kind:       kind,
		arr:        arr,
		media:      media,
		index:      index,
		resolver:   NewTagResolver(arr),
		matcher:    NewMatcher(index, kind),
		reconciler: NewReconciler(media, o.dryRun),
		batchSize:  o.batchSize,
		observer:   o.observer,
		logger:     logging.NewComponentLogger(o.logger, "sync"),
	}
}

// Phase returns the current run phase.
func (s *Syncer) Phase() Phase { return s.phase }

// Kind returns the media server kind this instance syncs.
func (s *Syncer) Kind() Kind { return s.kind }

// Reset clears the instance's tag cache.
func (s *Syncer) Reset() { s.resolver.Reset() }

// Run syncs every item of the instance. A probe failure aborts with an
// error wrapping services.ErrUnavailable and no stats. Listing failures end
// the run with an error. Per-item failures are recorded in the returned
// Stats. A non-positive batchSize uses the configured default.
func (s *Syncer) Run(ctx context.Context, batchSize int) (*Stats, error) {
	return s.run(ctx, batchSize, true)
}

// run skips the probe phase when probe is false; the Coordinator has already
// probed every service before starting instances.
func (s *Syncer) run(ctx context.Context, batchSize int, probe bool) (*Stats, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}
	ctx = services.WithInstance(ctx, s.name)
	logger := logging.WithContext(ctx, s.logger)

	if probe {
		s.phase = PhaseProbe
		if err := s.probe(ctx); err != nil {
			s.phase = PhaseAborted
			return nil, err
		}
	}

	s.phase = PhaseWarm
	items, err := s.warm(ctx)
	if err != nil {
		s.phase = PhaseAborted
		return nil, err
	}

	s.phase = PhaseProcess
	stats := &Stats{TotalItems: len(items), Errors: []string{}}
	batches := (len(items) + batchSize - 1) / batchSize
	logger.Info("sync started",
		logging.Int("items", len(items)),
		logging.Int("batches", batches),
		logging.Bool("dry_run", s.reconciler.DryRun()),
	)
	for start, batch := 0, 1; start < len(items); start, batch = start+batchSize, batch+1 {
		if err := ctx.Err(); err != nil {
			s.phase = PhaseAborted
			return stats, err
		}
		end := min(start+batchSize, len(items))
		logger.Debug("processing batch",
			logging.Int("batch", batch),
			logging.Int("batches", batches),
			logging.Int("size", end-start),
		)
		for _, item := range items[start:end] {
			s.processItem(ctx, logger, item, stats)
		}
	}

	s.phase = PhaseDone
	logger.Info("sync finished",
		logging.Int("processed", stats.ProcessedItems),
		logging.Int("updated", stats.SuccessfulSyncs),
		logging.Int("already_synced", stats.AlreadySynced),
		logging.Int("not_in_emby", stats.NotInMediaServer),
		logging.Int("failed", stats.FailedSyncs),
	)
	return stats, nil
}

func (s *Syncer) probe(ctx context.Context) error {
	if err := s.media.Probe(ctx); err != nil {
		return services.Wrap(services.ErrUnavailable, s.name, "probe", "emby unreachable", err)
	}
	if err := s.arr.Probe(ctx); err != nil {
		return services.Wrap(services.ErrUnavailable, s.name, "probe", "arr unreachable", err)
	}
	return nil
}

func (s *Syncer) warm(ctx context.Context) ([]ArrItem, error) {
	if err := s.index.Warm(ctx, s.kind); err != nil {
		return nil, err
	}
	if _, err := s.resolver.Mapping(ctx); err != nil {
		return nil, err
	}
	items, err := s.arr.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list arr items: %w", err)
	}
	return items, nil
}

func (s *Syncer) processItem(ctx context.Context, logger *slog.Logger, item ArrItem, stats *Stats) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			stats.RecordItemError(item.Title, err)
			logger.Error("item sync panicked", logging.String("title", item.Title), logging.Error(err))
		}
	}()

	outcome, err := s.syncItem(ctx, item)
	if err != nil {
		stats.RecordItemError(item.Title, err)
		logger.Warn("item sync failed", append([]any{logging.String("title", item.Title)}, logging.ErrorAttrs(err)...)...)
		return
	}
	outcome.Title = item.Title
	stats.Record(outcome)
	s.logOutcome(logger, outcome)
	if s.observer != nil {
		s.observer(outcome)
	}
}

func (s *Syncer) syncItem(ctx context.Context, item ArrItem) (Outcome, error) {
	match, err := s.matcher.Match(ctx, item)
	if err != nil {
		return Outcome{}, fmt.Errorf("match: %w", err)
	}
	if !match.Found() {
		return Outcome{Kind: OutcomeNotInMediaServer}, nil
	}
	labels, err := s.resolver.Labels(ctx, item.TagIDs)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve tags: %w", err)
	}
	return s.reconciler.Reconcile(ctx, match.Item, labels), nil
}

func (s *Syncer) logOutcome(logger *slog.Logger, o Outcome) {
	title := logging.String("title", o.Title)
	switch o.Kind {
	case OutcomeUpdated:
		logger.Info(o.Message(), title, logging.Strings("tags", o.Added), logging.Bool("dry_run", o.DryRun))
	case OutcomeFailed, OutcomeError:
		logger.Warn(o.Message(), append([]any{title}, logging.ErrorAttrs(o.Err)...)...)
	default:
		logger.Debug(o.Message(), title, logging.String("outcome", o.Kind.String()))
	}
}
