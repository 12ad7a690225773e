package tagsync

import (
	"context"
	"fmt"
	"log/slog"

	"arremsync/internal/logging"
)

// ProviderLookup finds a media server item by provider key.
type ProviderLookup interface {
	Lookup(ctx context.Context, kind Kind, key ProviderKey) (*MediaItem, error)
}

// Index is the lookup surface Syncers share across instances.
type Index interface {
	ProviderLookup
	Warm(ctx context.Context, kind Kind) error
	Reset()
}

// ProviderIndex maps provider keys to media server items. Each kind has its
// own table, fetched from the MediaLister at most once until Reset. A built
// table may be empty; emptiness does not trigger a refetch.
type ProviderIndex struct {
	source MediaLister
	tables map[Kind]map[ProviderKey]*MediaItem
	logger *slog.Logger
}

// NewProviderIndex returns an unbuilt index backed by source.
func NewProviderIndex(source MediaLister, logger *slog.Logger) *ProviderIndex {
	return &ProviderIndex{
		source: source,
		tables: make(map[Kind]map[ProviderKey]*MediaItem),
		logger: logging.NewComponentLogger(logger, "provider-index"),
	}
}

// Built reports whether the table for kind has been built.
func (p *ProviderIndex) Built(kind Kind) bool {
	_, ok := p.tables[kind.canonical()]
	return ok
}

// Len returns the number of keys indexed for kind.
func (p *ProviderIndex) Len(kind Kind) int {
	return len(p.tables[kind.canonical()])
}

// Build indexes items under kind. It is a no-op when kind is already built.
// When two items share a provider key the later item wins.
func (p *ProviderIndex) Build(kind Kind, items []MediaItem) {
	if p.Built(kind) {
		return
	}
	table := make(map[ProviderKey]*MediaItem, len(items)*2)
	duplicates := 0
	for i := range items {
		item := &items[i]
		if item.Tags == nil {
			item.Tags = NewTagSet()
		}
		for provider, id := range item.ProviderIDs {
			key := NewProviderKey(provider, id)
			if key.Provider == "" || key.ID == "" {
				continue
			}
			if _, exists := table[key]; exists {
				duplicates++
			}
			table[key] = item
		}
	}
	p.tables[kind.canonical()] = table
	p.logger.Debug("provider index built",
		logging.String("kind", string(kind)),
		logging.Int("items", len(items)),
		logging.Int("keys", len(table)),
		logging.Int("duplicate_keys", duplicates),
	)
}

// Warm fetches and builds the table for kind if it is not built yet.
func (p *ProviderIndex) Warm(ctx context.Context, kind Kind) error {
	if p.Built(kind) {
		return nil
	}
	var (
		items []MediaItem
		err   error
	)
	switch {
	case kind.Matches(KindMovie):
		items, err = p.source.ListMovies(ctx)
	case kind.Matches(KindSeries):
		items, err = p.source.ListSeries(ctx)
	default:
		return fmt.Errorf("provider index: unsupported kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("provider index: list %s items: %w", kind, err)
	}
	p.Build(kind, items)
	return nil
}

// Lookup returns the item indexed under key, building the table for kind
// first if needed. A nil item means no match. An indexed item of a
// different kind is never returned.
func (p *ProviderIndex) Lookup(ctx context.Context, kind Kind, key ProviderKey) (*MediaItem, error) {
	if err := p.Warm(ctx, kind); err != nil {
		return nil, err
	}
	item, ok := p.tables[kind.canonical()][NewProviderKey(key.Provider, key.ID)]
	if !ok || !item.Kind.Matches(kind) {
		return nil, nil
	}
	return item, nil
}

// Reset drops every table so the next lookup refetches.
func (p *ProviderIndex) Reset() {
	clear(p.tables)
}
