package tagsync

import (
	"context"
	"fmt"
)

// TagResolver caches one Arr instance's tag ID to label mapping.
type TagResolver struct {
	source  TagLister
	mapping map[int]string
}

// NewTagResolver returns a resolver that fetches from source on first use.
func NewTagResolver(source TagLister) *TagResolver {
	return &TagResolver{source: source}
}

// Mapping returns the cached mapping, fetching it once if needed.
func (r *TagResolver) Mapping(ctx context.Context) (map[int]string, error) {
	if r.mapping != nil {
		return r.mapping, nil
	}
	tags, err := r.source.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	mapping := make(map[int]string, len(tags))
	for _, tag := range tags {
		mapping[tag.ID] = tag.Label
	}
	r.mapping = mapping
	return mapping, nil
}

// Labels resolves ids in order through the cached mapping.
func (r *TagResolver) Labels(ctx context.Context, ids []int) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	mapping, err := r.Mapping(ctx)
	if err != nil {
		return nil, err
	}
	return ResolveLabels(mapping, ids), nil
}

// Reset forgets the cached mapping.
func (r *TagResolver) Reset() {
	r.mapping = nil
}

// ResolveLabels maps ids to labels preserving order. Unknown IDs become
// "Unknown-{id}".
func ResolveLabels(mapping map[int]string, ids []int) []string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		label, ok := mapping[id]
		if !ok {
			label = fmt.Sprintf("Unknown-%d", id)
		}
		labels = append(labels, label)
	}
	return labels
}
