package tagsync

import "context"

// Match is the result of matching one Arr item. Item is nil when the title
// is not in the media server yet.
type Match struct {
	Item *MediaItem
	Key  ProviderKey
}

// Found reports whether a media server item was matched.
func (m Match) Found() bool { return m.Item != nil }

// Matcher finds the media server item for an Arr item by provider ID.
type Matcher struct {
	lookup ProviderLookup
	kind   Kind
}

// NewMatcher returns a matcher querying lookup for items of kind.
func NewMatcher(lookup ProviderLookup, kind Kind) *Matcher {
	return &Matcher{lookup: lookup, kind: kind}
}

// Match tries each candidate key in priority order and stops at the first
// hit. Later candidates are not queried once one matches.
func (m *Matcher) Match(ctx context.Context, item ArrItem) (Match, error) {
	for _, key := range item.Candidates(m.kind) {
		found, err := m.lookup.Lookup(ctx, m.kind, key)
		if err != nil {
			return Match{}, err
		}
		if found != nil {
			return Match{Item: found, Key: key}, nil
		}
	}
	return Match{}, nil
}
