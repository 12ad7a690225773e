package tagsync

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Kind is the media server item class an Arr instance maps onto.
type Kind string

const (
	KindMovie  Kind = "Movie"
	KindSeries Kind = "Series"
)

// Matches reports whether other names the same kind, ignoring case.
func (k Kind) Matches(other Kind) bool {
	return strings.EqualFold(string(k), string(other))
}

func (k Kind) canonical() Kind {
	switch {
	case k.Matches(KindMovie):
		return KindMovie
	case k.Matches(KindSeries):
		return KindSeries
	default:
		return k
	}
}

// KindForArrType maps an Arr instance type onto the media server item kind.
// Unrecognised types are rejected rather than guessed.
func KindForArrType(arrType string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(arrType)) {
	case "radarr":
		return KindMovie, nil
	case "sonarr":
		return KindSeries, nil
	default:
		return "", fmt.Errorf("unsupported arr type %q", arrType)
	}
}

// Provider names as used in ProviderKeys.
const (
	ProviderTMDb = "tmdb"
	ProviderIMDb = "imdb"
	ProviderTVDb = "tvdb"
)

// ProviderKey identifies a title by external provider and provider ID.
type ProviderKey struct {
	Provider string
	ID       string
}

// NewProviderKey normalises the provider name so "Tmdb" and "TMDB" collide.
func NewProviderKey(provider, id string) ProviderKey {
	return ProviderKey{
		Provider: strings.ToLower(strings.TrimSpace(provider)),
		ID:       strings.TrimSpace(id),
	}
}

func (k ProviderKey) String() string {
	return k.Provider + ":" + k.ID
}

// ArrTag is one tag definition from an Arr instance.
type ArrTag struct {
	ID    int
	Label string
}

// ArrItem is a movie or series as reported by an Arr instance. Zero IDs and
// an empty IMDbID mean the provider ID is absent.
type ArrItem struct {
	ID     int64
	Title  string
	TMDbID int64
	IMDbID string
	TVDbID int64
	TagIDs []int
}

// Candidates returns the provider keys to try, most reliable first:
// TMDb, then IMDb, then TVDB for series.
func (a ArrItem) Candidates(kind Kind) []ProviderKey {
	keys := make([]ProviderKey, 0, 3)
	if a.TMDbID > 0 {
		keys = append(keys, NewProviderKey(ProviderTMDb, strconv.FormatInt(a.TMDbID, 10)))
	}
	if imdb := strings.TrimSpace(a.IMDbID); imdb != "" {
		keys = append(keys, NewProviderKey(ProviderIMDb, imdb))
	}
	if a.TVDbID > 0 && kind.Matches(KindSeries) {
		keys = append(keys, NewProviderKey(ProviderTVDb, strconv.FormatInt(a.TVDbID, 10)))
	}
	return keys
}

// MediaItem is a media server library entry.
type MediaItem struct {
	ID          string
	Name        string
	Kind        Kind
	ProviderIDs map[string]string
	Tags        TagSet
}

// TagSet is an unordered set of tag names.
type TagSet map[string]struct{}

// NewTagSet returns a set holding names.
func NewTagSet(names ...string) TagSet {
	set := make(TagSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s TagSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in lexical order.
func (s TagSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
