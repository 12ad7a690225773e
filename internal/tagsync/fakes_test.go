package tagsync_test

import (
	"context"
	"errors"
	"maps"

	"arremsync/internal/services"
	"arremsync/internal/tagsync"
)

type addCall struct {
	itemID string
	tags   []string
}

// fakeMedia is an in-memory media server. Writes land in store; listings
// return fresh copies reflecting store.
type fakeMedia struct {
	movies []tagsync.MediaItem
	series []tagsync.MediaItem
	store  map[string]tagsync.TagSet

	probeErr error
	listErr  error
	addErr   error
	addPanic bool

	probes      int
	movieLists  int
	seriesLists int
	calls       []addCall
}

func newFakeMedia(items ...tagsync.MediaItem) *fakeMedia {
	f := &fakeMedia{store: make(map[string]tagsync.TagSet)}
	for _, item := range items {
		f.store[item.ID] = maps.Clone(item.Tags)
		if item.Kind == tagsync.KindSeries {
			f.series = append(f.series, item)
		} else {
			f.movies = append(f.movies, item)
		}
	}
	return f
}

func (f *fakeMedia) snapshot(items []tagsync.MediaItem) []tagsync.MediaItem {
	out := make([]tagsync.MediaItem, 0, len(items))
	for _, item := range items {
		item.Tags = maps.Clone(f.store[item.ID])
		if item.Tags == nil {
			item.Tags = tagsync.NewTagSet()
		}
		out = append(out, item)
	}
	return out
}

func (f *fakeMedia) ListMovies(context.Context) ([]tagsync.MediaItem, error) {
	f.movieLists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.snapshot(f.movies), nil
}

func (f *fakeMedia) ListSeries(context.Context) ([]tagsync.MediaItem, error) {
	f.seriesLists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.snapshot(f.series), nil
}

func (f *fakeMedia) AddTags(_ context.Context, itemID string, tags []string) error {
	if f.addPanic {
		panic("emby exploded")
	}
	f.calls = append(f.calls, addCall{itemID: itemID, tags: append([]string(nil), tags...)})
	if f.addErr != nil {
		return f.addErr
	}
	set := f.store[itemID]
	if set == nil {
		set = tagsync.NewTagSet()
		f.store[itemID] = set
	}
	for _, tag := range tags {
		set[tag] = struct{}{}
	}
	return nil
}

func (f *fakeMedia) Probe(context.Context) error {
	f.probes++
	return f.probeErr
}

type fakeArr struct {
	items []tagsync.ArrItem
	tags  []tagsync.ArrTag

	probeErr error
	listErr  error
	tagsErr  error

	tagLists int
	lists    int
	probes   int
}

func (f *fakeArr) ListItems(context.Context) ([]tagsync.ArrItem, error) {
	f.lists++
	return f.items, f.listErr
}

func (f *fakeArr) ListTags(context.Context) ([]tagsync.ArrTag, error) {
	f.tagLists++
	return f.tags, f.tagsErr
}

func (f *fakeArr) Probe(context.Context) error {
	f.probes++
	return f.probeErr
}

// failingIndex wraps an index and fails lookups for one provider key.
type failingIndex struct {
	tagsync.Index
	failKey tagsync.ProviderKey
}

func (f *failingIndex) Lookup(ctx context.Context, kind tagsync.Kind, key tagsync.ProviderKey) (*tagsync.MediaItem, error) {
	if key == f.failKey {
		return nil, errors.New("lookup exploded")
	}
	return f.Index.Lookup(ctx, kind, key)
}

// recordingLookup records queried keys and serves from a fixed map.
type recordingLookup struct {
	items   map[tagsync.ProviderKey]*tagsync.MediaItem
	queried []tagsync.ProviderKey
}

func (r *recordingLookup) Lookup(_ context.Context, _ tagsync.Kind, key tagsync.ProviderKey) (*tagsync.MediaItem, error) {
	r.queried = append(r.queried, key)
	return r.items[key], nil
}

func movie(id string, tmdb string, tags ...string) tagsync.MediaItem {
	return tagsync.MediaItem{
		ID:          id,
		Name:        "Movie " + id,
		Kind:        tagsync.KindMovie,
		ProviderIDs: map[string]string{"Tmdb": tmdb},
		Tags:        tagsync.NewTagSet(tags...),
	}
}

var errRejected = services.Wrap(services.ErrRejected, "emby", "add tags", "status 400", nil)
