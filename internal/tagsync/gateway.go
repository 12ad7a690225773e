package tagsync

import "context"

// TagLister lists an Arr instance's tag definitions.
type TagLister interface {
	ListTags(ctx context.Context) ([]ArrTag, error)
}

// ArrGateway is the read-only view of one Radarr or Sonarr instance.
type ArrGateway interface {
	TagLister
	ListItems(ctx context.Context) ([]ArrItem, error)
	Probe(ctx context.Context) error
}

// MediaLister lists the media server library by kind.
type MediaLister interface {
	ListMovies(ctx context.Context) ([]MediaItem, error)
	ListSeries(ctx context.Context) ([]MediaItem, error)
}

// TagWriter adds tags to a media server item. Adding a tag the item already
// has must be harmless. Implementations wrap services.ErrRejected when the
// server refuses the write.
type TagWriter interface {
	AddTags(ctx context.Context, itemID string, tags []string) error
}

// MediaGateway is the media server (Emby) surface used by a sync run.
type MediaGateway interface {
	MediaLister
	TagWriter
	Probe(ctx context.Context) error
}
