package ports

import "context"

// CatalogProvider looks up track metadata in a music catalog. Titles are
// returned as "<artists> - <name>" and are meant to be fed to a SearchProvider.
type CatalogProvider interface {
	// TrackTitle returns the title of a single track.
	TrackTitle(ctx context.Context, id string) (string, error)

	// PlaylistTitles returns the titles of a playlist's tracks in playlist order.
	PlaylistTitles(ctx context.Context, id string) ([]string, error)

	// AlbumTitles returns the titles of an album's tracks in album order.
	AlbumTitles(ctx context.Context, id string) ([]string, error)

	// ArtistTopTitles returns the titles of an artist's top tracks.
	ArtistTopTitles(ctx context.Context, id string) ([]string, error)
}
