package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// topTracksMarket is the market used for artist top tracks.
const topTracksMarket = "US"

var _ ports.CatalogProvider = (*SpotifyCatalog)(nil)

// SpotifyCatalog reads track titles from the Spotify Web API using app-only
// client credentials.
type SpotifyCatalog struct {
	client *spotify.Client
}

// NewSpotifyCatalog creates a catalog authenticated with the given client
// credentials. Tokens are fetched and refreshed lazily.
func NewSpotifyCatalog(ctx context.Context, clientID, clientSecret string) *SpotifyCatalog {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &SpotifyCatalog{
		client: spotify.New(cfg.Client(ctx)),
	}
}

// TrackTitle returns "<artists> - <name>" for a track.
func (c *SpotifyCatalog) TrackTitle(ctx context.Context, id string) (string, error) {
	track, err := c.client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return "", translateSpotifyError("track", id, err)
	}
	return trackTitle(track.SimpleTrack), nil
}

// PlaylistTitles returns the titles of every track in a playlist, following
// pagination. Episodes and unavailable entries are skipped.
func (c *SpotifyCatalog) PlaylistTitles(ctx context.Context, id string) ([]string, error) {
	page, err := c.client.GetPlaylistItems(ctx, spotify.ID(id))
	if err != nil {
		return nil, translateSpotifyError("playlist", id, err)
	}

	var titles []string
	for {
		for _, item := range page.Items {
			if item.Track.Track != nil {
				titles = append(titles, trackTitle(item.Track.Track.SimpleTrack))
			}
		}

		err := c.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, translateSpotifyError("playlist", id, err)
		}
	}
	return titles, nil
}

// AlbumTitles returns the titles of an album's tracks in album order.
func (c *SpotifyCatalog) AlbumTitles(ctx context.Context, id string) ([]string, error) {
	page, err := c.client.GetAlbumTracks(ctx, spotify.ID(id))
	if err != nil {
		return nil, translateSpotifyError("album", id, err)
	}

	var titles []string
	for {
		for _, track := range page.Tracks {
			titles = append(titles, trackTitle(track))
		}

		err := c.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, translateSpotifyError("album", id, err)
		}
	}
	return titles, nil
}

// ArtistTopTitles returns the titles of an artist's top tracks.
func (c *SpotifyCatalog) ArtistTopTitles(ctx context.Context, id string) ([]string, error) {
	tracks, err := c.client.GetArtistsTopTracks(ctx, spotify.ID(id), topTracksMarket)
	if err != nil {
		return nil, translateSpotifyError("artist", id, err)
	}

	titles := make([]string, 0, len(tracks))
	for _, track := range tracks {
		titles = append(titles, trackTitle(track.SimpleTrack))
	}
	return titles, nil
}

// trackTitle renders "Artist A, Artist B - Name".
func trackTitle(track spotify.SimpleTrack) string {
	artists := make([]string, 0, len(track.Artists))
	for _, artist := range track.Artists {
		if artist.Name != "" {
			artists = append(artists, artist.Name)
		}
	}
	if len(artists) == 0 {
		return track.Name
	}
	return strings.Join(artists, ", ") + " - " + track.Name
}

func translateSpotifyError(kind, id string, err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return fmt.Errorf("spotify %s %s: %w", kind, id, ports.ErrNotFound)
	}
	return fmt.Errorf("failed to get spotify %s %s: %w", kind, id, err)
}
