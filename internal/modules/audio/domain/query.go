package domain

import (
	"regexp"
	"strings"
)

// QueryKind classifies a raw play query.
type QueryKind int

const (
	// QueryFreeText is searched as text; only the first result is used.
	QueryFreeText QueryKind = iota
	// QueryCollection is a YouTube playlist URL, listed in bulk.
	QueryCollection
	// QueryItem is a direct YouTube video URL.
	QueryItem
	// QueryCatalogTrack is a Spotify track URL.
	QueryCatalogTrack
	// QueryCatalogPlaylist is a Spotify playlist URL.
	QueryCatalogPlaylist
	// QueryCatalogAlbum is a Spotify album URL.
	QueryCatalogAlbum
	// QueryCatalogArtist is a Spotify artist URL; it resolves to the artist's top tracks.
	QueryCatalogArtist
)

// String returns a short name for logging.
func (k QueryKind) String() string {
	switch k {
	case QueryCollection:
		return "collection"
	case QueryItem:
		return "item"
	case QueryCatalogTrack:
		return "catalog_track"
	case QueryCatalogPlaylist:
		return "catalog_playlist"
	case QueryCatalogAlbum:
		return "catalog_album"
	case QueryCatalogArtist:
		return "catalog_artist"
	default:
		return "free_text"
	}
}

// IsCatalogCollection reports whether the kind expands to a list of catalog titles.
func (k QueryKind) IsCatalogCollection() bool {
	return k == QueryCatalogPlaylist || k == QueryCatalogAlbum || k == QueryCatalogArtist
}

var queryPatterns = []struct {
	kind    QueryKind
	pattern *regexp.Regexp
}{
	{
		kind: QueryCollection,
		pattern: regexp.MustCompile(
			`^(https?://)?(www\.)?(youtube\.com|youtube-nocookie\.com)/.*[?&]list=([a-zA-Z0-9_-]+)`,
		),
	},
	{
		kind: QueryItem,
		pattern: regexp.MustCompile(
			`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/|youtube-nocookie\.com/embed/|youtube\.com/shorts/)([a-zA-Z0-9_-]{11})`,
		),
	},
	{
		kind:    QueryCatalogTrack,
		pattern: regexp.MustCompile(`^(https?://)?(www\.)?open\.spotify\.com/track/([a-zA-Z0-9]+)`),
	},
	{
		kind:    QueryCatalogPlaylist,
		pattern: regexp.MustCompile(`^(https?://)?(www\.)?open\.spotify\.com/playlist/([a-zA-Z0-9]+)`),
	},
	{
		kind:    QueryCatalogAlbum,
		pattern: regexp.MustCompile(`^(https?://)?(www\.)?open\.spotify\.com/album/([a-zA-Z0-9]+)`),
	},
	{
		kind:    QueryCatalogArtist,
		pattern: regexp.MustCompile(`^(https?://)?(www\.)?open\.spotify\.com/artist/([a-zA-Z0-9]+)`),
	},
}

// Query is a classified play request. The raw text is never rewritten.
type Query struct {
	Raw  string
	Kind QueryKind
	// ID is the identifier captured from the URL: the playlist ID for collections,
	// the video ID for items, the catalog ID for catalog references. Empty for free text.
	ID string
}

// ParseQuery classifies raw input. The first matching pattern wins and anything
// unmatched is free text.
func ParseQuery(raw string) Query {
	raw = strings.TrimSpace(raw)

	for _, p := range queryPatterns {
		m := p.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		return Query{
			Raw:  raw,
			Kind: p.kind,
			ID:   m[len(m)-1],
		}
	}

	return Query{
		Raw:  raw,
		Kind: QueryFreeText,
	}
}

// IsValid returns true if the query is not empty.
func (q Query) IsValid() bool {
	return q.Raw != ""
}

// ItemID returns the video identifier of a QueryItem.
func (q Query) ItemID() ItemID {
	return ItemID(q.ID)
}
