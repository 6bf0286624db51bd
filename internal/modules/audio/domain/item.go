package domain

import (
	"path/filepath"
	"strings"
)

// ItemID is the canonical identifier of one playable unit (a YouTube video ID).
// It is embedded in cached file names so a lookup can find the file by scanning the cache.
type ItemID string

// String returns the identifier as a string.
func (id ItemID) String() string {
	return string(id)
}

// Tag returns the token that cached file names carry for this identifier.
func (id ItemID) Tag() string {
	return "[" + string(id) + "]"
}

// WatchURL returns the URL the fetcher is given for this identifier.
func (id ItemID) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

// QueueItem is a resolved, locally available item waiting in (or at the head of) a queue.
// It is immutable once created.
type QueueItem struct {
	path  string
	title string
	id    ItemID
}

// NewQueueItem creates a QueueItem for a cached file, deriving the title from its name.
func NewQueueItem(path string) QueueItem {
	return QueueItem{
		path:  path,
		title: TitleFromPath(path),
		id:    ItemIDFromPath(path),
	}
}

// Path returns the location of the cached payload.
func (i QueueItem) Path() string {
	return i.path
}

// Title returns the display title.
func (i QueueItem) Title() string {
	return i.title
}

// ID returns the identifier tagged in the file name, empty if there is none.
func (i QueueItem) ID() ItemID {
	return i.id
}

// TitleFromPath derives a display title from a cached file name of the form
// "<title> [<id>].<ext>": the extension and the trailing space-separated token are dropped.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if i := strings.LastIndex(stem, " "); i >= 0 {
		return stem[:i]
	}
	return stem
}

// ItemIDFromPath extracts the identifier from the "[<id>]" token of a cached
// file name. It returns "" if the name carries no tag.
func ItemIDFromPath(path string) ItemID {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	tag := stem
	if i := strings.LastIndex(stem, " "); i >= 0 {
		tag = stem[i+1:]
	}
	if len(tag) < 3 || tag[0] != '[' || tag[len(tag)-1] != ']' {
		return ""
	}
	return ItemID(tag[1 : len(tag)-1])
}
