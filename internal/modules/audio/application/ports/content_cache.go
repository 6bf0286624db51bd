package ports

import "github.com/kcbot/kcbot/internal/modules/audio/domain"

// ContentCache is the shared on-disk store of fetched payloads.
// Implementations must be safe for concurrent use by many workers.
type ContentCache interface {
	// Dir returns the directory fetchers write into.
	Dir() string

	// Lookup returns the path of the cached payload for id and marks it as
	// recently used. The boolean is false on a miss.
	Lookup(id domain.ItemID) (string, bool)

	// EvictToBound removes least recently used payloads until the cache fits its size bound.
	EvictToBound() error
}
