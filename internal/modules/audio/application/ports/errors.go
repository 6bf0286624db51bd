package ports

import "errors"

// Provider failures. Adapters wrap their own errors with these so the
// resolution worker can tell a dead item from a broken provider.
var (
	// ErrNotFound is returned when a provider has no entry for the identifier.
	ErrNotFound = errors.New("not found")

	// ErrNoResults is returned when a search or listing yields nothing.
	ErrNoResults = errors.New("no results found")

	// ErrCatalogUnavailable is returned when no catalog credentials are configured.
	ErrCatalogUnavailable = errors.New("catalog provider is not configured")

	// ErrPlaybackReplaced is passed to a completion callback when another Play
	// call took over the sink before the item finished.
	ErrPlaybackReplaced = errors.New("playback replaced")
)
