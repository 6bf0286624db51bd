package ports

import (
	"context"

	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// SearchProvider turns text or a collection URL into playable item identifiers.
type SearchProvider interface {
	// Search runs a free-text search and returns matching identifiers, best first.
	// Returns ErrNoResults if nothing matched.
	Search(ctx context.Context, text string) ([]domain.ItemID, error)

	// ListCollection flattens a collection URL into its identifiers in listing order,
	// without fetching per-item details.
	ListCollection(ctx context.Context, url string) ([]domain.ItemID, error)
}
