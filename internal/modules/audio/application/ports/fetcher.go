package ports

import (
	"context"

	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// Fetcher downloads the media payload of one item into a directory.
// The written file name must contain id.Tag() so ContentCache can find it.
type Fetcher interface {
	Fetch(ctx context.Context, id domain.ItemID, dir string) error
}
