package usecases

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// Resolver turns raw queries into playable, locally cached items.
type Resolver struct {
	catalog ports.CatalogProvider
	search  ports.SearchProvider
	fetcher ports.Fetcher
	cache   ports.ContentCache
	metrics ports.PlaybackMetrics
	logger  *slog.Logger
}

// NewResolver creates a new Resolver. catalog may be nil, in which case catalog
// queries fail with ports.ErrCatalogUnavailable.
func NewResolver(
	catalog ports.CatalogProvider,
	search ports.SearchProvider,
	fetcher ports.Fetcher,
	cache ports.ContentCache,
	metrics ports.PlaybackMetrics,
	logger *slog.Logger,
) *Resolver {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		catalog: catalog,
		search:  search,
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// Resolve classifies raw and lazily yields the identifiers it refers to.
// Network calls happen as the sequence is consumed. On a provider failure the
// sequence yields one error and ends; identifiers yielded before it stay valid.
func (r *Resolver) Resolve(ctx context.Context, raw string) iter.Seq2[domain.ItemID, error] {
	query := domain.ParseQuery(raw)

	return func(yield func(domain.ItemID, error) bool) {
		switch {
		case query.Kind == domain.QueryCollection:
			ids, err := r.search.ListCollection(ctx, query.Raw)
			if err != nil {
				yield("", fmt.Errorf("failed to list collection: %w", err))
				return
			}
			for _, id := range ids {
				if !yield(id, nil) {
					return
				}
			}

		case query.Kind == domain.QueryItem:
			yield(query.ItemID(), nil)

		case query.Kind == domain.QueryCatalogTrack:
			if r.catalog == nil {
				yield("", ports.ErrCatalogUnavailable)
				return
			}
			title, err := r.catalog.TrackTitle(ctx, query.ID)
			if err != nil {
				yield("", fmt.Errorf("failed to look up catalog track: %w", err))
				return
			}
			yield(r.firstResult(ctx, title))

		case query.Kind.IsCatalogCollection():
			titles, err := r.collectionTitles(ctx, query)
			if err != nil {
				yield("", fmt.Errorf("failed to look up catalog %s: %w", query.Kind, err))
				return
			}
			for _, title := range titles {
				id, err := r.firstResult(ctx, title)
				if !yield(id, err) || err != nil {
					return
				}
			}

		default:
			yield(r.firstResult(ctx, query.Raw))
		}
	}
}

// ResolveToPlayable wraps Resolve, making each identifier available in the
// content cache before yielding it as a queue item. Items whose payload is gone
// upstream, or cannot be found after a successful fetch, are skipped.
func (r *Resolver) ResolveToPlayable(
	ctx context.Context,
	raw string,
) iter.Seq2[domain.QueueItem, error] {
	return func(yield func(domain.QueueItem, error) bool) {
		for id, err := range r.Resolve(ctx, raw) {
			if err != nil {
				yield(domain.QueueItem{}, err)
				return
			}

			path, ok, err := r.playable(ctx, id)
			if err != nil {
				yield(domain.QueueItem{}, err)
				return
			}
			if !ok {
				continue
			}

			if !yield(domain.NewQueueItem(path), nil) {
				return
			}
		}
	}
}

func (r *Resolver) playable(ctx context.Context, id domain.ItemID) (string, bool, error) {
	if path, ok := r.cache.Lookup(id); ok {
		return path, true, nil
	}

	err := r.fetcher.Fetch(ctx, id, r.cache.Dir())
	switch {
	case errors.Is(err, ports.ErrNotFound):
		r.metrics.Fetched("not_found")
		r.logger.Warn("skipped unavailable item", "item", id, "error", err)
		return "", false, nil
	case err != nil:
		r.metrics.Fetched("error")
		return "", false, fmt.Errorf("failed to fetch %s: %w", id, err)
	}
	r.metrics.Fetched("ok")

	if err := r.cache.EvictToBound(); err != nil {
		r.logger.Warn("failed to evict cache entries", "error", err)
	}

	path, ok := r.cache.Lookup(id)
	if !ok {
		r.logger.Warn("fetched item is missing from cache", "item", id)
	}
	return path, ok, nil
}

func (r *Resolver) collectionTitles(ctx context.Context, query domain.Query) ([]string, error) {
	if r.catalog == nil {
		return nil, ports.ErrCatalogUnavailable
	}

	switch query.Kind {
	case domain.QueryCatalogPlaylist:
		return r.catalog.PlaylistTitles(ctx, query.ID)
	case domain.QueryCatalogAlbum:
		return r.catalog.AlbumTitles(ctx, query.ID)
	default:
		return r.catalog.ArtistTopTitles(ctx, query.ID)
	}
}

func (r *Resolver) firstResult(ctx context.Context, text string) (domain.ItemID, error) {
	ids, err := r.search.Search(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to search %q: %w", text, err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("failed to search %q: %w", text, ports.ErrNoResults)
	}
	return ids[0], nil
}

type noopMetrics struct{}

func (noopMetrics) Fetched(string)      {}
func (noopMetrics) ResolutionFailed()   {}
func (noopMetrics) SessionsChanged(int) {}
