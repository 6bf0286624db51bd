package infrastructure

import (
	"context"
	"log/slog"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
	"github.com/ppalone/ytsearch"
)

// fallbackResults is how many results the yt-dlp search fallback asks for.
const fallbackResults = 1

var _ ports.SearchProvider = (*YouTubeSearch)(nil)

// YouTubeSearch searches YouTube through its web results, falling back to
// yt-dlp's search extractor, and lists playlists through yt-dlp.
type YouTubeSearch struct {
	client *ytsearch.Client
	ytdlp  *Ytdlp
	logger *slog.Logger
}

// NewYouTubeSearch creates a new YouTubeSearch.
func NewYouTubeSearch(ytdlp *Ytdlp, logger *slog.Logger) *YouTubeSearch {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTubeSearch{
		client: ytsearch.NewClient(nil),
		ytdlp:  ytdlp,
		logger: logger,
	}
}

// Search returns video identifiers matching text, best first.
func (s *YouTubeSearch) Search(ctx context.Context, text string) ([]domain.ItemID, error) {
	res, err := s.client.Search(ctx, text)
	if err == nil {
		ids := make([]domain.ItemID, 0, len(res.Results))
		for _, r := range res.Results {
			if r.VideoID != "" {
				ids = append(ids, domain.ItemID(r.VideoID))
			}
		}
		if len(ids) > 0 {
			return ids, nil
		}
	} else {
		s.logger.Debug("web search failed, falling back to yt-dlp", "query", text, "error", err)
	}

	return s.ytdlp.Search(ctx, text, fallbackResults)
}

// ListCollection lists the video identifiers of a playlist URL.
func (s *YouTubeSearch) ListCollection(ctx context.Context, url string) ([]domain.ItemID, error) {
	return s.ytdlp.ListCollection(ctx, url)
}
