package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/sync/singleflight"
)

const (
	audioFormat    = "bestaudio[ext=webm]/bestaudio[ext=m4a]/bestaudio"
	outputTemplate = "%(title)s [%(id)s].%(ext)s"

	fetchRetries        = "10"
	fragmentRetries     = "10"
	fileAccessRetries   = "3"
	concurrentFragments = 5
)

// Phrases yt-dlp prints when an item is gone for good.
var unavailableMarkers = []string{
	"video unavailable",
	"private video",
	"this video has been removed",
	"this video is not available",
	"account associated with this video has been terminated",
}

var _ ports.Fetcher = (*Ytdlp)(nil)

// Ytdlp drives the yt-dlp executable for flat listings, fallback search and
// audio downloads.
type Ytdlp struct {
	logger *slog.Logger

	// Concurrent fetches of the same item share one download.
	fetches singleflight.Group
}

// NewYtdlp creates a new Ytdlp.
func NewYtdlp(logger *slog.Logger) *Ytdlp {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ytdlp{logger: logger}
}

func newCommand() *ytdlp.Command {
	return ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
}

// fetchCommand builds the download of a single item's audio into dir.
func fetchCommand(dir string) *ytdlp.Command {
	return newCommand().
		Format(audioFormat).
		Output(filepath.Join(dir, outputTemplate)).
		NoPlaylist().
		NoMtime().
		Retries(fetchRetries).
		FragmentRetries(fragmentRetries).
		FileAccessRetries(fileAccessRetries).
		ConcurrentFragments(concurrentFragments)
}

// Fetch downloads the best audio stream of id into dir as "<title> [<id>].<ext>".
func (y *Ytdlp) Fetch(ctx context.Context, id domain.ItemID, dir string) error {
	_, err, shared := y.fetches.Do(id.String(), func() (any, error) {
		y.logger.Info("downloading audio", "item", id)

		res, err := fetchCommand(dir).Run(ctx, id.WatchURL())
		if err != nil {
			return nil, classifyFailure(id.String(), stderrOf(res), err)
		}

		y.logger.Info("downloaded audio", "item", id)
		return nil, nil
	})
	if shared {
		y.logger.Debug("joined in-flight download", "item", id)
	}
	return err
}

// ListCollection lists the identifiers of a playlist URL without resolving
// per-item details.
func (y *Ytdlp) ListCollection(ctx context.Context, url string) ([]domain.ItemID, error) {
	res, err := newCommand().
		FlatPlaylist().
		Print("%(id)s").
		Run(ctx, url)
	if err != nil {
		return nil, classifyFailure(url, stderrOf(res), err)
	}

	ids := parseIDs(res.Stdout)
	if len(ids) == 0 {
		return nil, fmt.Errorf("failed to list %s: %w", url, ports.ErrNoResults)
	}
	return ids, nil
}

// Search returns the identifiers of the first limit results for text.
func (y *Ytdlp) Search(ctx context.Context, text string, limit int) ([]domain.ItemID, error) {
	res, err := newCommand().
		FlatPlaylist().
		Print("%(id)s").
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, text))
	if err != nil {
		return nil, classifyFailure(text, stderrOf(res), err)
	}

	ids := parseIDs(res.Stdout)
	if len(ids) == 0 {
		return nil, ports.ErrNoResults
	}
	return ids, nil
}

func stderrOf(res *ytdlp.Result) string {
	if res == nil {
		return ""
	}
	return res.Stderr
}

// classifyFailure maps permanent unavailability to ports.ErrNotFound.
func classifyFailure(target, stderr string, err error) error {
	lower := strings.ToLower(stderr)
	for _, marker := range unavailableMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%s: %w", target, ports.ErrNotFound)
		}
	}

	if msg := lastLine(stderr); msg != "" {
		return fmt.Errorf("yt-dlp failed for %s: %s: %w", target, msg, err)
	}
	return fmt.Errorf("yt-dlp failed for %s: %w", target, err)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// parseIDs reads one identifier per line, skipping blanks and placeholders.
func parseIDs(stdout string) []domain.ItemID {
	var ids []domain.ItemID
	for line := range strings.Lines(stdout) {
		line = strings.TrimSpace(line)
		if line == "" || line == "NA" {
			continue
		}
		ids = append(ids, domain.ItemID(line))
	}
	return ids
}
