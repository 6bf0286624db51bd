package usecases

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

var errProvider = errors.New("provider unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// itemPath mirrors the fetcher's naming. Ids never contain spaces.
func itemPath(title string) string {
	return "/cache/" + title + " [" + strings.ReplaceAll(title, " ", "_") + "-id].webm"
}

func mockItem(title string) domain.QueueItem {
	return domain.NewQueueItem(itemPath(title))
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// mockSink records plays. Completion callbacks fire only when the test calls
// finish, or when Stop ends the current playback.
var _ ports.OutputSink = (*mockSink)(nil)

type mockSink struct {
	mu           sync.Mutex
	played       []string
	callbacks    []func(error)
	fired        []bool
	paused       bool
	stops        int
	disconnected bool

	playErr       map[string]error
	pauseErr      error
	disconnectErr error
}

func newMockSink() *mockSink {
	return &mockSink{
		playErr: make(map[string]error),
	}
}

func (m *mockSink) Play(_ context.Context, path string, onFinished func(error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.playErr[path]; err != nil {
		return err
	}
	m.played = append(m.played, path)
	m.callbacks = append(m.callbacks, onFinished)
	m.fired = append(m.fired, false)
	m.paused = false
	return nil
}

func (m *mockSink) Pause(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pauseErr != nil {
		return m.pauseErr
	}
	m.paused = true
	return nil
}

func (m *mockSink) Resume(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.paused = false
	return nil
}

func (m *mockSink) Stop(context.Context) error {
	m.mu.Lock()
	m.stops++
	last := len(m.callbacks) - 1
	m.mu.Unlock()

	if last >= 0 {
		m.finish(last, errors.New("stopped"))
	}
	return nil
}

// isPlaying reports whether a file is loaded and not paused.
func (m *mockSink) isPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.fired) > 0 && !m.fired[len(m.fired)-1] && !m.paused
}

func (m *mockSink) Disconnect(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.disconnected = true
	return m.disconnectErr
}

// finish fires the completion callback of the i-th play, at most once.
func (m *mockSink) finish(i int, err error) {
	m.mu.Lock()
	if i >= len(m.callbacks) || m.fired[i] {
		m.mu.Unlock()
		return
	}
	m.fired[i] = true
	cb := m.callbacks[i]
	m.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// finishLast completes the most recent play.
func (m *mockSink) finishLast() {
	m.mu.Lock()
	last := len(m.callbacks) - 1
	m.mu.Unlock()

	m.finish(last, nil)
}

func (m *mockSink) playedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]string, len(m.played))
	copy(result, m.played)
	return result
}

func (m *mockSink) playCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.played)
}

func (m *mockSink) isDisconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.disconnected
}

// scriptedResolver maps each query to a script that feeds items to the worker.
type scriptedResolver struct {
	mu      sync.Mutex
	scripts map[string]func(ctx context.Context, yield func(domain.QueueItem, error) bool)
	calls   []string
}

func newScriptedResolver() *scriptedResolver {
	return &scriptedResolver{
		scripts: make(map[string]func(context.Context, func(domain.QueueItem, error) bool)),
	}
}

func (r *scriptedResolver) on(
	query string,
	script func(ctx context.Context, yield func(domain.QueueItem, error) bool),
) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scripts[query] = script
}

// onItems makes query resolve to one item per title.
func (r *scriptedResolver) onItems(query string, titles ...string) {
	r.on(query, func(_ context.Context, yield func(domain.QueueItem, error) bool) {
		for _, title := range titles {
			if !yield(mockItem(title), nil) {
				return
			}
		}
	})
}

func (r *scriptedResolver) ResolveToPlayable(
	ctx context.Context,
	query string,
) iter.Seq2[domain.QueueItem, error] {
	r.mu.Lock()
	r.calls = append(r.calls, query)
	script := r.scripts[query]
	r.mu.Unlock()

	return func(yield func(domain.QueueItem, error) bool) {
		if script != nil {
			script(ctx, yield)
		}
	}
}

func (r *scriptedResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}

type mockEventPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (m *mockEventPublisher) Publish(event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) resolutionFailures() []domain.ResolutionFailedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []domain.ResolutionFailedEvent
	for _, e := range m.events {
		if f, ok := e.(domain.ResolutionFailedEvent); ok {
			result = append(result, f)
		}
	}
	return result
}

type mockCatalog struct {
	tracks    map[string]string
	playlists map[string][]string
	albums    map[string][]string
	artists   map[string][]string
	err       error
}

func (m *mockCatalog) TrackTitle(_ context.Context, id string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	title, ok := m.tracks[id]
	if !ok {
		return "", ports.ErrNotFound
	}
	return title, nil
}

func (m *mockCatalog) PlaylistTitles(_ context.Context, id string) ([]string, error) {
	return m.list(m.playlists, id)
}

func (m *mockCatalog) AlbumTitles(_ context.Context, id string) ([]string, error) {
	return m.list(m.albums, id)
}

func (m *mockCatalog) ArtistTopTitles(_ context.Context, id string) ([]string, error) {
	return m.list(m.artists, id)
}

func (m *mockCatalog) list(lists map[string][]string, id string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	titles, ok := lists[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return titles, nil
}

type mockSearch struct {
	results     map[string][]domain.ItemID
	collections map[string][]domain.ItemID
	errs        map[string]error
	searches    []string
	listings    []string
}

func (m *mockSearch) Search(_ context.Context, text string) ([]domain.ItemID, error) {
	m.searches = append(m.searches, text)
	if err := m.errs[text]; err != nil {
		return nil, err
	}
	ids, ok := m.results[text]
	if !ok {
		return nil, ports.ErrNoResults
	}
	return ids, nil
}

func (m *mockSearch) ListCollection(_ context.Context, url string) ([]domain.ItemID, error) {
	m.listings = append(m.listings, url)
	if err := m.errs[url]; err != nil {
		return nil, err
	}
	ids, ok := m.collections[url]
	if !ok {
		return nil, ports.ErrNoResults
	}
	return ids, nil
}

// mockCache is a map of identifier to path. Fetching an identifier listed in
// fetchable places it in the cache.
type mockCache struct {
	entries   map[domain.ItemID]string
	fetchable map[domain.ItemID]string
	fetchErrs map[domain.ItemID]error
	fetched   []domain.ItemID
	evictions int
}

func newMockCache() *mockCache {
	return &mockCache{
		entries:   make(map[domain.ItemID]string),
		fetchable: make(map[domain.ItemID]string),
		fetchErrs: make(map[domain.ItemID]error),
	}
}

func (m *mockCache) Dir() string { return "/cache" }

func (m *mockCache) Lookup(id domain.ItemID) (string, bool) {
	path, ok := m.entries[id]
	return path, ok
}

func (m *mockCache) EvictToBound() error {
	m.evictions++
	return nil
}

func (m *mockCache) Fetch(_ context.Context, id domain.ItemID, _ string) error {
	m.fetched = append(m.fetched, id)
	if err := m.fetchErrs[id]; err != nil {
		return err
	}
	if path, ok := m.fetchable[id]; ok {
		m.entries[id] = path
	}
	return nil
}

func newTestRegistry(resolver PlayableResolver, publisher ports.EventPublisher) *SessionRegistry {
	cfg := SessionConfig{
		Resolver: resolver,
		Logger:   discardLogger(),
	}
	if publisher != nil {
		cfg.Publisher = publisher
	}
	return NewSessionRegistry(cfg)
}

func connectTo(sink ports.OutputSink) ports.SinkConnector {
	return func(context.Context) (ports.OutputSink, error) {
		return sink, nil
	}
}

// startSession creates a connected session for guild 1 on a fresh registry.
func startSession(t *testing.T, resolver PlayableResolver) (*SessionRegistry, *Session, *mockSink) {
	t.Helper()

	registry := newTestRegistry(resolver, nil)
	t.Cleanup(func() { _ = registry.Close(context.Background()) })

	sink := newMockSink()
	s, err := registry.GetOrCreate(context.Background(), snowflake.ID(1), connectTo(sink))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return registry, s, sink
}

func snapshotOf(t *testing.T, s *Session) QueueSnapshot {
	t.Helper()

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return snapshot
}
