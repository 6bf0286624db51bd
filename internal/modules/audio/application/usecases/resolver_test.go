package usecases

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

func collectIDs(t *testing.T, r *Resolver, query string) ([]domain.ItemID, error) {
	t.Helper()

	var ids []domain.ItemID
	for id, err := range r.Resolve(context.Background(), query) {
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func TestResolver_Resolve(t *testing.T) {
	catalog := &mockCatalog{
		tracks: map[string]string{
			"track1": "Rick Astley - Never Gonna Give You Up",
		},
		playlists: map[string][]string{
			"list1": {"A - One", "B - Two", "C - Three"},
		},
		albums: map[string][]string{
			"album1": {"A - Intro", "A - Outro"},
		},
		artists: map[string][]string{
			"artist1": {"A - Hit"},
		},
	}
	results := map[string][]domain.ItemID{
		"Rick Astley - Never Gonna Give You Up": {"dQw4w9WgXcQ", "other"},
		"A - One":                               {"id-one"},
		"B - Two":                               {"id-two"},
		"C - Three":                             {"id-three"},
		"A - Intro":                             {"id-intro"},
		"A - Outro":                             {"id-outro"},
		"A - Hit":                               {"id-hit"},
		"lofi beats":                            {"id-lofi", "id-lofi-2"},
	}
	collections := map[string][]domain.ItemID{
		"https://www.youtube.com/playlist?list=PL1": {"v3", "v1", "v2"},
	}

	tests := []struct {
		name         string
		query        string
		want         []domain.ItemID
		wantSearches []string
	}{
		{
			name:  "single item reference",
			query: "https://youtu.be/dQw4w9WgXcQ",
			want:  []domain.ItemID{"dQw4w9WgXcQ"},
		},
		{
			name:  "collection reference keeps listing order",
			query: "https://www.youtube.com/playlist?list=PL1",
			want:  []domain.ItemID{"v3", "v1", "v2"},
		},
		{
			name:         "catalog track",
			query:        "https://open.spotify.com/track/track1",
			want:         []domain.ItemID{"dQw4w9WgXcQ"},
			wantSearches: []string{"Rick Astley - Never Gonna Give You Up"},
		},
		{
			name:         "catalog playlist keeps catalog order",
			query:        "https://open.spotify.com/playlist/list1",
			want:         []domain.ItemID{"id-one", "id-two", "id-three"},
			wantSearches: []string{"A - One", "B - Two", "C - Three"},
		},
		{
			name:         "catalog album",
			query:        "https://open.spotify.com/album/album1",
			want:         []domain.ItemID{"id-intro", "id-outro"},
			wantSearches: []string{"A - Intro", "A - Outro"},
		},
		{
			name:         "catalog artist",
			query:        "https://open.spotify.com/artist/artist1",
			want:         []domain.ItemID{"id-hit"},
			wantSearches: []string{"A - Hit"},
		},
		{
			name:         "free text takes first result",
			query:        "lofi beats",
			want:         []domain.ItemID{"id-lofi"},
			wantSearches: []string{"lofi beats"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := &mockSearch{results: results, collections: collections}
			r := NewResolver(catalog, search, newMockCache(), newMockCache(), nil, discardLogger())

			got, err := collectIDs(t, r, tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if !slices.Equal(search.searches, tt.wantSearches) {
				t.Errorf("expected searches %v, got %v", tt.wantSearches, search.searches)
			}
		})
	}
}

func TestResolver_Resolve_SingleItemMakesNoCalls(t *testing.T) {
	catalog := &mockCatalog{err: errProvider}
	search := &mockSearch{errs: map[string]error{}}
	r := NewResolver(catalog, search, newMockCache(), newMockCache(), nil, discardLogger())

	got, err := collectIDs(t, r, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "dQw4w9WgXcQ" {
		t.Errorf("expected [dQw4w9WgXcQ], got %v", got)
	}
	if len(search.searches) != 0 || len(search.listings) != 0 {
		t.Errorf("expected no provider calls, got searches %v listings %v", search.searches, search.listings)
	}
}

func TestResolver_Resolve_Failures(t *testing.T) {
	tests := []struct {
		name    string
		catalog ports.CatalogProvider
		search  *mockSearch
		query   string
		want    []domain.ItemID
		wantErr error
	}{
		{
			name:    "free text without results",
			search:  &mockSearch{},
			query:   "nothing matches this",
			wantErr: ports.ErrNoResults,
		},
		{
			name: "free text search error",
			search: &mockSearch{
				errs: map[string]error{"song": errProvider},
			},
			query:   "song",
			wantErr: errProvider,
		},
		{
			name:    "unknown catalog track",
			catalog: &mockCatalog{},
			search:  &mockSearch{},
			query:   "https://open.spotify.com/track/missing",
			wantErr: ports.ErrNotFound,
		},
		{
			name:    "catalog not configured",
			search:  &mockSearch{},
			query:   "https://open.spotify.com/album/abc",
			wantErr: ports.ErrCatalogUnavailable,
		},
		{
			name:    "collection listing error",
			search:  &mockSearch{errs: map[string]error{"https://youtube.com/playlist?list=PL2": errProvider}},
			query:   "https://youtube.com/playlist?list=PL2",
			wantErr: errProvider,
		},
		{
			name: "failure mid-collection keeps earlier items",
			catalog: &mockCatalog{
				playlists: map[string][]string{"list1": {"One", "Two", "Three"}},
			},
			search: &mockSearch{
				results: map[string][]domain.ItemID{"One": {"id-one"}, "Three": {"id-three"}},
				errs:    map[string]error{"Two": errProvider},
			},
			query:   "https://open.spotify.com/playlist/list1",
			want:    []domain.ItemID{"id-one"},
			wantErr: errProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.catalog, tt.search, newMockCache(), newMockCache(), nil, discardLogger())

			got, err := collectIDs(t, r, tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected items %v before the error, got %v", tt.want, got)
			}
		})
	}
}

func TestResolver_Resolve_IsLazy(t *testing.T) {
	catalog := &mockCatalog{
		playlists: map[string][]string{"list1": {"One", "Two", "Three"}},
	}
	search := &mockSearch{
		results: map[string][]domain.ItemID{
			"One":   {"id-one"},
			"Two":   {"id-two"},
			"Three": {"id-three"},
		},
	}
	r := NewResolver(catalog, search, newMockCache(), newMockCache(), nil, discardLogger())

	for id, err := range r.Resolve(context.Background(), "https://open.spotify.com/playlist/list1") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "id-one" {
			t.Errorf("expected id-one, got %v", id)
		}
		break
	}

	if len(search.searches) != 1 {
		t.Errorf("expected 1 search after consuming one item, got %v", search.searches)
	}
}

func TestResolver_ResolveToPlayable(t *testing.T) {
	collection := "https://www.youtube.com/playlist?list=PL1"

	tests := []struct {
		name          string
		ids           []domain.ItemID
		setupCache    func(*mockCache)
		wantTitles    []string
		wantFetched   []domain.ItemID
		wantEvictions int
		wantErr       error
	}{
		{
			name: "cache hit skips fetch",
			ids:  []domain.ItemID{"a"},
			setupCache: func(c *mockCache) {
				c.entries["a"] = "/cache/Song A [a].webm"
			},
			wantTitles: []string{"Song A"},
		},
		{
			name: "miss fetches and evicts",
			ids:  []domain.ItemID{"a", "b"},
			setupCache: func(c *mockCache) {
				c.entries["a"] = "/cache/Song A [a].webm"
				c.fetchable["b"] = "/cache/Song B [b].m4a"
			},
			wantTitles:    []string{"Song A", "Song B"},
			wantFetched:   []domain.ItemID{"b"},
			wantEvictions: 1,
		},
		{
			name: "missing after fetch is skipped",
			ids:  []domain.ItemID{"a", "b"},
			setupCache: func(c *mockCache) {
				c.fetchable["b"] = "/cache/Song B [b].webm"
			},
			wantTitles:    []string{"Song B"},
			wantFetched:   []domain.ItemID{"a", "b"},
			wantEvictions: 2,
		},
		{
			name: "unavailable item is skipped",
			ids:  []domain.ItemID{"a", "b"},
			setupCache: func(c *mockCache) {
				c.fetchErrs["a"] = ports.ErrNotFound
				c.fetchable["b"] = "/cache/Song B [b].webm"
			},
			wantTitles:    []string{"Song B"},
			wantFetched:   []domain.ItemID{"a", "b"},
			wantEvictions: 1,
		},
		{
			name: "fetch failure ends the query",
			ids:  []domain.ItemID{"a", "b", "c"},
			setupCache: func(c *mockCache) {
				c.entries["a"] = "/cache/Song A [a].webm"
				c.fetchErrs["b"] = errProvider
				c.entries["c"] = "/cache/Song C [c].webm"
			},
			wantTitles:  []string{"Song A"},
			wantFetched: []domain.ItemID{"b"},
			wantErr:     errProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMockCache()
			tt.setupCache(cache)
			search := &mockSearch{collections: map[string][]domain.ItemID{collection: tt.ids}}
			r := NewResolver(nil, search, cache, cache, nil, discardLogger())

			var titles []string
			var err error
			for item, ierr := range r.ResolveToPlayable(context.Background(), collection) {
				if ierr != nil {
					err = ierr
					break
				}
				titles = append(titles, item.Title())
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
			if !slices.Equal(titles, tt.wantTitles) {
				t.Errorf("expected titles %v, got %v", tt.wantTitles, titles)
			}
			if !slices.Equal(cache.fetched, tt.wantFetched) {
				t.Errorf("expected fetched %v, got %v", tt.wantFetched, cache.fetched)
			}
			if cache.evictions != tt.wantEvictions {
				t.Errorf("expected %d evictions, got %d", tt.wantEvictions, cache.evictions)
			}
		})
	}
}
