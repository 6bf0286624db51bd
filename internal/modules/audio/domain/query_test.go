package domain

import "testing"

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind QueryKind
		wantID   string
	}{
		{
			name:     "free text",
			input:    "never gonna give you up",
			wantKind: QueryFreeText,
		},
		{
			name:     "free text is trimmed",
			input:    "  hello world  ",
			wantKind: QueryFreeText,
		},
		{
			name:     "watch URL",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantKind: QueryItem,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "short URL without scheme",
			input:    "youtu.be/dQw4w9WgXcQ",
			wantKind: QueryItem,
			wantID:   "dQw4w9WgXcQ",
		},
		{
			name:     "shorts URL",
			input:    "https://youtube.com/shorts/abcdefghijk",
			wantKind: QueryItem,
			wantID:   "abcdefghijk",
		},
		{
			name:     "embed URL",
			input:    "https://www.youtube-nocookie.com/embed/abc_def-123",
			wantKind: QueryItem,
			wantID:   "abc_def-123",
		},
		{
			name:     "playlist URL",
			input:    "https://www.youtube.com/playlist?list=PLabc123_-",
			wantKind: QueryCollection,
			wantID:   "PLabc123_-",
		},
		{
			name:     "watch URL inside a playlist is a collection",
			input:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLxyz",
			wantKind: QueryCollection,
			wantID:   "PLxyz",
		},
		{
			name:     "spotify track",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			wantKind: QueryCatalogTrack,
			wantID:   "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "spotify playlist with query string",
			input:    "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M?si=abc",
			wantKind: QueryCatalogPlaylist,
			wantID:   "37i9dQZF1DXcBWIGoYBM5M",
		},
		{
			name:     "spotify album",
			input:    "open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3",
			wantKind: QueryCatalogAlbum,
			wantID:   "1DFixLWuPkv3KT3TnV35m3",
		},
		{
			name:     "spotify artist",
			input:    "https://open.spotify.com/artist/0gxyHStUsqpMadRV0Di1Qt",
			wantKind: QueryCatalogArtist,
			wantID:   "0gxyHStUsqpMadRV0Di1Qt",
		},
		{
			name:     "URL in the middle of text is free text",
			input:    "play https://youtu.be/dQw4w9WgXcQ",
			wantKind: QueryFreeText,
		},
		{
			name:     "video ID too short",
			input:    "https://youtu.be/abc",
			wantKind: QueryFreeText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ParseQuery(tt.input)

			if q.Kind != tt.wantKind {
				t.Errorf("expected kind %v, got %v", tt.wantKind, q.Kind)
			}
			if q.ID != tt.wantID {
				t.Errorf("expected ID %q, got %q", tt.wantID, q.ID)
			}
		})
	}
}

func TestQuery_IsValid(t *testing.T) {
	if ParseQuery("   ").IsValid() {
		t.Error("expected blank query to be invalid")
	}
	if !ParseQuery("song").IsValid() {
		t.Error("expected text query to be valid")
	}
}

func TestQueryKind_IsCatalogCollection(t *testing.T) {
	collections := map[QueryKind]bool{
		QueryFreeText:        false,
		QueryCollection:      false,
		QueryItem:            false,
		QueryCatalogTrack:    false,
		QueryCatalogPlaylist: true,
		QueryCatalogAlbum:    true,
		QueryCatalogArtist:   true,
	}

	for kind, want := range collections {
		if got := kind.IsCatalogCollection(); got != want {
			t.Errorf("%v: expected %v, got %v", kind, want, got)
		}
	}
}
