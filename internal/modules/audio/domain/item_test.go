package domain

import "testing"

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "cached file name",
			path: "audio_cache/Rick Astley - Never Gonna Give You Up [dQw4w9WgXcQ].webm",
			want: "Rick Astley - Never Gonna Give You Up",
		},
		{
			name: "title with brackets",
			path: "/tmp/cache/Song [Live] [abcdefghijk].m4a",
			want: "Song [Live]",
		},
		{
			name: "no space",
			path: "/tmp/cache/[abcdefghijk].opus",
			want: "[abcdefghijk]",
		},
		{
			name: "no extension",
			path: "Title [abcdefghijk]",
			want: "Title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFromPath(tt.path); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewQueueItem(t *testing.T) {
	item := NewQueueItem("/cache/Song Title [abcdefghijk].webm")

	if item.Path() != "/cache/Song Title [abcdefghijk].webm" {
		t.Errorf("unexpected path %q", item.Path())
	}
	if item.Title() != "Song Title" {
		t.Errorf("expected title %q, got %q", "Song Title", item.Title())
	}
	if item.ID() != "abcdefghijk" {
		t.Errorf("expected id %q, got %q", "abcdefghijk", item.ID())
	}
}

func TestItemIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ItemID
	}{
		{path: "/cache/Song Title [abcdefghijk].webm", want: "abcdefghijk"},
		{path: "Title [with] brackets [dQw4w9WgXcQ].m4a", want: "dQw4w9WgXcQ"},
		{path: "[dQw4w9WgXcQ].opus", want: "dQw4w9WgXcQ"},
		{path: "/assets/audio/greeting.mp3", want: ""},
		{path: "Song []", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ItemIDFromPath(tt.path); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestItemID_Tag(t *testing.T) {
	id := ItemID("dQw4w9WgXcQ")

	if got := id.Tag(); got != "[dQw4w9WgXcQ]" {
		t.Errorf("expected %q, got %q", "[dQw4w9WgXcQ]", got)
	}
	if got := id.WatchURL(); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected watch URL %q", got)
	}
}
