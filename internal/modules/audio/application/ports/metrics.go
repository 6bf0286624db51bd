package ports

// CacheMetrics records content cache activity.
type CacheMetrics interface {
	CacheHit()
	CacheMiss()
	Evicted(bytes int64)
}

// PlaybackMetrics records resolution and session activity.
type PlaybackMetrics interface {
	// Fetched counts one fetch attempt by outcome ("ok", "not_found", "error").
	Fetched(outcome string)
	ResolutionFailed()
	SessionsChanged(delta int)
}
