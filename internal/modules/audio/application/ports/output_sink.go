package ports

import "context"

// OutputSink plays local files into one voice connection.
type OutputSink interface {
	// Play starts playing the file at path, replacing whatever is playing.
	// onFinished, if non-nil, is called exactly once when playback of this file ends:
	// with nil on natural completion, with an error otherwise. It may be called from
	// any goroutine. If Play returns an error, onFinished is never called.
	Play(ctx context.Context, path string, onFinished func(error)) error

	// Pause pauses playback.
	Pause(ctx context.Context) error

	// Resume resumes paused playback.
	Resume(ctx context.Context) error

	// Stop ends the current playback, which fires its completion callback.
	Stop(ctx context.Context) error

	// Disconnect leaves the voice connection. The sink is unusable afterwards.
	Disconnect(ctx context.Context) error
}

// SinkConnector opens a new OutputSink. It is called at most once per session,
// when the session is created.
type SinkConnector func(ctx context.Context) (OutputSink, error)
