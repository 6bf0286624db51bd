package usecases

import "errors"

// Control errors for the audio module. These are the only failures that reach
// the command layer; provider failures stay inside the resolution worker.
var (
	// ErrNotConnected is returned when the guild has no playback session.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrEmptyQuery is returned when a play request carries no query.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrNotPlaying is returned when nothing is currently playing.
	ErrNotPlaying = errors.New("nothing is playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrInvalidSkipCount is returned when asked to skip fewer than one item.
	ErrInvalidSkipCount = errors.New("skip amount must be at least 1")

	// ErrInvalidPosition is returned when an invalid queue position is specified.
	ErrInvalidPosition = errors.New("invalid queue position")

	// ErrSessionClosed is returned when a call reaches a session that is shutting down.
	ErrSessionClosed = errors.New("playback session is closed")

	// ErrShuttingDown is returned when a session is requested during module shutdown.
	ErrShuttingDown = errors.New("audio module is shutting down")
)
