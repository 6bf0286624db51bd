package usecases

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// SessionState is the lifecycle state of a playback session.
type SessionState int

const (
	// SessionIdle means no sink is connected yet.
	SessionIdle SessionState = iota
	// SessionActive means the sink is connected and the session accepts work.
	SessionActive
	// SessionDraining means a stop is tearing the session down.
	SessionDraining
	// SessionClosed is terminal; the session is no longer in the registry.
	SessionClosed
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionActive:
		return "active"
	case SessionDraining:
		return "draining"
	default:
		return "closed"
	}
}

// PlayableResolver resolves a raw query into queue items.
type PlayableResolver interface {
	ResolveToPlayable(ctx context.Context, query string) iter.Seq2[domain.QueueItem, error]
}

// SessionConfig holds what every session of a registry shares.
type SessionConfig struct {
	Resolver  PlayableResolver
	Publisher ports.EventPublisher
	Metrics   ports.PlaybackMetrics
	Logger    *slog.Logger

	// GreetingPath is played once on connect. Empty disables the greeting.
	GreetingPath string

	// Shuffle has the signature of rand.Shuffle. Defaults to math/rand/v2.
	Shuffle func(n int, swap func(i, j int))
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Shuffle == nil {
		c.Shuffle = rand.Shuffle
	}
	return c
}

// QueueSnapshot is a point-in-time view of a session's queue.
type QueueSnapshot struct {
	// Current is the title of the item in the sink, empty if the queue is empty.
	Current  string
	Upcoming []string
	Paused   bool
}

// opsBufferSize bounds how many control operations may wait for a session.
const opsBufferSize = 64

// Session is the playback context of one guild: one output sink, one queue and
// one resolution worker. All queue and state mutations run on the session's
// control goroutine; exported methods post to it and wait for the result.
type Session struct {
	guildID snowflake.ID
	sink    ports.OutputSink
	cfg     SessionConfig
	logger  *slog.Logger
	onDone  func()

	// ctx outlives any single request; the worker resolves under it.
	ctx     context.Context
	workers *sync.WaitGroup

	ops  chan func()
	quit chan struct{}

	// Owned by the control goroutine.
	state      SessionState
	queue      domain.Queue
	playing    bool
	paused     bool
	playSeq    uint64
	generation uint64
	worker     *worker
}

func newSession(
	ctx context.Context,
	guildID snowflake.ID,
	sink ports.OutputSink,
	cfg SessionConfig,
	workers *sync.WaitGroup,
	onDone func(),
) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		guildID: guildID,
		sink:    sink,
		cfg:     cfg,
		logger:  cfg.Logger.With("guild", guildID),
		onDone:  onDone,
		ctx:     ctx,
		workers: workers,
		ops:     make(chan func(), opsBufferSize),
		quit:    make(chan struct{}),
		state:   SessionIdle,
		queue:   domain.NewQueue(),
	}
	go s.run()
	return s
}

// GuildID returns the guild the session plays in.
func (s *Session) GuildID() snowflake.ID {
	return s.guildID
}

// Done returns a channel closed once the session reaches its terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.quit
}

func (s *Session) run() {
	defer close(s.quit)
	for s.state != SessionClosed {
		op := <-s.ops
		op()
	}
}

// post schedules fn on the control goroutine. It reports false if the session
// has already shut down.
func (s *Session) post(fn func()) bool {
	select {
	case s.ops <- fn:
		return true
	case <-s.quit:
		return false
	}
}

// postAsync is post for callers that must not block, such as sink callbacks
// that may fire on the control goroutine itself.
func (s *Session) postAsync(fn func()) {
	select {
	case s.ops <- fn:
	case <-s.quit:
	default:
		go s.post(fn)
	}
}

// do runs fn on the control goroutine and waits for its result.
func (s *Session) do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	if !s.post(func() { done <- fn() }) {
		return ErrSessionClosed
	}

	select {
	case err := <-done:
		return err
	case <-s.quit:
		select {
		case err := <-done:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// connect moves the session from Idle to Active, starts the resolution worker
// and plays the greeting.
func (s *Session) connect(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.state != SessionIdle {
			return ErrSessionClosed
		}
		s.state = SessionActive
		s.startWorker()

		if s.cfg.GreetingPath != "" {
			if err := s.sink.Play(ctx, s.cfg.GreetingPath, nil); err != nil {
				s.logger.Warn("failed to play greeting", "path", s.cfg.GreetingPath, "error", err)
			}
		}
		return nil
	})
}

// State returns the current lifecycle state.
func (s *Session) State(ctx context.Context) SessionState {
	var state SessionState
	if err := s.do(ctx, func() error {
		state = s.state
		return nil
	}); err != nil {
		return SessionClosed
	}
	return state
}

// Enqueue hands a query to the resolution worker and returns without waiting
// for it to resolve.
func (s *Session) Enqueue(ctx context.Context, query string) error {
	return s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}
		s.worker.submit(query)
		return nil
	})
}

// Skip drops up to n items from the front of the queue, the current one
// included, and plays whatever is left. It returns how many were dropped.
func (s *Session) Skip(ctx context.Context, n int) (int, error) {
	var skipped int
	err := s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}
		if n < 1 {
			return ErrInvalidSkipCount
		}
		if s.queue.IsEmpty() {
			return ErrQueueEmpty
		}

		skipped = s.queue.Skip(n)
		s.abandonPlayback()
		if s.queue.IsEmpty() {
			if err := s.sink.Stop(ctx); err != nil {
				s.logger.Warn("failed to stop playback", "error", err)
			}
			return nil
		}
		s.playFront(ctx)
		return nil
	})
	return skipped, err
}

// Pause pauses the sink.
func (s *Session) Pause(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.state != SessionActive || !s.playing {
			return ErrNotPlaying
		}
		if s.paused {
			return ErrAlreadyPaused
		}
		if err := s.sink.Pause(ctx); err != nil {
			return fmt.Errorf("failed to pause playback: %w", err)
		}
		s.paused = true
		return nil
	})
}

// Resume resumes the sink.
func (s *Session) Resume(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.state != SessionActive || !s.playing {
			return ErrNotPlaying
		}
		if !s.paused {
			return ErrNotPaused
		}
		if err := s.sink.Resume(ctx); err != nil {
			return fmt.Errorf("failed to resume playback: %w", err)
		}
		s.paused = false
		return nil
	})
}

// Shuffle reorders the upcoming items. The current item keeps its place.
func (s *Session) Shuffle(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}
		s.queue.ShuffleUpcoming(s.cfg.Shuffle)
		return nil
	})
}

// Remove removes the upcoming item at a 1-based position and returns its title.
func (s *Session) Remove(ctx context.Context, position int) (string, error) {
	var title string
	err := s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}
		upcoming := s.queue.UpcomingLen()
		if upcoming == 0 {
			return ErrQueueEmpty
		}
		item, ok := s.queue.RemoveUpcoming(position)
		if !ok {
			return fmt.Errorf("%w: %d is not between 1 and %d", ErrInvalidPosition, position, upcoming)
		}
		title = item.Title()
		return nil
	})
	return title, err
}

// Snapshot returns the titles in the queue.
func (s *Session) Snapshot(ctx context.Context) (QueueSnapshot, error) {
	var snapshot QueueSnapshot
	err := s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}
		if current := s.queue.Current(); current != nil {
			snapshot.Current = current.Title()
		}
		upcoming := s.queue.Upcoming()
		snapshot.Upcoming = make([]string, len(upcoming))
		for i, item := range upcoming {
			snapshot.Upcoming[i] = item.Title()
		}
		snapshot.Paused = s.paused
		return nil
	})
	return snapshot, err
}

// Clear empties the queue, stops playback and replaces the resolution worker.
// Queries still waiting in the old worker are dropped; items it is resolving
// right now are discarded when they arrive. It returns how many items were removed.
func (s *Session) Clear(ctx context.Context) (int, error) {
	var cleared int
	err := s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}

		s.worker.signalStop()
		s.generation++
		s.startWorker()

		cleared = s.queue.Clear()
		if s.playing {
			s.abandonPlayback()
			if err := s.sink.Stop(ctx); err != nil {
				s.logger.Warn("failed to stop playback", "error", err)
			}
		}
		return nil
	})
	return cleared, err
}

// Stop tears the session down: it signals the worker, stops and disconnects the
// sink, drops the queue and removes the session from its registry. It does not
// wait for an in-flight download; the worker exits once that finishes and its
// output is discarded.
func (s *Session) Stop(ctx context.Context) error {
	return s.do(ctx, func() error {
		if s.state != SessionActive {
			return ErrSessionClosed
		}
		s.state = SessionDraining

		if s.worker != nil {
			s.worker.signalStop()
		}
		if s.playing {
			s.abandonPlayback()
			if err := s.sink.Stop(ctx); err != nil {
				s.logger.Warn("failed to stop playback", "error", err)
			}
		}
		if err := s.sink.Disconnect(ctx); err != nil {
			s.logger.Warn("failed to disconnect output sink", "error", err)
		}
		s.queue.Clear()

		s.state = SessionClosed
		if s.onDone != nil {
			s.onDone()
		}
		s.publish(domain.SessionClosedEvent{GuildID: s.guildID})
		s.logger.Info("stopped playback session")
		return nil
	})
}

func (s *Session) startWorker() {
	w := newWorker(s, s.generation)
	s.worker = w
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		w.run(s.ctx)
	}()
}

// appendItem runs on the control goroutine for every item the worker resolves.
func (s *Session) appendItem(generation uint64, item domain.QueueItem) {
	if s.state != SessionActive || generation != s.generation {
		s.logger.Debug("dropped item from stale worker", "title", item.Title())
		return
	}

	s.queue.Append(item)
	if !s.playing {
		s.playFront(s.ctx)
	}
}

// playFront starts the head of the queue, dropping heads the sink refuses.
func (s *Session) playFront(ctx context.Context) {
	for !s.queue.IsEmpty() {
		item := s.queue.Current()

		s.playSeq++
		seq := s.playSeq
		err := s.sink.Play(ctx, item.Path(), func(err error) {
			s.postAsync(func() { s.finished(seq, err) })
		})
		if err == nil {
			s.playing = true
			s.paused = false
			s.publish(domain.PlaybackStartedEvent{
				GuildID:  s.guildID,
				ItemID:   item.ID(),
				Title:    item.Title(),
				Upcoming: s.queue.UpcomingLen(),
			})
			return
		}

		s.logger.Warn("failed to start playback", "title", item.Title(), "error", err)
		s.queue.PopFront()
	}
	s.playing = false
	s.paused = false
}

// finished handles a completion callback from the sink. Callbacks for
// playbacks that were skipped, cleared or replaced are ignored.
func (s *Session) finished(seq uint64, err error) {
	if s.state != SessionActive || !s.playing || seq != s.playSeq {
		return
	}
	if err != nil {
		s.logger.Warn("playback ended with error", "error", err)
	}

	s.playing = false
	s.paused = false
	s.queue.PopFront()
	s.playFront(s.ctx)
}

// abandonPlayback forgets the current playback so its completion is ignored.
func (s *Session) abandonPlayback() {
	s.playSeq++
	s.playing = false
	s.paused = false
}

// resolutionFailed is called from the worker goroutine.
func (s *Session) resolutionFailed(query string, err error) {
	s.cfg.Metrics.ResolutionFailed()
	s.logger.Warn("failed to resolve query", "query", query, "error", err)
	s.publish(domain.ResolutionFailedEvent{
		GuildID: s.guildID,
		Query:   query,
		Err:     err,
	})
}

func (s *Session) publish(event domain.Event) {
	if s.cfg.Publisher == nil {
		return
	}
	if err := s.cfg.Publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish event", "error", err)
	}
}
