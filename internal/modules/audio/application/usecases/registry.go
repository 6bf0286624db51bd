package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"golang.org/x/sync/singleflight"
)

// SessionRegistry maps guilds to their live playback session.
// There is at most one session per guild; concurrent creation requests for the
// same guild share a single connect call.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*Session
	closed   bool

	creating singleflight.Group
	cfg      SessionConfig

	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup
}

// NewSessionRegistry creates a new SessionRegistry whose sessions share cfg.
func NewSessionRegistry(cfg SessionConfig) *SessionRegistry {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionRegistry{
		sessions: make(map[snowflake.ID]*Session),
		cfg:      cfg.withDefaults(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Get returns the session for the guild, if any.
func (r *SessionRegistry) Get(guildID snowflake.ID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[guildID]
	return s, ok
}

// GetOrCreate returns the guild's session, connecting a new one with connect if
// there is none.
func (r *SessionRegistry) GetOrCreate(
	ctx context.Context,
	guildID snowflake.ID,
	connect ports.SinkConnector,
) (*Session, error) {
	if s, ok := r.Get(guildID); ok {
		return s, nil
	}

	v, err, _ := r.creating.Do(guildID.String(), func() (any, error) {
		r.mu.RLock()
		s, ok := r.sessions[guildID]
		closed := r.closed
		r.mu.RUnlock()
		if closed {
			return nil, ErrShuttingDown
		}
		if ok {
			return s, nil
		}

		return r.create(ctx, guildID, connect)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (r *SessionRegistry) create(
	ctx context.Context,
	guildID snowflake.ID,
	connect ports.SinkConnector,
) (*Session, error) {
	// Close waits on workers, so a create in flight holds a slot until it has
	// either inserted its session or torn it down.
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrShuttingDown
	}
	r.workers.Add(1)
	r.mu.Unlock()
	defer r.workers.Done()

	connectCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	sink, err := connect(connectCtx)
	if err != nil {
		if r.ctx.Err() != nil {
			return nil, ErrShuttingDown
		}
		return nil, fmt.Errorf("failed to connect output sink: %w", err)
	}

	// The sink is connected; a caller giving up now must not strand it.
	ctx = context.WithoutCancel(ctx)

	var s *Session
	s = newSession(r.ctx, guildID, sink, r.cfg, &r.workers, func() {
		r.remove(guildID, s)
	})
	if err := s.connect(ctx); err != nil {
		if derr := sink.Disconnect(ctx); derr != nil {
			r.cfg.Logger.Warn("failed to disconnect output sink", "guild", guildID, "error", derr)
		}
		return nil, fmt.Errorf("failed to start playback session: %w", err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		if err := s.Stop(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
			r.cfg.Logger.Warn("failed to stop session created during shutdown", "guild", guildID, "error", err)
		}
		return nil, ErrShuttingDown
	}
	r.sessions[guildID] = s
	r.mu.Unlock()
	r.cfg.Metrics.SessionsChanged(1)

	r.cfg.Logger.Info("started playback session", "guild", guildID)
	return s, nil
}

// remove is the session's done-callback. It only deletes the entry if it still
// points at s.
func (r *SessionRegistry) remove(guildID snowflake.ID, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[guildID]; ok && current == s {
		delete(r.sessions, guildID)
		r.cfg.Metrics.SessionsChanged(-1)
	}
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Close stops every session, cancels in-flight resolution and waits for all
// workers to exit. No sessions can be created afterwards.
func (r *SessionRegistry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Stop(ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
			errs = append(errs, fmt.Errorf("failed to stop session for guild %s: %w", s.GuildID(), err))
		}
	}

	r.cancel()

	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		errs = append(errs, fmt.Errorf("failed to wait for resolution workers: %w", ctx.Err()))
	}

	return errors.Join(errs...)
}
