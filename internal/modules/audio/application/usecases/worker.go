package usecases

import (
	"context"
	"sync"
)

// worker resolves the queries of one session generation, one at a time, and
// posts each resolved item back to the session's control goroutine.
type worker struct {
	session    *Session
	generation uint64

	mu      sync.Mutex
	pending []string

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func newWorker(session *Session, generation uint64) *worker {
	return &worker{
		session:    session,
		generation: generation,
		pending:    make([]string, 0),
		wake:       make(chan struct{}, 1),
		stop:       make(chan struct{}),
	}
}

// submit queues a query without blocking.
func (w *worker) submit(query string) {
	w.mu.Lock()
	w.pending = append(w.pending, query)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) next() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.pending) == 0 {
		return "", false
	}
	query := w.pending[0]
	w.pending = w.pending[1:]
	return query, true
}

// signalStop asks the worker to exit. Pending queries are dropped; the query
// being resolved stops after its current item.
func (w *worker) signalStop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

func (w *worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

func (w *worker) run(ctx context.Context) {
	for {
		if w.stopped() || ctx.Err() != nil {
			return
		}

		query, ok := w.next()
		if !ok {
			select {
			case <-w.wake:
			case <-w.stop:
			case <-ctx.Done():
			}
			continue
		}

		w.process(ctx, query)
	}
}

func (w *worker) process(ctx context.Context, query string) {
	s := w.session
	s.logger.Debug("resolving query", "query", query, "generation", w.generation)

	for item, err := range s.cfg.Resolver.ResolveToPlayable(ctx, query) {
		if err != nil {
			if ctx.Err() == nil {
				s.resolutionFailed(query, err)
			}
			return
		}

		if !s.post(func() { s.appendItem(w.generation, item) }) {
			return
		}
		if w.stopped() {
			return
		}
	}
}
