package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/rafabd1/vipmanager/internal/member"
)

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("store closed")

// persistJob is one full-list write, or a barrier when done is set.
type persistJob struct {
	op       Op
	subject  member.Member
	snapshot []member.Member
	// onResult runs on the writer goroutine once the write has finished.
	onResult func(err error)
	done     chan struct{}
}

// writer applies persist jobs one at a time in the order they were queued, so
// the last snapshot queued is the last one written.
type writer struct {
	backend Backend

	mu      sync.Mutex
	pending []persistJob
	stopped bool

	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	exited   chan struct{}
}

func newWriter(backend Backend) *writer {
	w := &writer{
		backend:  backend,
		wake:     make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue never blocks. It reports false once the writer has exited.
func (w *writer) enqueue(job persistJob) bool {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return false
	}
	w.pending = append(w.pending, job)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (w *writer) next() (persistJob, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return persistJob{}, false
	}
	job := w.pending[0]
	w.pending[0] = persistJob{}
	w.pending = w.pending[1:]
	return job, true
}

func (w *writer) run() {
	defer close(w.exited)
	for {
		w.drain()
		select {
		case <-w.wake:
		case <-w.stopChan:
			// jobs queued by rollbacks during this drain are picked up by the loop
			w.drain()
			w.mu.Lock()
			w.stopped = true
			w.mu.Unlock()
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	for {
		job, ok := w.next()
		if !ok {
			return
		}
		w.process(job)
	}
}

func (w *writer) process(job persistJob) {
	if job.done != nil {
		close(job.done)
		return
	}
	err := w.backend.Write(context.Background(), job.snapshot)
	if job.onResult != nil {
		job.onResult(err)
	}
}

// flush waits until every job queued before the call has been processed.
func (w *writer) flush(ctx context.Context) error {
	done := make(chan struct{})
	if !w.enqueue(persistJob{done: done}) {
		return ErrClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop drains the queue and waits for the writer goroutine to exit.
func (w *writer) stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.exited
}
