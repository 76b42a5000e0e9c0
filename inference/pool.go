package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pool hands out sessions for concurrent inference.
type Pool struct {
	sessions chan *Session
	size     int
	mu       sync.Mutex
	closed   bool
}

// NewPool opens size sessions of the model at modelPath. A non-positive
// size means one session.
func NewPool(modelPath string, size int, spec Spec) (*Pool, error) {
	return newPool(size, func() (*Session, error) {
		return NewSession(modelPath, spec)
	})
}

func newPool(size int, open func() (*Session, error)) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	p := &Pool{
		sessions: make(chan *Session, size),
		size:     size,
	}
	for i := range size {
		s, err := open()
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("creating session %d: %w", i, err)
		}
		p.sessions <- s
	}
	return p, nil
}

// Acquire takes a session, blocking until one is free or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	select {
	case s, ok := <-p.sessions:
		if !ok {
			return nil, ErrPoolClosed
		}
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a session. Sessions released after Close are closed.
func (p *Pool) Release(s *Session) {
	if s == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = s.Close()
		return
	}

	select {
	case p.sessions <- s:
	default:
		_ = s.Close()
	}
}

// Close closes every idle session. Sessions still held are closed when
// released.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sessions)
	p.mu.Unlock()

	var errs []error
	for s := range p.sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the number of sessions the pool was created with.
func (p *Pool) Size() int {
	return p.size
}
