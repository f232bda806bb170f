// Package workers provides a bounded pool for fire-and-forget background tasks.
package workers

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Executor runs tasks in the background.
type Executor interface {
	// TryGo starts task without blocking. It returns false when the task was not accepted.
	TryGo(task func()) bool
}

// Pool is an Executor backed by an errgroup with a concurrency limit.
type Pool struct {
	logger *zap.Logger
	group  errgroup.Group

	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool running at most size tasks at once.
func NewPool(size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{logger: logger.Named("workers")}
	p.group.SetLimit(size)
	return p
}

// TryGo starts task if a worker slot is free and the pool is open.
func (p *Pool) TryGo(task func()) bool {
	if task == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	return p.group.TryGo(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("background task panicked", zap.Any("panic", r))
				err = fmt.Errorf("background task panicked: %v", r)
			}
		}()
		task()
		return nil
	})
}

// Close stops accepting tasks and waits for running ones to finish.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return p.group.Wait()
}

// GoExecutor starts every task on its own goroutine.
type GoExecutor struct{}

func (GoExecutor) TryGo(task func()) bool {
	if task == nil {
		return false
	}
	go task()
	return true
}

var (
	_ Executor = (*Pool)(nil)
	_ Executor = GoExecutor{}
)
