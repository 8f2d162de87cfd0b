// Package sweeper periodically prunes old rows from the message log.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ricardobn/wabridge/internal/repo"
)

type Sweeper struct {
	store    repo.MessageStore
	maxAge   time.Duration
	interval time.Duration
	logger   *slog.Logger

	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(store repo.MessageStore, maxAge, interval time.Duration, logger *slog.Logger) (*Sweeper, error) {
	if store == nil {
		return nil, errors.New("store must not be nil")
	}
	if maxAge <= 0 {
		return nil, errors.New("maxAge must be > 0")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

func (s *Sweeper) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("retention sweeper started", "max_age", s.maxAge.String(), "interval", s.interval.String())

		s.sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("retention sweeper stopping")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return true
}

func (s *Sweeper) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	return true
}

func (s *Sweeper) IsRunning() bool {
	return s.running.Load()
}

func (s *Sweeper) sweep(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("sweep panic recovered", "panic", r)
		}
	}()

	cutoff := time.Now().UTC().Add(-s.maxAge)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("sweep completed", "deleted", deleted, "cutoff", cutoff)
	}
}
