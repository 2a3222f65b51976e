// Package scheduler runs the periodic maturity sweep that redeems bonds once
// they reach their maturity date.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LeJamon/goXRPLrwa/internal/service"
)

// DefaultSpec sweeps once a minute.
const DefaultSpec = "@every 1m"

var ErrAlreadyRunning = errors.New("scheduler already running")

// Maturer redeems matured bonds. *service.Service implements it.
type Maturer interface {
	MatureBonds(ctx context.Context, now time.Time) ([]service.MaturityResult, error)
}

// Sweeper triggers Maturer on a cron schedule. A sweep that is still running
// when the next one is due causes that one to be skipped.
type Sweeper struct {
	maturer Maturer
	spec    string
	logger  *log.Logger
	now     func() time.Time

	cron    *cron.Cron
	entry   cron.EntryID
	mu      sync.Mutex
	ctx     context.Context
	running bool
}

// New creates a Sweeper. An empty spec uses DefaultSpec.
func New(maturer Maturer, spec string, logger *log.Logger) (*Sweeper, error) {
	if spec == "" {
		spec = DefaultSpec
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Sweeper{
		maturer: maturer,
		spec:    spec,
		logger:  logger,
		now:     time.Now,
		ctx:     context.Background(),
	}
	s.cron = cron.New(
		cron.WithLogger(cron.PrintfLogger(logger)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logger)), cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
	id, err := s.cron.AddFunc(spec, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start begins scheduling. Sweeps run with ctx until Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}
	s.ctx = ctx
	s.running = true
	s.cron.Start()
	s.logger.Printf("scheduler: started spec=%q", s.spec)
	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Printf("scheduler: stopped")
}

// Next returns the next scheduled sweep, zero when not started.
func (s *Sweeper) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

func (s *Sweeper) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if _, err := s.Sweep(ctx); err != nil {
		s.logger.Printf("scheduler: sweep failed: %v", err)
	}
}

// Sweep runs one maturity pass immediately.
func (s *Sweeper) Sweep(ctx context.Context) ([]service.MaturityResult, error) {
	started := s.now()
	results, err := s.maturer.MatureBonds(ctx, started)
	if err != nil {
		return nil, err
	}
	var failed int
	for _, r := range results {
		if r.Error != nil {
			failed++
		}
	}
	if len(results) > 0 {
		s.logger.Printf("scheduler: sweep matured=%d failed=%d took=%s", len(results), failed, s.now().Sub(started))
	}
	return results, nil
}
