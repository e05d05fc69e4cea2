package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
)

// Sweep outcomes reported to the Observer
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultPanicked = "panic"
)

// Job is a named periodic task
type Job struct {
	Name string
	// Interval is the delay between the end of one run and the start of the next
	Interval time.Duration
	// Timeout bounds a single run; zero means no bound
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// Observer receives one call per finished run
type Observer interface {
	SweepRun(ctx context.Context, job, result string, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) SweepRun(context.Context, string, string, time.Duration) {}

// SweepRunner runs registered jobs on a fixed delay. A job never overlaps
// with itself: the next run is scheduled only after the previous one
// returned, and manual RunOnce calls wait for an in-flight run.
type SweepRunner struct {
	clock    Clock
	logger   *zap.Logger
	observer Observer

	mu        sync.Mutex
	jobs      []*registeredJob
	byName    map[string]*registeredJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

type registeredJob struct {
	Job
	runMu sync.Mutex
}

// Option configures a SweepRunner
type Option func(*SweepRunner)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(s *SweepRunner) {
		s.clock = c
	}
}

// WithObserver reports every run to o
func WithObserver(o Observer) Option {
	return func(s *SweepRunner) {
		s.observer = o
	}
}

// NewSweepRunner creates a runner with no jobs
func NewSweepRunner(logger *zap.Logger, opts ...Option) *SweepRunner {
	s := &SweepRunner{
		clock:    RealClock(),
		logger:   logger.Named("scheduler"),
		observer: noopObserver{},
		byName:   make(map[string]*registeredJob),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a job. Jobs must be registered before Start.
func (s *SweepRunner) Register(job Job) error {
	if job.Name == "" || job.Run == nil || job.Interval <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidJob, job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.byName[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}
	rj := &registeredJob{Job: job}
	s.jobs = append(s.jobs, rj)
	s.byName[job.Name] = rj
	return nil
}

// Start launches one loop per job. The first run of each job happens one
// interval after Start.
func (s *SweepRunner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
		s.logger.Info("Sweep scheduled",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval),
		)
	}
	return nil
}

// Stop cancels the loops and waits for in-flight runs, bounded by ctx
func (s *SweepRunner) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// RunOnce runs the named job now and returns its error
func (s *SweepRunner) RunOnce(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.byName[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, job)
}

// IsRunning reports whether Start has been called without a matching Stop
func (s *SweepRunner) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *SweepRunner) loop(ctx context.Context, job *registeredJob) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(job.Interval):
		}
		// errors are logged and counted inside execute
		_ = s.execute(ctx, job)
	}
}

func (s *SweepRunner) execute(ctx context.Context, job *registeredJob) (err error) {
	job.runMu.Lock()
	defer job.runMu.Unlock()

	if job.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, job.Timeout)
		defer cancel()
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "sweep", job.Name,
		telemetry.WithAttribute(telemetry.SpanAttrJob, job.Name),
	)
	defer span.End()

	started := s.clock.Now()
	result := ResultOK
	defer func() {
		if r := recover(); r != nil {
			result = ResultPanicked
			err = fmt.Errorf("sweep %s panicked: %v", job.Name, r)
			s.logger.Error("Sweep panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}
		if err != nil {
			telemetry.RecordError(span, err)
		}
		s.observer.SweepRun(ctx, job.Name, result, s.clock.Now().Sub(started))
	}()

	if err = job.Run(ctx); err != nil {
		result = ResultError
		s.logger.Error("Sweep failed", zap.String("job", job.Name), zap.Error(err))
		return err
	}
	s.logger.Debug("Sweep completed", zap.String("job", job.Name))
	return nil
}
