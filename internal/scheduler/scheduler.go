package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Ticker runs one task on a fixed period. It can be started and stopped any
// number of times; Stop shuts the underlying scheduler down so no job
// survives it.
type Ticker struct {
	interval time.Duration
	clock    clockwork.Clock
	logger   *zap.Logger

	mu    sync.Mutex
	sched gocron.Scheduler
}

type Option func(*Ticker)

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(t *Ticker) { t.clock = c }
}

func New(interval time.Duration, logger *zap.Logger, opts ...Option) *Ticker {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Ticker{interval: interval, clock: clockwork.NewRealClock(), logger: logger}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Start runs task right away and then every interval, handing it the current
// time. Runs never overlap. Starting a running ticker is a no-op.
func (t *Ticker) Start(task func(now time.Time)) error {
	if task == nil {
		return errors.New("scheduler: nil task")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sched != nil {
		return nil
	}

	s, err := gocron.NewScheduler(
		gocron.WithClock(t.clock),
		gocron.WithLogger(zapLogger{t.logger.Sugar()}),
	)
	if err != nil {
		return err
	}

	_, err = s.NewJob(
		gocron.DurationJob(t.interval),
		gocron.NewTask(func() { task(t.clock.Now()) }),
		gocron.WithName("reminder-tick"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return err
	}

	s.Start()
	t.sched = s
	t.logger.Info("reminder ticker started", zap.Duration("interval", t.interval))
	return nil
}

// Stop halts the ticker. Stopping a stopped ticker is a no-op.
func (t *Ticker) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sched == nil {
		return nil
	}
	err := t.sched.Shutdown()
	t.sched = nil
	t.logger.Info("reminder ticker stopped")
	return err
}

func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sched != nil
}

// zapLogger adapts zap to gocron.Logger.
type zapLogger struct{ l *zap.SugaredLogger }

func (z zapLogger) Debug(msg string, args ...any) { z.l.Debugw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.l.Errorw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.l.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.l.Warnw(msg, args...) }
