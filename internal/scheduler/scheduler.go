// Package scheduler runs the listings maintenance tasks once a day at a
// civil time in a named timezone.
//
// One robfig/cron instance drives every task through a schedule whose
// next instant is found by NextRun. A task never overlaps itself: an
// in-process try-lock guards each task and an optional Locker extends the
// guard across replicas.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobmate/listings-service/internal/events"
	"jobmate/listings-service/internal/logging"
	"jobmate/listings-service/internal/telemetry"
)

var (
	ErrUnknownTask = errors.New("unknown task")
	ErrTaskRunning = errors.New("task already running")
)

var tracer = telemetry.GetTracer("scheduler")

// TaskFunc runs one task to completion and returns its stats.
type TaskFunc func(ctx context.Context) (any, error)

// Task is a daily job fired at Hour:Minute scheduler-local time.
type Task struct {
	ID      string
	Name    string
	Hour    int
	Minute  int
	Enabled bool
	Run     TaskFunc
}

// TaskStatus is the externally visible state of a task.
type TaskStatus struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	At           string     `json:"at"`
	Timezone     string     `json:"timezone"`
	Enabled      bool       `json:"enabled"`
	State        State      `json:"state"`
	LastRun      *time.Time `json:"lastRun,omitempty"`
	NextRun      *time.Time `json:"nextRun,omitempty"`
	LastDuration string     `json:"lastDuration,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	LastResult   any        `json:"lastResult,omitempty"`
}

type entry struct {
	task    Task
	running sync.Mutex

	// guarded by Scheduler.mu
	cronID       cron.EntryID
	enabled      bool
	state        State
	lastRun      time.Time
	lastDuration time.Duration
	lastError    string
	lastResult   any
}

type Options struct {
	Location *time.Location
	Locker   Locker
	LockTTL  time.Duration
	Notifier events.Notifier
}

type Scheduler struct {
	cron     *cron.Cron
	loc      *time.Location
	locker   Locker
	lockTTL  time.Duration
	notifier events.Notifier
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	tasks  map[string]*entry
	order  []string
	ctx    context.Context
	cancel context.CancelFunc
}

func New(opts Options, logger *zap.Logger) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 2 * time.Hour
	}
	if opts.Notifier == nil {
		opts.Notifier = events.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(opts.Location)),
		loc:      opts.Location,
		locker:   opts.Locker,
		lockTTL:  opts.LockTTL,
		notifier: opts.Notifier,
		logger:   logging.OrNop(logger).Named("scheduler"),
		now:      time.Now,
		tasks:    make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register adds a task and arms it when enabled.
func (s *Scheduler) Register(t Task) error {
	if t.ID == "" || t.Run == nil {
		return fmt.Errorf("task needs an id and a run func")
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("task %s: invalid time %02d:%02d", t.ID, t.Hour, t.Minute)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.tasks[t.ID]; dup {
		return fmt.Errorf("task %s already registered", t.ID)
	}
	e := &entry{task: t, state: StateIdle}
	s.tasks[t.ID] = e
	s.order = append(s.order, t.ID)
	if t.Enabled {
		s.arm(e)
	}
	return nil
}

// Start begins firing armed tasks.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("timezone", s.loc.String()), zap.Int("tasks", len(s.order)))
}

// Stop stops firing, cancels running tasks and waits for them to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enable re-arms a task from now.
func (s *Scheduler) Enable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return ErrUnknownTask
	}
	if !e.enabled {
		s.arm(e)
		s.logger.Info("task enabled", zap.String("task", id))
	}
	return nil
}

// Disable cancels the pending timer. A run in progress finishes.
func (s *Scheduler) Disable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[id]
	if !ok {
		return ErrUnknownTask
	}
	if e.enabled {
		s.cron.Remove(e.cronID)
		e.cronID = 0
		e.enabled = false
		s.setState(e, StateIdle)
		s.logger.Info("task disabled", zap.String("task", id))
	}
	return nil
}

// arm requires s.mu.
func (s *Scheduler) arm(e *entry) {
	id := e.task.ID
	e.cronID = s.cron.Schedule(
		dailyAt{hour: e.task.Hour, minute: e.task.Minute, loc: s.loc},
		cron.FuncJob(func() { s.fire(id) }),
	)
	e.enabled = true
	s.setState(e, StateArmed)
}

// setState requires s.mu. A running task keeps its state until the run
// ends.
func (s *Scheduler) setState(e *entry, to State) {
	if e.state == StateRunning && to != StateRunning {
		return
	}
	s.transition(e, to)
}

// transition requires s.mu.
func (s *Scheduler) transition(e *entry, to State) {
	if e.state == to {
		return
	}
	if !IsTransitionAllowed(e.state, to) {
		s.logger.Warn("unexpected task state transition",
			zap.String("task", e.task.ID), zap.String("from", string(e.state)), zap.String("to", string(to)))
	}
	e.state = to
}

func (s *Scheduler) fire(id string) {
	if _, err := s.execute(s.ctx, id); err != nil && !errors.Is(err, ErrTaskRunning) {
		s.logger.Error("scheduled run failed", zap.String("task", id), zap.Error(err))
	}
}

// Trigger runs a task now, synchronously, through the same guard as a
// scheduled fire.
func (s *Scheduler) Trigger(ctx context.Context, id string) (any, error) {
	return s.execute(ctx, id)
}

func (s *Scheduler) execute(ctx context.Context, id string) (any, error) {
	s.mu.Lock()
	e, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrUnknownTask
	}

	log := s.logger.With(zap.String("task", id))
	if !e.running.TryLock() {
		log.Warn("previous run still in progress, skipping")
		return nil, ErrTaskRunning
	}
	defer e.running.Unlock()

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, "task:"+id, s.lockTTL)
		switch {
		case err != nil:
			log.Warn("distributed lock unavailable, relying on local guard", zap.Error(err))
		case !ok:
			log.Warn("task running on another replica, skipping")
			return nil, ErrTaskRunning
		default:
			defer release()
		}
	}

	ctx, span := tracer.Start(ctx, "task."+id)
	defer span.End()

	s.mu.Lock()
	s.transition(e, StateRunning)
	s.mu.Unlock()

	start := s.now()
	log.Info("task started")
	result, err := e.task.Run(ctx)
	took := s.now().Sub(start)

	s.mu.Lock()
	e.lastRun = start.UTC()
	e.lastDuration = took
	e.lastResult = result
	e.lastError = ""
	if err != nil {
		e.lastError = err.Error()
	}
	if e.enabled {
		s.transition(e, StateArmed)
	} else {
		s.transition(e, StateIdle)
	}
	s.mu.Unlock()

	fields := map[string]any{"task": id, "durationMs": took.Milliseconds(), "result": result}
	if err != nil {
		span.RecordError(err)
		fields["error"] = err.Error()
		log.Error("task failed", zap.Duration("took", took), zap.Error(err))
	} else {
		log.Info("task finished", zap.Duration("took", took))
	}
	s.notifier.Notify(ctx, events.EventTaskCompleted, fields)
	return result, err
}

// Status lists every task in registration order.
func (s *Scheduler) Status() []TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]TaskStatus, 0, len(s.order))
	for _, id := range s.order {
		e := s.tasks[id]
		st := TaskStatus{
			ID:         id,
			Name:       e.task.Name,
			At:         fmt.Sprintf("%02d:%02d", e.task.Hour, e.task.Minute),
			Timezone:   s.loc.String(),
			Enabled:    e.enabled,
			State:      e.state,
			LastError:  e.lastError,
			LastResult: e.lastResult,
		}
		if !e.lastRun.IsZero() {
			last := e.lastRun
			st.LastRun = &last
			st.LastDuration = e.lastDuration.String()
		}
		if e.enabled {
			next := s.cron.Entry(e.cronID).Next
			if next.IsZero() {
				next = NextRun(now, s.loc, e.task.Hour, e.task.Minute)
			}
			if !next.IsZero() {
				next = next.UTC()
				st.NextRun = &next
			}
		}
		out = append(out, st)
	}
	return out
}
