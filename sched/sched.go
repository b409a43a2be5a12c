// Package sched runs the periodic `cron:<name>` tasks (SPEC_FULL.md
// §4.8), one timer goroutine per section, generalizing the teacher's
// named-runtime registration/lifecycle idiom (rtm_core.RuntimeModule's
// Init/Stop over a name-keyed table) to wall-clock timers invoking
// dotted-function targets instead of dispatching actions.
package sched

import (
	"sync"
	"time"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/hooks"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
)

// Task is one running cron:<name> timer.
type Task struct {
	name     string
	target   string
	interval time.Duration
	now      bool

	ctx  *model.ServiceCtx
	log  logger.ILogger
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Scheduler owns every compiled Task.
type Scheduler struct {
	tasks []*Task
}

// Build compiles cron sections into Tasks. A section whose target does
// not resolve to a registered CronFunc is dropped and logged, since the
// alternative (panicking at every tick) would be worse than skipping it.
func Build(cfgs []*config.CronConfig, namespaces []string, ctx *model.ServiceCtx, log logger.ILogger) *Scheduler {
	s := &Scheduler{}
	for _, c := range cfgs {
		if _, err := hooks.LookupCron(c.Target, namespaces); err != nil {
			log.With("cron", c.Name).Error("dropping cron task: %v", err)
			continue
		}
		s.tasks = append(s.tasks, &Task{
			name:     c.Name,
			target:   c.Target,
			interval: time.Duration(c.Interval * float64(time.Second)),
			now:      c.Now,
			ctx:      ctx,
			log:      log.With("cron", c.Name),
			stop:     make(chan struct{}),
		})
	}
	return s
}

// Start launches every compiled task's timer goroutine.
func (s *Scheduler) Start(namespaces []string) {
	for _, t := range s.tasks {
		t.wg.Add(1)
		go t.run(namespaces)
	}
}

// Cancel stops every task's pending timer; a concurrently running
// invocation finishes but is not rescheduled (§4.8).
func (s *Scheduler) Cancel() {
	for _, t := range s.tasks {
		t.cancel()
	}
	for _, t := range s.tasks {
		t.wg.Wait()
	}
}

func (t *Task) cancel() {
	t.once.Do(func() { close(t.stop) })
}

func (t *Task) run(namespaces []string) {
	defer t.wg.Done()

	if !t.now {
		if !t.sleep(t.interval) {
			return
		}
	}

	for {
		start := time.Now()
		t.invoke(namespaces)

		elapsed := time.Since(start)
		wait := t.interval - elapsed
		if wait < 0 {
			wait = 0
		}
		if !t.sleep(wait) {
			return
		}
	}
}

func (t *Task) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.stop:
		return false
	}
}

func (t *Task) invoke(namespaces []string) {
	fn, err := hooks.LookupCron(t.target, namespaces)
	if err != nil {
		t.log.Error("cron target no longer resolves: %v", err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			t.log.Error("cron task panicked: %v", r)
		}
	}()
	fn(t.ctx)
}
