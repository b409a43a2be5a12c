package sched

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rskv-p/mqttwarn/config"
	"github.com/rskv-p/mqttwarn/hooks"
	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDropsUnresolvedTarget(t *testing.T) {
	log := logger.NewLogger("sched-test", logger.LevelError)
	ctx := &model.ServiceCtx{Log: log, ScriptName: "mqttwarn"}

	s := Build([]*config.CronConfig{
		{Name: "bad", Target: "sched_test:doesnotexist", Interval: 1},
	}, nil, ctx, log)
	assert.Empty(t, s.tasks)
}

func TestSchedulerInvokesImmediatelyWhenNow(t *testing.T) {
	var calls int32
	hooks.Register("sched_test:tick", hooks.CronFunc(func(ctx *model.ServiceCtx) {
		atomic.AddInt32(&calls, 1)
	}))

	log := logger.NewLogger("sched-test", logger.LevelError)
	ctx := &model.ServiceCtx{Log: log, ScriptName: "mqttwarn"}

	s := Build([]*config.CronConfig{
		{Name: "t", Target: "sched_test:tick()", Interval: 10, Now: true},
	}, nil, ctx, log)
	require.Len(t, s.tasks, 1)

	s.Start(nil)
	defer s.Cancel()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerRepeatsAtInterval(t *testing.T) {
	var calls int32
	hooks.Register("sched_test:fasttick", hooks.CronFunc(func(ctx *model.ServiceCtx) {
		atomic.AddInt32(&calls, 1)
	}))

	log := logger.NewLogger("sched-test", logger.LevelError)
	ctx := &model.ServiceCtx{Log: log, ScriptName: "mqttwarn"}

	s := Build([]*config.CronConfig{
		{Name: "fast", Target: "sched_test:fasttick()", Interval: 0.01, Now: true},
	}, nil, ctx, log)
	require.Len(t, s.tasks, 1)

	s.Start(nil)
	defer s.Cancel()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestCancelStopsFurtherInvocations(t *testing.T) {
	var calls int32
	hooks.Register("sched_test:cancelme", hooks.CronFunc(func(ctx *model.ServiceCtx) {
		atomic.AddInt32(&calls, 1)
	}))

	log := logger.NewLogger("sched-test", logger.LevelError)
	ctx := &model.ServiceCtx{Log: log, ScriptName: "mqttwarn"}

	s := Build([]*config.CronConfig{
		{Name: "c", Target: "sched_test:cancelme()", Interval: 0.01, Now: true},
	}, nil, ctx, log)
	s.Start(nil)

	time.Sleep(30 * time.Millisecond)
	s.Cancel()
	after := atomic.LoadInt32(&calls)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&calls))
}

func TestPanickingTaskDoesNotStopScheduler(t *testing.T) {
	var calls int32
	hooks.Register("sched_test:panics", hooks.CronFunc(func(ctx *model.ServiceCtx) {
		atomic.AddInt32(&calls, 1)
		panic("boom")
	}))

	log := logger.NewLogger("sched-test", logger.LevelError)
	ctx := &model.ServiceCtx{Log: log, ScriptName: "mqttwarn"}

	s := Build([]*config.CronConfig{
		{Name: "p", Target: "sched_test:panics()", Interval: 0.01, Now: true},
	}, nil, ctx, log)
	s.Start(nil)
	defer s.Cancel()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 2
	}, time.Second, 5*time.Millisecond)
}
