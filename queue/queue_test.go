package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rskv-p/mqttwarn/logger"
	"github.com/rskv-p/mqttwarn/model"
	"github.com/rskv-p/mqttwarn/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct{}

func (fakePublisher) Publish(topic string, qos int, retained bool, payload []byte) error { return nil }

func newTestRegistry(t *testing.T, deliver registry.DeliverFunc) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Register(&registry.Entry{
		Name:    "svc",
		Deliver: deliver,
		Log:     logger.NewLogger("svc", logger.LevelError),
	}))
	return r
}

func TestQueueDeliversSuccessfulJob(t *testing.T) {
	var got *model.Item
	reg := newTestRegistry(t, func(ctx *model.ServiceCtx, item *model.Item) bool {
		got = item
		return true
	})
	q := New(0, 1, time.Second, reg, fakePublisher{}, "mqttwarn", logger.NewLogger("q", logger.LevelError))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Enqueue(&model.Job{ServiceName: "svc", TargetKey: "info", Message: "hello"})
	q.Close()
	q.Stop(time.Second)
	cancel()

	require.NotNil(t, got)
	assert.Equal(t, "hello", got.Message)

	ev := <-q.Events()
	assert.Equal(t, model.OutcomeSuccess, ev.Outcome)
}

func TestQueueRecordsFailureOutcome(t *testing.T) {
	reg := newTestRegistry(t, func(ctx *model.ServiceCtx, item *model.Item) bool { return false })
	q := New(0, 1, time.Second, reg, fakePublisher{}, "mqttwarn", logger.NewLogger("q", logger.LevelError))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Enqueue(&model.Job{ServiceName: "svc"})
	q.Close()
	q.Stop(time.Second)
	cancel()

	ev := <-q.Events()
	assert.Equal(t, model.OutcomeFailure, ev.Outcome)
}

func TestQueuePanicIsRecoveredAsFailure(t *testing.T) {
	reg := newTestRegistry(t, func(ctx *model.ServiceCtx, item *model.Item) bool {
		panic("sink exploded")
	})
	q := New(0, 1, time.Second, reg, fakePublisher{}, "mqttwarn", logger.NewLogger("q", logger.LevelError))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Enqueue(&model.Job{ServiceName: "svc"})
	q.Close()
	q.Stop(time.Second)
	cancel()

	ev := <-q.Events()
	assert.Equal(t, model.OutcomeFailure, ev.Outcome)
	assert.Contains(t, ev.Err, "panic recovered")
}

func TestQueueTimeoutOutcome(t *testing.T) {
	reg := newTestRegistry(t, func(ctx *model.ServiceCtx, item *model.Item) bool {
		time.Sleep(50 * time.Millisecond)
		return true
	})
	q := New(0, 1, 5*time.Millisecond, reg, fakePublisher{}, "mqttwarn", logger.NewLogger("q", logger.LevelError))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Enqueue(&model.Job{ServiceName: "svc"})
	q.Close()
	q.Stop(time.Second)
	cancel()

	ev := <-q.Events()
	assert.Equal(t, model.OutcomeTimeout, ev.Outcome)
}

func TestQueueUnknownServiceDropsSilently(t *testing.T) {
	var calls int32
	reg := newTestRegistry(t, func(ctx *model.ServiceCtx, item *model.Item) bool {
		atomic.AddInt32(&calls, 1)
		return true
	})
	q := New(0, 1, time.Second, reg, fakePublisher{}, "mqttwarn", logger.NewLogger("q", logger.LevelError))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	q.Enqueue(&model.Job{ServiceName: "nope"})
	q.Close()
	q.Stop(time.Second)
	cancel()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestQueueMultipleWorkersProcessAllJobs(t *testing.T) {
	var processed int32
	reg := newTestRegistry(t, func(ctx *model.ServiceCtx, item *model.Item) bool {
		atomic.AddInt32(&processed, 1)
		return true
	})
	q := New(0, 4, time.Second, reg, fakePublisher{}, "mqttwarn", logger.NewLogger("q", logger.LevelError))
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)

	for i := 0; i < 20; i++ {
		q.Enqueue(&model.Job{ServiceName: "svc"})
	}
	q.Close()
	q.Stop(time.Second)
	cancel()

	assert.Equal(t, int32(20), atomic.LoadInt32(&processed))
}
