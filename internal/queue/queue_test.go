package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupQueue(t *testing.T) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client)
}

func TestEnqueueDequeue(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	job := NewJob("order_sms", "order-1")
	require.NoError(t, q.Enqueue(ctx, job))
	require.EqualValues(t, 1, q.Len(ctx))

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "order_sms", got.Type)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Zero(t, got.Attempt)
	assert.EqualValues(t, 0, q.Len(ctx))
}

func TestDequeueEmpty(t *testing.T) {
	q := setupQueue(t)

	got, err := q.Dequeue(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestScheduledJobsStayUntilDue(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()
	now := time.Now()

	job := NewJob("admin_email", "order-2")
	require.NoError(t, q.Schedule(ctx, job, now.Add(2*time.Minute)))
	require.EqualValues(t, 1, q.ScheduledLen(ctx))

	moved, err := q.PromoteDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.EqualValues(t, 0, q.Len(ctx))

	moved, err = q.PromoteDue(ctx, now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.EqualValues(t, 1, q.Len(ctx))
	assert.EqualValues(t, 0, q.ScheduledLen(ctx))

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)
}

func TestBackoffDoubles(t *testing.T) {
	w := NewWorker(nil, 1, 3, time.Minute)

	assert.Equal(t, time.Minute, w.Backoff(0))
	assert.Equal(t, 2*time.Minute, w.Backoff(1))
	assert.Equal(t, 4*time.Minute, w.Backoff(2))
}

func TestProcessSchedulesRetry(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	w := NewWorker(q, 1, 3, time.Minute)
	calls := 0
	w.Handle("order_sms", func(context.Context, *Job) error {
		calls++
		return errors.New("provider down")
	})

	job := NewJob("order_sms", "order-3")
	w.Process(ctx, job)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, job.Attempt)
	assert.EqualValues(t, 1, q.ScheduledLen(ctx))
	assert.EqualValues(t, 0, q.Len(ctx))

	// 重试任务要等退避期满才能被提起
	moved, err := q.PromoteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, moved)
	moved, err = q.PromoteDue(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
}

func TestProcessStopsAfterMaxRetries(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	w := NewWorker(q, 1, 3, time.Minute)
	calls := 0
	w.Handle("order_sms", func(context.Context, *Job) error {
		calls++
		return errors.New("provider down")
	})

	job := NewJob("order_sms", "order-4")
	for i := 0; i < 4; i++ {
		w.Process(ctx, job)
	}

	// 第 4 次失败后不再重排
	assert.Equal(t, 4, calls)
	assert.Equal(t, 3, job.Attempt)
	assert.EqualValues(t, 3, q.ScheduledLen(ctx))
}

func TestProcessSuccessNoRetry(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	w := NewWorker(q, 1, 3, time.Minute)
	w.Handle("admin_email", func(context.Context, *Job) error { return nil })

	w.Process(ctx, NewJob("admin_email", "order-5"))
	assert.EqualValues(t, 0, q.ScheduledLen(ctx))
	assert.EqualValues(t, 0, q.Len(ctx))
}

func TestUnknownJobTypeDropped(t *testing.T) {
	q := setupQueue(t)
	ctx := context.Background()

	w := NewWorker(q, 1, 3, time.Minute)
	w.Process(ctx, NewJob("carrier_pigeon", "order-6"))
	assert.EqualValues(t, 0, q.ScheduledLen(ctx))
}
