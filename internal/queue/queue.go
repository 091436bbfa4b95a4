// Package queue implements a small redis-backed job queue for notification
// dispatch: a list for ready jobs plus a sorted set holding delayed retries,
// scored by the unix time they become due.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	readyKey     = "notify:jobs"
	scheduledKey = "notify:scheduled"
)

// Job 通知任务载荷
type Job struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    string    `json:"order_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob 构造首投任务
func NewJob(jobType, orderID string) *Job {
	return &Job{ID: uuid.New().String(), Type: jobType, OrderID: orderID, EnqueuedAt: time.Now()}
}

// Queue 就绪队列 + 延迟集合
type Queue struct {
	client *redis.Client
}

func New(client *redis.Client) *Queue { return &Queue{client: client} }

// Enqueue 投递到就绪队列
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, readyKey, payload).Err()
}

// Schedule 在 at 时刻后才可被取走
func (q *Queue) Schedule(ctx context.Context, job *Job, at time.Time) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, scheduledKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: payload,
	}).Err()
}

// Dequeue 阻塞取任务；超时返回 (nil, nil)
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	res, err := q.client.BRPop(ctx, timeout, readyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// res = [key, payload]
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// PromoteDue 把到期的延迟任务搬回就绪队列，返回搬运数量
func (q *Queue) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	members, err := q.client.ZRangeByScore(ctx, scheduledKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: formatScore(now),
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, m := range members {
		// 先移除再入队：ZRem 命中 0 说明被其他 promoter 抢走
		removed, err := q.client.ZRem(ctx, scheduledKey, m).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, readyKey, m).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// Len 就绪队列长度（采样值）
func (q *Queue) Len(ctx context.Context) int64 {
	n, _ := q.client.LLen(ctx, readyKey).Result()
	return n
}

// ScheduledLen 延迟集合大小（采样值）
func (q *Queue) ScheduledLen(ctx context.Context) int64 {
	n, _ := q.client.ZCard(ctx, scheduledKey).Result()
	return n
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
