package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/order-system/pkg/logger"
)

// HandlerFunc 任务处理函数；返回非 nil 即按退避计划重试
type HandlerFunc func(ctx context.Context, job *Job) error

// Worker 通知消费端：N 个 goroutine 消费就绪队列，另有一个 promoter
// 定时把到期的延迟任务搬回就绪队列
type Worker struct {
	queue    *Queue
	handlers map[string]HandlerFunc

	workers      int
	maxRetries   int
	backoffBase  time.Duration
	pollInterval time.Duration
}

func NewWorker(q *Queue, workers, maxRetries int, backoffBase time.Duration) *Worker {
	if workers <= 0 {
		workers = 4
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	if backoffBase <= 0 {
		backoffBase = time.Minute
	}
	return &Worker{
		queue:        q,
		handlers:     make(map[string]HandlerFunc),
		workers:      workers,
		maxRetries:   maxRetries,
		backoffBase:  backoffBase,
		pollInterval: time.Second,
	}
}

// Handle 注册任务类型处理函数
func (w *Worker) Handle(jobType string, h HandlerFunc) { w.handlers[jobType] = h }

// Start 启动消费；返回停止函数
func (w *Worker) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < w.workers; i++ {
		go w.consumeLoop(stop)
	}
	go w.promoteLoop(stop)
	return func(ctx context.Context) error {
		close(stop)
		return nil
	}
}

func (w *Worker) consumeLoop(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		job, err := w.queue.Dequeue(context.Background(), time.Second)
		if err != nil {
			logger.Warn("dequeue failed", zap.Error(err))
			time.Sleep(w.pollInterval)
			continue
		}
		if job == nil {
			continue
		}
		w.Process(context.Background(), job)
	}
}

func (w *Worker) promoteLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := w.queue.PromoteDue(context.Background(), time.Now()); err != nil {
				logger.Warn("promote scheduled jobs failed", zap.Error(err))
			}
		}
	}
}

// Process 执行一个任务并处理其重试/升级；导出以便测试驱动
func (w *Worker) Process(ctx context.Context, job *Job) {
	handler, ok := w.handlers[job.Type]
	if !ok {
		logger.Error("no handler for job type", zap.String("type", job.Type), zap.String("job_id", job.ID))
		return
	}

	err := handler(ctx, job)
	if err == nil {
		return
	}

	if job.Attempt < w.maxRetries {
		delay := w.Backoff(job.Attempt)
		job.Attempt++
		logger.Warn("job failed, scheduling retry",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
			zap.String("order_id", job.OrderID),
			zap.Int("attempt", job.Attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if sErr := w.queue.Schedule(ctx, job, time.Now().Add(delay)); sErr != nil {
			logger.Error("schedule retry failed", zap.String("job_id", job.ID), zap.Error(sErr))
		}
		return
	}

	// 重试耗尽：只升级告警，订单保持最后一次成功的状态
	logger.Error("job failed after exhausting retries",
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.String("order_id", job.OrderID),
		zap.Int("attempts", job.Attempt+1),
		zap.Error(err))
	sentry.CaptureException(fmt.Errorf("notification job %s (%s) for order %s exhausted retries: %w",
		job.ID, job.Type, job.OrderID, err))
}

// Backoff 第 attempt 次失败后的重试延迟：base × 2^attempt
func (w *Worker) Backoff(attempt int) time.Duration {
	return w.backoffBase << uint(attempt)
}
