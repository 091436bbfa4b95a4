package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/order-system/internal/queue"
	"github.com/d60-Lab/order-system/pkg/logger"
)

// 任务类型
const (
	JobOrderSMS   = "order_sms"
	JobAdminEmail = "admin_email"
)

// Dispatcher 订单确认后投递两个互相独立的通知任务（fire-and-forget）
type Dispatcher struct {
	q *queue.Queue
}

func NewDispatcher(q *queue.Queue) *Dispatcher { return &Dispatcher{q: q} }

// Dispatch 入队顾客短信与管理员邮件任务，返回任务句柄，不等待执行
func (d *Dispatcher) Dispatch(ctx context.Context, orderID string) ([]string, error) {
	smsJob := queue.NewJob(JobOrderSMS, orderID)
	emailJob := queue.NewJob(JobAdminEmail, orderID)

	if err := d.q.Enqueue(ctx, smsJob); err != nil {
		return nil, err
	}
	if err := d.q.Enqueue(ctx, emailJob); err != nil {
		return []string{smsJob.ID}, err
	}
	logger.Info("order notifications enqueued",
		zap.String("order_id", orderID),
		zap.String("sms_job", smsJob.ID),
		zap.String("email_job", emailJob.ID))
	return []string{smsJob.ID, emailJob.ID}, nil
}
