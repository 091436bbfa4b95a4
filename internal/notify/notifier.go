package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/d60-Lab/order-system/internal/queue"
	"github.com/d60-Lab/order-system/internal/repository"
	"github.com/d60-Lab/order-system/pkg/logger"
)

// Notifier 通知任务处理器；发送前检查落地标记保证幂等：
// 上游实际发成功但标记写失败的重试不会导致重复发送
type Notifier struct {
	orders     repository.OrderRepository
	customers  repository.CustomerRepository
	sms        SMSSender
	email      EmailSender
	adminEmail string
}

func NewNotifier(orders repository.OrderRepository, customers repository.CustomerRepository,
	sms SMSSender, email EmailSender, adminEmail string) *Notifier {
	return &Notifier{orders: orders, customers: customers, sms: sms, email: email, adminEmail: adminEmail}
}

// Register 把处理函数挂到 worker 上
func (n *Notifier) Register(w *queue.Worker) {
	w.Handle(JobOrderSMS, n.HandleOrderSMS)
	w.Handle(JobAdminEmail, n.HandleAdminEmail)
}

// HandleOrderSMS 给顾客发订单确认短信
func (n *Notifier) HandleOrderSMS(ctx context.Context, job *queue.Job) error {
	order, err := n.orders.GetByID(ctx, job.OrderID)
	if err != nil {
		return err
	}
	if order.SMSSent {
		logger.Info("sms already sent, skipping", zap.String("order_id", order.ID))
		return nil
	}

	customer, err := n.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}
	// 档案里没有手机号就交给重试（顾客补全后下次重试会送达）
	if customer.Phone == "" {
		return fmt.Errorf("customer %s has no phone number on file", customer.ID)
	}

	message := fmt.Sprintf("Order confirmed! #%s\nTotal: KES %s\nThank you for shopping with us!",
		order.OrderNumber, order.TotalAmount.StringFixed(2))
	if err := n.sms.Send(ctx, customer.Phone, message); err != nil {
		return err
	}

	if err := n.orders.MarkSMSSent(ctx, order.ID); err != nil {
		// 发送已成功；标记失败交给重试，幂等检查会拦住重发
		return err
	}
	logger.Info("order sms sent", zap.String("order_number", order.OrderNumber))
	return nil
}

// HandleAdminEmail 给管理员发新订单邮件
func (n *Notifier) HandleAdminEmail(ctx context.Context, job *queue.Job) error {
	order, err := n.orders.GetDetail(ctx, job.OrderID)
	if err != nil {
		return err
	}
	if order.EmailSent {
		logger.Info("admin email already sent, skipping", zap.String("order_id", order.ID))
		return nil
	}

	customer, err := n.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		return err
	}

	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}

	subject := fmt.Sprintf("New Order: #%s - KES %s", order.OrderNumber, order.TotalAmount.StringFixed(2))
	body := fmt.Sprintf(`New Order Received

Customer: %s (%s)
Phone: %s

Order: %s
Total: KES %s
Items: %d

Address: %s
Notes: %s
`,
		customer.FullName, customer.Email,
		customer.Phone,
		order.OrderNumber,
		order.TotalAmount.StringFixed(2),
		itemCount,
		orDefault(order.DeliveryAddress, "Not provided"),
		orDefault(order.DeliveryNotes, "None"))

	if err := n.email.Send(ctx, []string{n.adminEmail}, subject, body); err != nil {
		return err
	}
	if err := n.orders.MarkEmailSent(ctx, order.ID); err != nil {
		return err
	}
	logger.Info("admin email sent", zap.String("order_number", order.OrderNumber))
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
