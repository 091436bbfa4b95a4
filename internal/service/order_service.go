package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/repository"
	"github.com/d60-Lab/order-system/pkg/logger"
)

// Dispatcher 订单确认后的通知派发口（只入队，不等待执行）
type Dispatcher interface {
	Dispatch(ctx context.Context, orderID string) (jobIDs []string, err error)
}

// OrderConfig 订单业务参数，构造时注入，不读全局状态
type OrderConfig struct {
	TaxRate  decimal.Decimal
	MaxItems int
}

// OrderItemInput 下单明细行
type OrderItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderInput 下单入参
type CreateOrderInput struct {
	DeliveryAddress string           `json:"delivery_address"`
	DeliveryNotes   string           `json:"delivery_notes"`
	Items           []OrderItemInput `json:"items" binding:"required"`
}

// OrderPage 订单分页结果
type OrderPage struct {
	Items    []*model.Order `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// OrderService 订单状态机：下单扣库存、确认、取消回补、推进状态
type OrderService struct {
	db         *gorm.DB
	orders     repository.OrderRepository
	dispatcher Dispatcher
	cfg        OrderConfig
	pageSize   int
}

func NewOrderService(db *gorm.DB, orders repository.OrderRepository, dispatcher Dispatcher, cfg OrderConfig, pageSize int) *OrderService {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 20
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &OrderService{db: db, orders: orders, dispatcher: dispatcher, cfg: cfg, pageSize: pageSize}
}

// Create 下单。整单要么全部成功，要么不留任何库存变更：
// 扣减用带 stock_quantity >= ? 守卫的 UPDATE，0 行命中即库存不足并回滚整个事务，
// 并发下单在存储层串行化，库存不会为负。
func (s *OrderService) Create(ctx context.Context, customerID string, input CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, validationErrorf("order must have at least one item")
	}
	if len(input.Items) > s.cfg.MaxItems {
		return nil, validationErrorf("order cannot have more than %d items", s.cfg.MaxItems)
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, validationErrorf("quantity must be at least 1")
		}
	}

	order := &model.Order{
		ID:              uuid.New().String(),
		OrderNumber:     GenerateOrderNumber(),
		CustomerID:      customerID,
		Status:          model.OrderStatusPending,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryNotes:   input.DeliveryNotes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		items := make([]model.OrderItem, 0, len(input.Items))

		for _, line := range input.Items {
			var product model.Product
			if err := tx.Where("id = ? AND is_active = ?", line.ProductID, true).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationErrorf("product %s is not available", line.ProductID)
				}
				return err
			}

			// 守卫式扣减：受影响行数为 0 即并发下已不足
			res := tx.Model(&model.Product{}).
				Where("id = ? AND stock_quantity >= ?", product.ID, line.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{
					ProductName: product.Name,
					Requested:   line.Quantity,
					Available:   product.StockQuantity,
				}
			}

			lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			items = append(items, model.OrderItem{
				ID:          uuid.New().String(),
				OrderID:     order.ID,
				ProductID:   product.ID,
				ProductName: product.Name,
				ProductSKU:  product.SKU,
				Quantity:    line.Quantity,
				UnitPrice:   product.Price,
				LineTotal:   lineTotal,
			})
			subtotal = subtotal.Add(lineTotal)
		}

		order.Subtotal = subtotal
		order.TaxAmount = subtotal.Mul(s.cfg.TaxRate).Round(2)
		order.TotalAmount = order.Subtotal.Add(order.TaxAmount)
		order.Items = items

		return tx.Create(order).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Confirm PENDING -> CONFIRMED，成功后异步派发通知任务
func (s *OrderService) Confirm(ctx context.Context, customerID, orderID string) (*model.Order, error) {
	order, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	// 状态守卫更新，避免并发重复确认
	res := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusPending).
		Update("status", model.OrderStatusConfirmed)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &InvalidTransitionError{From: order.Status, To: model.OrderStatusConfirmed}
	}
	order.Status = model.OrderStatusConfirmed

	if s.dispatcher != nil {
		if _, err := s.dispatcher.Dispatch(ctx, orderID); err != nil {
			// 派发失败不影响确认结果
			logger.Error("dispatch order notifications failed",
				zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return order, nil
}

// Cancel 仅 PENDING / CONFIRMED 可取消；逐行回补库存，与状态写入同一事务
func (s *OrderService) Cancel(ctx context.Context, customerID, orderID string) (*model.Order, error) {
	order, err := s.ownedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Order{}).
			Where("id = ? AND status IN ?", orderID,
				[]string{model.OrderStatusPending, model.OrderStatusConfirmed}).
			Update("status", model.OrderStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &InvalidTransitionError{From: order.Status, To: model.OrderStatusCancelled}
		}

		var items []model.OrderItem
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := tx.Model(&model.Product{}).
				Where("id = ?", item.ProductID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Status = model.OrderStatusCancelled
	return order, nil
}

// Advance 按迁移表推进状态；除状态写入外无任何副作用
func (s *OrderService) Advance(ctx context.Context, orderID, next string) (*model.Order, error) {
	if !model.ValidOrderStatus(next) {
		return nil, validationErrorf("unknown order status %q", next)
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !model.CanTransition(order.Status, next) {
		return nil, &InvalidTransitionError{From: order.Status, To: next}
	}

	res := s.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, order.Status).
		Update("status", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &InvalidTransitionError{From: order.Status, To: next}
	}
	order.Status = next
	return order, nil
}

// Get 订单详情（含明细行），仅限本人订单
func (s *OrderService) Get(ctx context.Context, customerID, orderID string) (*model.Order, error) {
	order, err := s.orders.GetDetail(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotFound
	}
	return order, nil
}

// List 当前顾客订单分页
func (s *OrderService) List(ctx context.Context, customerID, status string, page, pageSize int) (*OrderPage, error) {
	if status != "" && !model.ValidOrderStatus(status) {
		return nil, validationErrorf("unknown order status %q", status)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = s.pageSize
	}
	items, total, err := s.orders.ListByCustomer(ctx, customerID, status, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, err
	}
	return &OrderPage{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Summary 当前顾客订单汇总
func (s *OrderService) Summary(ctx context.Context, customerID string) (*repository.OrderSummary, error) {
	return s.orders.Summary(ctx, customerID)
}

func (s *OrderService) ownedOrder(ctx context.Context, customerID, orderID string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrNotFound
	}
	return order, nil
}

// GenerateOrderNumber 形如 ORD-20260831-9F3A
func GenerateOrderNumber() string {
	datePart := time.Now().Format("20060102")
	uniquePart := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", datePart, uniquePart)
}
