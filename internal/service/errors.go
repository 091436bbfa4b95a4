package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 实体不存在（或不属于当前顾客）
	ErrNotFound = errors.New("not found")
	// ErrNoProducts 子树内没有任何商品，均价无定义
	ErrNoProducts = errors.New("no products in category subtree")
	// ErrTokenExpired 令牌已过期
	ErrTokenExpired = errors.New("token has expired")
	// ErrInvalidToken 令牌签名或结构非法
	ErrInvalidToken = errors.New("invalid token")
	// ErrCustomerInactive 顾客账号被停用
	ErrCustomerInactive = errors.New("customer has been deactivated")
)

// ValidationError 输入校验失败
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InsufficientStockError 下单时某行库存不足；整单失败，不做任何扣减
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InvalidTransitionError 非法订单状态迁移
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}
