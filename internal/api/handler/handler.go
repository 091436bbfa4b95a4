package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/response"
)

// Handler 聚合各业务 service 的 HTTP 处理器
type Handler struct {
	categories *service.CategoryService
	products   *service.ProductService
	orders     *service.OrderService
	auth       *service.AuthService
	customers  *service.CustomerService
}

func New(categories *service.CategoryService, products *service.ProductService,
	orders *service.OrderService, auth *service.AuthService, customers *service.CustomerService) *Handler {
	return &Handler{categories: categories, products: products, orders: orders, auth: auth, customers: customers}
}

// writeServiceError 业务错误统一映射到 HTTP 状态码
func writeServiceError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		stockErr      *service.InsufficientStockError
		transitionErr *service.InvalidTransitionError
	)
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(c, validationErr.Error())
	case errors.As(err, &stockErr):
		response.Conflict(c, stockErr.Error())
	case errors.As(err, &transitionErr):
		response.Conflict(c, transitionErr.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "resource not found")
	case errors.Is(err, service.ErrNoProducts):
		response.NotFound(c, "no products found in this category")
	case errors.Is(err, service.ErrTokenExpired):
		response.Unauthorized(c, "token has expired")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, "invalid token")
	case errors.Is(err, service.ErrCustomerInactive):
		response.Unauthorized(c, "customer has been deactivated")
	default:
		response.InternalError(c, err)
	}
}
