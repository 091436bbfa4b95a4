package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-system/internal/api/middleware"
	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/response"
)

// CreateOrder 下单
// @Summary 创建订单（校验并扣减库存，整单原子）
// @Tags 订单
// @Accept json
// @Produce json
// @Param request body service.CreateOrderInput true "订单信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	customer := middleware.CustomerFrom(c)
	order, err := h.orders.Create(c.Request.Context(), customer.ID, input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, order)
}

// ListOrders 当前顾客订单列表
// @Summary 订单列表
// @Tags 订单
// @Param status query string false "状态过滤"
// @Param page query int false "页码" default(1)
// @Success 200 {object} response.Response
// @Router /api/v1/orders [get]
func (h *Handler) ListOrders(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	orders, err := h.orders.List(c.Request.Context(), customer.ID, c.Query("status"), page, pageSize)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, orders)
}

// GetOrder 订单详情
// @Summary 订单详情
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	order, err := h.orders.Get(c.Request.Context(), customer.ID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// ConfirmOrder 确认订单并触发通知
// @Summary 确认订单
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/confirm [post]
func (h *Handler) ConfirmOrder(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	order, err := h.orders.Confirm(c.Request.Context(), customer.ID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// CancelOrder 取消订单并回补库存
// @Summary 取消订单
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	order, err := h.orders.Cancel(c.Request.Context(), customer.ID, c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "order cancelled", "order": order})
}

// AdvanceOrder 推进订单状态（管理端）
// @Summary 推进订单状态
// @Tags 订单
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/advance [post]
func (h *Handler) AdvanceOrder(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	order, err := h.orders.Advance(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, order)
}

// OrderSummary 当前顾客订单汇总
// @Summary 订单汇总
// @Tags 订单
// @Success 200 {object} response.Response
// @Router /api/v1/orders/summary [get]
func (h *Handler) OrderSummary(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	summary, err := h.orders.Summary(c.Request.Context(), customer.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, summary)
}
