package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-system/internal/api/middleware"
	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/response"
)

// Me 当前顾客档案
// @Summary 我的档案
// @Tags 顾客
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/customers/me [get]
func (h *Handler) Me(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	profile, err := h.customers.Get(c.Request.Context(), customer.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateMe 更新当前顾客档案（姓名 / 手机号）
// @Summary 更新我的档案
// @Tags 顾客
// @Accept json
// @Produce json
// @Param request body service.ProfileInput true "档案信息"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/customers/me [put]
func (h *Handler) UpdateMe(c *gin.Context) {
	var input service.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	customer := middleware.CustomerFrom(c)
	profile, err := h.customers.UpdateProfile(c.Request.Context(), customer.ID, input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, profile)
}
