package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-system/internal/api/middleware"
	"github.com/d60-Lab/order-system/pkg/response"
)

type exchangeRequest struct {
	// Assertion 外部身份提供方签发的 ID Token
	Assertion string `json:"assertion" binding:"required"`
}

// ExchangeToken 外部身份断言换本地会话令牌
// @Summary 换取会话令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body exchangeRequest true "外部断言"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/token [post]
func (h *Handler) ExchangeToken(c *gin.Context) {
	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	token, customer, err := h.auth.Exchange(c.Request.Context(), req.Assertion)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "customer": customer})
}

// Login 返回外部身份提供方的登录入口
// @Summary 登录入口
// @Tags 认证
// @Success 200 {object} response.Response
// @Router /api/v1/auth/login [get]
func (h *Handler) Login(c *gin.Context) {
	response.Success(c, gin.H{
		"provider":  "oidc",
		"login_url": h.auth.LoginURL(),
		"message":   "complete the provider login, then POST the ID token to /api/v1/auth/token",
	})
}

// AuthStatus 当前会话状态
// @Summary 会话状态
// @Tags 认证
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/status [get]
func (h *Handler) AuthStatus(c *gin.Context) {
	customer := middleware.CustomerFrom(c)
	response.Success(c, gin.H{"authenticated": true, "customer": customer})
}
