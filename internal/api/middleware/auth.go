package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/order-system/internal/model"
	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/response"
)

const customerKey = "auth.customer"

// AuthRequired Bearer 令牌认证；通过后把顾客放入请求上下文
func AuthRequired(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			response.Unauthorized(c, "missing or invalid Authorization header")
			return
		}
		token := strings.TrimPrefix(header, prefix)

		customer, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTokenExpired):
				response.Unauthorized(c, "token has expired")
			case errors.Is(err, service.ErrCustomerInactive):
				response.Unauthorized(c, "customer has been deactivated")
			default:
				response.Unauthorized(c, "invalid token")
			}
			return
		}
		c.Set(customerKey, customer)
		c.Next()
	}
}

// CustomerFrom 取出认证后的顾客；仅在 AuthRequired 之后的 handler 中调用
func CustomerFrom(c *gin.Context) *model.Customer {
	v, ok := c.Get(customerKey)
	if !ok {
		return nil
	}
	customer, _ := v.(*model.Customer)
	return customer
}

// AdminRequired 管理端 API Key 校验（bcrypt 哈希比对）
func AdminRequired(adminKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKeyHash == "" {
			response.Forbidden(c, "admin access is not configured")
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key == "" {
			response.Unauthorized(c, "missing admin key")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err != nil {
			response.Forbidden(c, "invalid admin key")
			return
		}
		c.Next()
	}
}
