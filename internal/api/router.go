package api

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/order-system/config"
	"github.com/d60-Lab/order-system/internal/api/handler"
	"github.com/d60-Lab/order-system/internal/api/middleware"
	"github.com/d60-Lab/order-system/internal/service"
)

// SetupRouter 装配路由与中间件
func SetupRouter(cfg *config.Config, h *handler.Handler, auth *service.AuthService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	if cfg.Telemetry.Enabled {
		r.Use(otelgin.Middleware(cfg.Telemetry.Service))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.GET("/login", h.Login)
			authGroup.POST("/token", h.ExchangeToken)
			authGroup.GET("/status", middleware.AuthRequired(auth), h.AuthStatus)
		}

		customers := v1.Group("/customers", middleware.AuthRequired(auth))
		{
			customers.GET("/me", h.Me)
			customers.PUT("/me", h.UpdateMe)
		}

		categories := v1.Group("/categories")
		{
			categories.GET("", h.ListCategories)
			categories.GET("/tree", h.CategoryTree)
			categories.GET("/:id/avg_price", h.CategoryAvgPrice)
			categories.GET("/:id/products", h.CategoryProducts)

			admin := categories.Group("", middleware.AdminRequired(cfg.Auth.AdminKeyHash))
			admin.POST("", h.CreateCategory)
			admin.PUT("/:id", h.UpdateCategory)
		}

		products := v1.Group("/products")
		{
			products.GET("", h.ListProducts)
			products.GET("/:id", h.GetProduct)

			admin := products.Group("", middleware.AdminRequired(cfg.Auth.AdminKeyHash))
			admin.POST("", h.CreateProduct)
			admin.PUT("/:id", h.UpdateProduct)
		}

		orders := v1.Group("/orders", middleware.AuthRequired(auth))
		{
			orders.POST("", h.CreateOrder)
			orders.GET("", h.ListOrders)
			orders.GET("/summary", h.OrderSummary)
			orders.GET("/:id", h.GetOrder)
			orders.POST("/:id/confirm", h.ConfirmOrder)
			orders.POST("/:id/cancel", h.CancelOrder)
			orders.POST("/:id/advance", middleware.AdminRequired(cfg.Auth.AdminKeyHash), h.AdvanceOrder)
		}
	}

	return r
}
