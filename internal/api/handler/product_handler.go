package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/response"
)

func parseProductQuery(c *gin.Context) service.ProductQuery {
	query := service.ProductQuery{
		CategoryID: c.Query("category"),
		Search:     c.Query("search"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "0"))
	if v := c.Query("min_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			query.MinPrice = &d
		}
	}
	if v := c.Query("max_price"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			query.MaxPrice = &d
		}
	}
	return query
}

// ListProducts 商品列表
// @Summary 商品列表
// @Tags 商品
// @Param category query string false "分类ID（含子树）"
// @Param min_price query string false "最低价"
// @Param max_price query string false "最高价"
// @Param search query string false "名称模糊搜索"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	page, err := h.products.List(c.Request.Context(), parseProductQuery(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, page)
}

// GetProduct 商品详情
// @Summary 商品详情
// @Tags 商品
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, product)
}

// CreateProduct 新建商品（管理端）
// @Summary 新建商品
// @Tags 商品
// @Accept json
// @Param request body service.ProductInput true "商品信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	product, err := h.products.Create(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, product)
}

// UpdateProduct 更新商品（管理端）
// @Summary 更新商品
// @Tags 商品
// @Param id path string true "商品ID"
// @Param request body service.ProductInput true "商品信息"
// @Success 200 {object} response.Response
// @Router /api/v1/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	var input service.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	product, err := h.products.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, product)
}
