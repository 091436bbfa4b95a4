package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/order-system/internal/service"
	"github.com/d60-Lab/order-system/pkg/response"
)

// ListCategories 平铺列出分类
// @Summary 分类列表
// @Tags 分类
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/categories [get]
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"items": categories, "total": len(categories)})
}

// CategoryTree 返回嵌套分类树
// @Summary 分类树
// @Tags 分类
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/categories/tree [get]
func (h *Handler) CategoryTree(c *gin.Context) {
	tree, err := h.categories.Tree(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, gin.H{"tree": tree})
}

// CategoryAvgPrice 子树均价
// @Summary 分类子树商品均价
// @Tags 分类
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/categories/{id}/avg_price [get]
func (h *Handler) CategoryAvgPrice(c *gin.Context) {
	stats, err := h.categories.AveragePrice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, stats)
}

// CategoryProducts 分类（含子树）下的商品
// @Summary 分类下商品列表
// @Tags 分类
// @Param id path string true "分类ID"
// @Success 200 {object} response.Response
// @Router /api/v1/categories/{id}/products [get]
func (h *Handler) CategoryProducts(c *gin.Context) {
	query := parseProductQuery(c)
	query.CategoryID = c.Param("id")
	page, err := h.products.List(c.Request.Context(), query)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, page)
}

// CreateCategory 新建分类（管理端）
// @Summary 新建分类
// @Tags 分类
// @Accept json
// @Produce json
// @Param request body service.CategoryInput true "分类信息"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/categories [post]
func (h *Handler) CreateCategory(c *gin.Context) {
	var input service.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	category, err := h.categories.Create(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Created(c, category)
}

// UpdateCategory 更新分类（管理端）
// @Summary 更新分类
// @Tags 分类
// @Param id path string true "分类ID"
// @Param request body service.CategoryInput true "分类信息"
// @Success 200 {object} response.Response
// @Router /api/v1/categories/{id} [put]
func (h *Handler) UpdateCategory(c *gin.Context) {
	var input service.CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	category, err := h.categories.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	response.Success(c, category)
}
