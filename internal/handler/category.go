package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/service"
	"github.com/maxviazov/catalog-service/pkg/response"
)

type CategoryHandler struct {
	svc         service.CategoryService
	maxPageSize int
}

func NewCategoryHandler(svc service.CategoryService, maxPageSize int) *CategoryHandler {
	return &CategoryHandler{svc: svc, maxPageSize: maxPageSize}
}

// Register mounts /categories. limit guards every route except the full listing; nil disables it.
func (h *CategoryHandler) Register(r *gin.RouterGroup, limit gin.HandlerFunc) {
	g := r.Group("/categories")
	g.GET("", h.list)

	limited := g.Group("")
	if limit != nil {
		limited.Use(limit)
	}
	limited.GET("/products", h.listWithProducts)
	limited.GET("/pagination", h.page)
	limited.GET("/filter/name/pagination", h.pageByName)
	limited.GET("/:id", h.get)
	limited.POST("", h.create)
	limited.PUT("/:id", h.update)
	limited.DELETE("/:id", h.delete)
}

func (h *CategoryHandler) list(c *gin.Context) {
	out, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.CategoriesToDTO(out))
}

func (h *CategoryHandler) listWithProducts(c *gin.Context) {
	out, err := h.svc.ListCategoriesWithProducts(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.CategoriesWithProductsToDTO(out))
}

func (h *CategoryHandler) page(c *gin.Context) {
	req, err := bindPage(c, h.maxPageSize)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.PageCategories(c.Request.Context(), req)
	h.writePage(c, res, err)
}

func (h *CategoryHandler) pageByName(c *gin.Context) {
	req, err := bindPage(c, h.maxPageSize)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.PageCategoriesByName(c.Request.Context(), c.Query("name"), req)
	h.writePage(c, res, err)
}

func (h *CategoryHandler) writePage(c *gin.Context, res pagination.Result[model.Category], err error) {
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page := pagination.Map(res, model.CategoryToDTO)
	response.WritePage(c, page.Metadata, page.Items)
}

func (h *CategoryHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.GetCategory(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.CategoryToDTO(out))
}

func (h *CategoryHandler) create(c *gin.Context) {
	var dto model.CategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.CreateCategory(c.Request.Context(), model.CategoryFromDTO(dto))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Location", APIV1Prefix+"/categories/"+strconv.FormatInt(out.ID, 10))
	response.WriteData(c, http.StatusCreated, model.CategoryToDTO(out))
}

func (h *CategoryHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var dto model.CategoryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.UpdateCategory(c.Request.Context(), id, model.CategoryFromDTO(dto))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.CategoryToDTO(out))
}

func (h *CategoryHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.DeleteCategory(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.CategoryToDTO(out))
}
