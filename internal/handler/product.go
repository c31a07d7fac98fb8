package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/service"
	"github.com/maxviazov/catalog-service/pkg/response"
)

type ProductHandler struct {
	svc         service.ProductService
	maxPageSize int
}

func NewProductHandler(svc service.ProductService, maxPageSize int) *ProductHandler {
	return &ProductHandler{svc: svc, maxPageSize: maxPageSize}
}

// Register mounts /products; listAll guards the unpaged listing.
func (h *ProductHandler) Register(r *gin.RouterGroup, listAll gin.HandlerFunc) {
	g := r.Group("/products")
	{
		if listAll != nil {
			g.GET("", listAll, h.list)
		} else {
			g.GET("", h.list)
		}
		g.GET("/pagination", h.page)
		g.GET("/filter/price/pagination", h.pageByPrice)
		g.GET("/:id", h.get)
		g.POST("", h.create)
		g.PATCH("/:id", h.patch)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
	}
}

func (h *ProductHandler) list(c *gin.Context) {
	out, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.ProductsToDTO(out))
}

func (h *ProductHandler) page(c *gin.Context) {
	req, err := bindPage(c, h.maxPageSize)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	res, err := h.svc.PageProducts(c.Request.Context(), req)
	h.writePage(c, res, err)
}

func (h *ProductHandler) pageByPrice(c *gin.Context) {
	req, err := bindPage(c, h.maxPageSize)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var price *float64
	if raw := strings.TrimSpace(c.Query("price")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.WriteError(c, service.InvalidField("price", "must be a number"))
			return
		}
		price = &v
	}
	res, err := h.svc.PageProductsByPrice(c.Request.Context(), price, c.Query("criterion"), req)
	h.writePage(c, res, err)
}

func (h *ProductHandler) writePage(c *gin.Context, res pagination.Result[model.Product], err error) {
	if err != nil {
		response.WriteError(c, err)
		return
	}
	page := pagination.Map(res, model.ProductToDTO)
	response.WritePage(c, page.Metadata, page.Items)
}

func (h *ProductHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.ProductToDTO(out))
}

func (h *ProductHandler) create(c *gin.Context) {
	var dto model.ProductDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.CreateProduct(c.Request.Context(), model.ProductFromDTO(dto))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Location", APIV1Prefix+"/products/"+strconv.FormatInt(out.ID, 10))
	response.WriteData(c, http.StatusCreated, model.ProductToDTO(out))
}

func (h *ProductHandler) patch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req model.ProductPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.PatchProduct(c.Request.Context(), id, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.ProductToPatchResponse(out))
}

func (h *ProductHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var dto model.ProductDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	out, err := h.svc.UpdateProduct(c.Request.Context(), id, model.ProductFromDTO(dto))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.ProductToDTO(out))
}

func (h *ProductHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.ProductToDTO(out))
}
