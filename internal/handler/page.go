package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/pagination"
	"github.com/maxviazov/catalog-service/internal/service"
)

// pageQuery binds the shared paging parameters; absent values take the defaults.
type pageQuery struct {
	PageNumber int `form:"pageNumber,default=1"`
	PageSize   int `form:"pageSize,default=10"`
}

// bindPage clamps the query against maxPageSize. Only non-integer values fail.
func bindPage(c *gin.Context, maxPageSize int) (pagination.Request, error) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return pagination.Request{}, service.InvalidField("pageNumber/pageSize", "must be integers")
	}
	return pagination.NewRequestWithMax(q.PageNumber, q.PageSize, maxPageSize), nil
}
