package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/service"
)

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, service.InvalidField("id", "must be an integer")
	}
	return id, nil
}

func malformedBody() error {
	return service.InvalidField("body", "malformed JSON")
}
