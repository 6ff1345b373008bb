package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// pathID parses a positive integer route parameter.
func pathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
