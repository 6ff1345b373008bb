package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/instrument-catalog/internal/http/response"
)

const MsgUnknownEndpoint = "Unknown API endpoint."

// APIRoot sends /api visitors to the documentation page.
func APIRoot(c *gin.Context) {
	c.Redirect(http.StatusFound, "/api-docs")
}

func APINotFound(c *gin.Context) {
	response.RespondErrors(c, http.StatusNotFound, nil, MsgUnknownEndpoint)
}
