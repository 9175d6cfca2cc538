package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rebika14/eyee-wear-store/internal/httperr"
)

// fail records an application error on the context and aborts; the error
// middleware renders the envelope.
func fail(c *gin.Context, code int, message string, err error) {
	_ = c.Error(httperr.New(code, message, err))
	c.Abort()
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
