package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func JSON200(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func JSON400(c *gin.Context, message string) {
	JSONError(c, http.StatusBadRequest, "INVALID_REQUEST", message)
}

func JSON401(c *gin.Context, message string) {
	JSONError(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func JSON403(c *gin.Context, message string) {
	JSONError(c, http.StatusForbidden, "FORBIDDEN", message)
}

func JSON404(c *gin.Context, message string) {
	JSONError(c, http.StatusNotFound, "NOT_FOUND", message)
}

func JSON413(c *gin.Context, message string) {
	JSONError(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", message)
}

func JSON500(c *gin.Context, message string) {
	JSONError(c, http.StatusInternalServerError, "INTERNAL_FAILURE", message)
}

// JSONError writes {"error": message, "code": code} and aborts the chain.
func JSONError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": message,
		"code":  code,
	})
}
