package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// JSON writes the resource itself as the body. List endpoints pass slices.
func JSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"error": message,
		"code":  code,
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"error":   message,
		"code":    code,
		"details": details,
	})
}

// CustomError accepts a plain message, an error, or a validation map.
func CustomError(c *gin.Context, statusCode int, code string, message any) {
	switch m := message.(type) {
	case string:
		Error(c, statusCode, code, m)
	case error:
		Error(c, statusCode, code, m.Error())
	case map[string]string:
		ErrorWithDetails(c, statusCode, code, "Validation failed", m)
	default:
		Error(c, statusCode, code, fmt.Sprint(m))
	}
}
