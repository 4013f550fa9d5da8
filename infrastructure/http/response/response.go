package response

import (
	"convo-hub/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Fail maps err to its stable code. Internal details are never written.
func Fail(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    errors.CodeName(err),
			Message: errors.PublicMessage(err),
		},
	})
}
