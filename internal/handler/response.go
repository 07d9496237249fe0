package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/bloodlink/blood-api/internal/model"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// GetPrincipal returns the authenticated principal set by the auth
// middleware, or nil on unauthenticated routes.
func GetPrincipal(c *gin.Context) *model.Principal {
	if v, exists := c.Get("principal"); exists {
		if principal, ok := v.(*model.Principal); ok {
			return principal
		}
	}
	return nil
}
