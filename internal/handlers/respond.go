package handlers

import (
	"log"
	"net/http"

	"trivia-service/internal/apperrors"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// JsonError maps an error to its HTTP status and a client-safe body.
func JsonError(c *gin.Context, err error) {
	status := apperrors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Request failed: %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: apperrors.MessageOf(err),
	})
}
