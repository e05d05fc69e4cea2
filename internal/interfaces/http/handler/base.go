// Package handler implements the HTTP endpoints of the shop bot.
package handler

import (
	"net/http"

	"github.com/dukaandost/backend/internal/interfaces/http/dto"
	"github.com/dukaandost/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response carrying the request id
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Unavailable sends a 503 response
func (h *BaseHandler) Unavailable(c *gin.Context, data any) {
	c.JSON(http.StatusServiceUnavailable, dto.Response{
		Success:   false,
		Data:      data,
		Error:     &dto.ErrorInfo{Code: dto.ErrCodeUnavailable, Message: "One or more dependencies are unhealthy"},
		RequestID: middleware.GetRequestID(c),
	})
}
