package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rsjrcat/invoice-server-main-hd/internal/domain/shared"
	"github.com/rsjrcat/invoice-server-main-hd/internal/infrastructure/logger"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/dto"
	"github.com/rsjrcat/invoice-server-main-hd/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// tenantID returns the tenant resolved by the tenant middleware. A request
// reaching a handler without one is answered 401 and ok is false.
func (h *BaseHandler) tenantID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetTenantID(c)
	if !ok {
		h.ErrorWithCode(c, dto.ErrCodeUnauthorized, "Tenant identification required")
	}
	return id, ok
}

// pathID parses the :id path parameter
func (h *BaseHandler) pathID(c *gin.Context, entity string) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ErrorWithCode(c, shared.CodeValidation, "Invalid "+entity+" ID format")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.ErrorWithCode(c, shared.CodeValidation, "Invalid "+entity+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any, message string) {
	c.JSON(http.StatusCreated, dto.NewMessageResponse(data, message, nil))
}

// Message sends a 200 response with a message and optional warnings
func (h *BaseHandler) Message(c *gin.Context, data any, message string, warnings []string) {
	c.JSON(http.StatusOK, dto.NewMessageResponse(data, message, warnings))
}

// Paginated sends a page of results with offset metadata
func Paginated[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// HandleError writes err as a structured error response. Domain errors keep
// their code and details; deadline errors become 504; anything else is
// logged and reported as INTERNAL_ERROR without leaking its text.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	if domainErr, ok := shared.AsDomainError(err); ok {
		if domainErr.Code == shared.CodeInternal {
			logger.L(c.Request.Context()).Error("Request failed", zap.Error(err))
		}
		c.JSON(dto.GetHTTPStatus(domainErr.Code), dto.NewDomainErrorResponse(domainErr, requestID))
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		h.ErrorWithCode(c, dto.ErrCodeTimeout, "Request timed out")
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		shared.CodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}
