package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/error/apperr"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/pkg/logger"
)

// Response is the uniform response envelope
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Page wraps a paginated list
type Page struct {
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
	Items      interface{} `json:"items"`
}

// NewPage builds a Page from a total count and the requested window
func NewPage(items interface{}, total int64, page, pageSize int) Page {
	var pages int64
	if pageSize > 0 {
		pages = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Page{Total: total, Page: page, PageSize: pageSize, TotalPages: pages, Items: items}
}

// Success writes a 200 response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    code.ErrSuccess,
		Message: code.GetMessage(code.ErrSuccess),
		Data:    data,
	})
}

// Created writes a 201 response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    code.ErrCreated,
		Message: code.GetMessage(code.ErrCreated),
		Data:    data,
	})
}

// Fail writes an error response using the code's default message
func Fail(c *gin.Context, errorCode int, data interface{}) {
	c.JSON(code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: code.GetMessage(errorCode),
		Data:    data,
	})
}

// FailWithMessage writes an error response with a custom message
func FailWithMessage(c *gin.Context, errorCode int, message string, data interface{}) {
	c.JSON(code.GetStatus(errorCode), Response{
		Code:    errorCode,
		Message: message,
		Data:    data,
	})
}

// Error translates a service error into a response. Application errors keep
// their code and message; anything else is logged and hidden behind a 500.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperr.As(err); ok {
		if appErr.Kind == apperr.KindInfrastructure {
			logger.Get().Error().Err(err).Str("path", c.Request.URL.Path).Msg("infrastructure failure")
			Fail(c, appErr.Code, nil)
			return
		}
		FailWithMessage(c, appErr.Code, appErr.Message, nil)
		return
	}
	logger.Get().Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	Fail(c, code.ErrUnknown, nil)
}

// ParamError writes a validation error
func ParamError(c *gin.Context, message string) {
	FailWithMessage(c, code.ErrValidation, message, nil)
}

// BindError writes a binding error with the binder's message
func BindError(c *gin.Context, err error) {
	FailWithMessage(c, code.ErrBind, "invalid request parameters: "+err.Error(), nil)
}

// ServerError writes a 500
func ServerError(c *gin.Context) {
	Fail(c, code.ErrUnknown, nil)
}

// NotFound writes a 404
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrNotFound)
	}
	FailWithMessage(c, code.ErrNotFound, message, nil)
}

// Unauthorized writes a 401
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrTokenInvalid)
	}
	FailWithMessage(c, code.ErrTokenInvalid, message, nil)
}

// Forbidden writes a 403
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = code.GetMessage(code.ErrForbidden)
	}
	FailWithMessage(c, code.ErrForbidden, message, nil)
}
