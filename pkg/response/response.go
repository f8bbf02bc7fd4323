package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the unified API response format.
type Response struct {
	Code    int         `json:"code"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error kinds carried by AppError.
const (
	KindValidation = "validation"
	KindDuplicate  = "duplicate"
	KindConflict   = "conflict"
	KindDependency = "dependency"
	KindNotFound   = "not_found"
	KindForbidden  = "forbidden"
	KindInternal   = "internal"
)

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int         // HTTP status code (e.g. 400, 404, 500)
	Code       int         // Application-level error code
	Kind       string      // One of the Kind* constants
	Message    string      // Human-readable error message
	Data       interface{} // Optional payload, e.g. the dependent count of a blocked delete
}

func (e *AppError) Error() string {
	return e.Message
}

// Pre-defined error constructors

func NewBadRequest(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: 400, Kind: KindValidation, Message: msg}
}

// NewValidation is an alias of NewBadRequest used by the domain services.
func NewValidation(msg string) *AppError {
	return NewBadRequest(msg)
}

// NewDuplicate reports a name collision on reference data (roles, skills).
func NewDuplicate(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: 400, Kind: KindDuplicate, Message: msg}
}

// NewDependency reports a delete blocked by count dependents.
func NewDependency(msg string, count int64) *AppError {
	return &AppError{
		HTTPStatus: http.StatusBadRequest,
		Code:       400,
		Kind:       KindDependency,
		Message:    msg,
		Data:       gin.H{"count": count},
	}
}

func NewUnauthorized(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: 401, Kind: KindForbidden, Message: msg}
}

func NewForbidden(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusForbidden, Code: 403, Kind: KindForbidden, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: 404, Kind: KindNotFound, Message: msg}
}

func NewConflict(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: 409, Kind: KindConflict, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: 500, Kind: KindInternal, Message: msg}
}

// KindOf returns the kind of err, or KindInternal when err is not an *AppError.
func KindOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind string) bool {
	return err != nil && KindOf(err) == kind
}

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "ok",
		Data:    data,
	})
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise a generic 500 internal server error is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, Response{
			Code:    appErr.Code,
			Kind:    appErr.Kind,
			Message: appErr.Message,
			Data:    appErr.Data,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Code:    500,
		Kind:    KindInternal,
		Message: "internal server error",
	})
}

// Convenience error response functions

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Code: 400, Kind: KindValidation, Message: msg})
}

func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 401, Message: msg})
}

func Forbidden(c *gin.Context, msg string) {
	c.JSON(http.StatusForbidden, Response{Code: 403, Message: msg})
}

func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, Response{Code: 404, Kind: KindNotFound, Message: msg})
}

func ServerError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, Response{Code: 500, Kind: KindInternal, Message: msg})
}
