package errors

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace/domain/shared"
)

// ErrorCode 错误码
type ErrorCode string

const (
	// 通用错误码
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeInvalidInput   ErrorCode = "INVALID_INPUT"

	// 领域错误码
	CodeBusinessRule       ErrorCode = "BUSINESS_RULE_VIOLATION"
	CodeConcurrentModify   ErrorCode = "CONCURRENCY_CONFLICT"
	CodeNoTransaction      ErrorCode = "NO_TRANSACTION"
	CodeTransactionPending ErrorCode = "TRANSACTION_ALREADY_OPEN"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode 返回对应的HTTP状态码
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConcurrentModify:
		return http.StatusConflict
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeBusinessRule:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// New 创建新错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

// Is 检查是否为特定错误码
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// FromDomainError 按 shared 哨兵错误分类映射为应用错误。
// 无法识别的错误归为内部错误，原始错误保留在 Err 中。
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// 面向客户端的消息只取 DomainError.Message，底层原因只留在 Err 中写日志
	var field string
	message := err.Error()
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		field = domainErr.Field
		message = domainErr.Message
	}

	var code ErrorCode
	switch {
	case errors.Is(err, shared.ErrConcurrencyConflict):
		code = CodeConcurrentModify
	case errors.Is(err, shared.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, shared.ErrInvalidInput):
		code = CodeInvalidInput
	case errors.Is(err, shared.ErrForbidden):
		code = CodeForbidden
	case errors.Is(err, shared.ErrBusinessRule):
		code = CodeBusinessRule
	case errors.Is(err, shared.ErrNoTransaction):
		code = CodeNoTransaction
	case errors.Is(err, shared.ErrTransactionAlreadyOpen):
		code = CodeTransactionPending
	default:
		return Wrap(err, CodeInternal, "internal server error")
	}
	return &AppError{Code: code, Message: message, Field: field, Err: err}
}
