package response

import (
	stdErrors "errors"
	"net/http"

	"marketplace/domain/shared"
	"marketplace/pkg/errors"
	"marketplace/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleError 处理参数绑定等框架层错误
func HandleError(c *gin.Context, err error, message string, code int) {
	requestID := GetRequestID(c)

	logger.Warn(message,
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Int("status", code),
		zap.Error(err))

	c.JSON(code, &Response{
		Success:   false,
		Error:     string(errors.CodeBadRequest),
		Message:   message,
		Code:      code,
		RequestID: requestID,
	})
}

// HandleAppError 按应用错误码映射 HTTP 状态码
// 完整错误与堆栈只写日志；内部错误对客户端只返回通用消息
func HandleAppError(c *gin.Context, err error) {
	requestID := GetRequestID(c)
	appErr := errors.FromDomainError(err)
	httpStatus := appErr.HTTPStatusCode()

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.String("error_code", string(appErr.Code)),
		zap.Int("http_status", httpStatus),
	}
	if appErr.Err != nil {
		fields = append(fields, zap.Error(appErr.Err))
	}

	userMessage := appErr.Message
	if httpStatus >= http.StatusInternalServerError {
		fields = append(fields, zap.Strings("stack", extractStack(err)))
		logger.Error("request failed", fields...)
		userMessage = "internal server error"
	} else {
		logger.Warn(appErr.Message, fields...)
	}

	c.JSON(httpStatus, &Response{
		Success:   false,
		Error:     string(appErr.Code),
		Field:     appErr.Field,
		Message:   userMessage,
		Code:      httpStatus,
		Retryable: appErr.Code == errors.CodeConcurrentModify,
		RequestID: requestID,
	})
}

// extractStack 优先提取"错误发生点"堆栈，否则捕获"错误处理点"堆栈
func extractStack(err error) []string {
	var stacker shared.Stacker
	if stdErrors.As(err, &stacker) {
		if stack := stacker.Stack(); len(stack) > 0 {
			return stack
		}
	}
	return captureStack(4) // skip: Callers, captureStack, extractStack, HandleAppError
}
