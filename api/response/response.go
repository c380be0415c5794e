/*
Package response - API 层统一响应处理

设计原则:
1. HTTP 状态码映射放在 API 层，不污染领域层和应用层
2. 错误响应不暴露内部细节（堆栈、内部错误消息等）
3. 所有响应携带 RequestID 用于日志追踪
4. 内部错误统一返回 "internal server error"，真实错误只记录日志
5. 并发冲突返回 409 并标记 retryable，调用方可以整体重试

堆栈提取策略:
1. 优先从领域错误（实现 shared.Stacker 接口）提取"错误发生点"堆栈
2. 如果错误不带堆栈，则在此处捕获"错误处理点"堆栈作为兜底

响应格式:

	成功: { success: true, data: {...}, message: "...", code: 200, request_id: "..." }
	失败: { success: false, error: "ERROR_CODE", message: "用户可见消息", code: 4xx/5xx, retryable: true?, request_id: "..." }
*/
package response

import (
	"runtime"

	"github.com/gin-gonic/gin"
)

// RequestIDKey gin context 中保存请求 ID 的键
const RequestIDKey = "request_id"

// ============================================================================
// 响应结构体定义
// ============================================================================

// Response 通用响应结构
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`      // 错误码，不是错误详情
	Field     string      `json:"field,omitempty"`      // 出错的输入字段
	Code      int         `json:"code"`                 // HTTP 状态码
	Message   string      `json:"message"`              // 用户可见消息
	Retryable bool        `json:"retryable,omitempty"`  // 冲突类错误，可整体重试
	RequestID string      `json:"request_id,omitempty"` // 请求追踪 ID
}

// ============================================================================
// 辅助函数
// ============================================================================

// GetRequestID 从 gin 上下文获取请求 ID
func GetRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// captureStack 捕获调用栈（用于错误日志）
func captureStack(skip int) []string {
	var pcs [16]uintptr
	n := runtime.Callers(skip, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack []string
	for i := 0; i < 5; i++ { // 只取前 5 帧
		frame, more := frames.Next()
		if frame.Function != "" {
			stack = append(stack, frame.Function)
		}
		if !more {
			break
		}
	}
	return stack
}
