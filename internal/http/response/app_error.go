package response

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// AppError 携带业务码和用户可见文案的错误，Err 为内部原因，只记日志不返回
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Status 对应的 HTTP 状态码
func (e *AppError) Status() int {
	return httpStatus(e.Code)
}

// WrapError 用业务码和文案包装内部错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ErrorFrom 按 AppError 写出错误响应
func ErrorFrom(c *gin.Context, err *AppError) {
	Error(c, err.Code, err.Message)
}
