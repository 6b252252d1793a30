package util

import (
	"errors"
	"net/http"
	"praxis_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	ErrorType ErrorKind      `json:"error,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Data      interface{}    `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

// Fail 将业务错误转换为对应的 HTTP 响应，未知错误记日志后返回 500
func Fail(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		LogInternalError(c, err)
		return
	}

	status := appErr.Status()
	if status >= http.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(err))
	}

	c.JSON(status, Response{
		Code:      status,
		Message:   appErr.Message,
		ErrorType: appErr.Kind,
		Details:   appErr.Details,
	})
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.String("path", c.FullPath()), zap.Error(err))
	InternalServerError(c)
}
