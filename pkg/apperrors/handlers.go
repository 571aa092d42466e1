package apperrors

import (
	"sync/atomic"

	"orgmarket_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - тело ответа: {"error": {...}}
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

var debugMode atomic.Bool

func init() { debugMode.Store(true) }

// SetDebug: вне debug текст 5xx ошибок заменяется общим сообщением
func SetDebug(debug bool) { debugMode.Store(debug) }

// HandleError пишет ошибку в ответ и прерывает цепочку gin
func HandleError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		if appErr.Err != nil {
			logger.CtxWithError(c.Request.Context(), "Server error", appErr.Err, "path", c.Request.URL.Path)
		}
		if !debugMode.Load() {
			appErr = &AppError{
				Code:     appErr.Code,
				Domain:   appErr.Domain,
				Message:  "Internal server error",
				HTTPCode: appErr.HTTPCode,
			}
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{Error: appErr})
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsInfrastructure - ошибка не из таксономии домена (БД, сеть) или 5xx
func IsInfrastructure(err error) bool {
	if err == nil {
		return false
	}
	appErr, ok := AsAppError(err)
	return !ok || appErr.HTTPCode >= 500
}
