package handlers

import (
	"fmt"
	"strconv"

	"orgmarket_backend/internal/logger"
	"orgmarket_backend/internal/validator"
	"orgmarket_backend/pkg/apperrors"
	"orgmarket_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// BaseHandler - общие для всех хэндлеров биндинг, ошибки и доступ к контексту
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{validator: v}
}

// GetDB возвращает *gorm.DB, который положил DBMiddleware.
// Отсутствие означает ошибку сборки роутера, поэтому panic (его поймает Recovery).
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	key := string(contextkeys.DBContextKey)
	val, ok := c.Get(key)
	if !ok {
		panic("db is not set in gin context: DBMiddleware is missing")
	}
	db, ok := val.(*gorm.DB)
	if !ok {
		panic(fmt.Sprintf("db in gin context has type %T", val))
	}
	return db
}

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	return h.bind(c, obj, c.ShouldBindJSON, "Invalid request body")
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	return h.bind(c, obj, c.ShouldBindQuery, "Invalid query parameters")
}

func (h *BaseHandler) bind(c *gin.Context, obj interface{}, bindFn func(interface{}) error, message string) bool {
	ctx := c.Request.Context()

	if err := bindFn(obj); err != nil {
		logger.CtxWarn(ctx, "Bind failed", "error", err.Error(), "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError(message+": "+err.Error()))
		return false
	}

	err := h.validator.Validate(obj)
	if err == nil {
		return true
	}
	var vErr *validator.ValidationError
	if apperrors.As(err, &vErr) {
		logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		return false
	}
	apperrors.HandleError(c, apperrors.InternalError(err))
	return false
}

// Retry повторяет вызов один раз, если ошибка инфраструктурная и клиент еще ждет.
// Доменные ошибки возвращаются сразу.
func (h *BaseHandler) Retry(c *gin.Context, call func() error) error {
	err := call()
	if !apperrors.IsInfrastructure(err) || c.Request.Context().Err() != nil {
		return err
	}
	logger.CtxWarn(c.Request.Context(), "Retrying after infrastructure error", "error", err.Error(), "path", c.Request.URL.Path)
	return call()
}

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok && appErr.HTTPCode < 500 {
		logger.CtxWarn(c.Request.Context(), "Service error",
			"code", appErr.Code,
			"error", appErr.Message,
			"details", appErr.Details,
			"path", c.Request.URL.Path,
		)
	}
	// 5xx логирует HandleError
	apperrors.HandleError(c, err)
}

// GetAndAuthorizeUserID - ID пользователя, которого положил AuthMiddleware.
// При false ответ 401 уже записан.
func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	val, exists := c.Get(contextkeys.UserIDKey)
	if !exists {
		h.reject(c, "User not authenticated")
		return "", false
	}
	userID, ok := val.(string)
	if !ok || userID == "" {
		h.reject(c, "Invalid user ID in context")
		return "", false
	}
	return userID, true
}

func (h *BaseHandler) reject(c *gin.Context, message string) {
	logger.CtxWarn(c.Request.Context(), "Unauthorized access", "reason", message, "path", c.Request.URL.Path, "ip", c.ClientIP())
	apperrors.HandleError(c, apperrors.NewUnauthorizedError(message))
}

// ParseQueryInt - значение по умолчанию, если параметра нет или это не число
func ParseQueryInt(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func ParsePagination(c *gin.Context) (page int, pageSize int) {
	page = ParseQueryInt(c, "page", defaultPage)
	if page < 1 {
		page = defaultPage
	}
	pageSize = ParseQueryInt(c, "page_size", defaultPageSize)
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

// MessageResponse - ответ без данных
type MessageResponse struct {
	Message string `json:"message"`
}
