package handlers

import (
	"net/http"

	"orgmarket_backend/internal/middleware"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes - /authorization/*; limiter ставится на публичные ручки
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMW, limiter gin.HandlerFunc) {
	public := rg.Group("/authorization", limiter)
	{
		public.POST("/registration", h.Register)
		public.POST("/login", h.Login)
		public.POST("/verify", h.VerifyEmail)
		public.POST("/resend", h.ResendCode)
		public.POST("/logout", h.Logout)
		public.POST("/refresh-token", h.Refresh)
	}

	private := rg.Group("/authorization", authMW)
	{
		private.GET("/me", h.Me)
		private.POST("/change-password", h.ChangePassword)
		private.DELETE("/delete-account", h.DeleteAccount)
	}
}

// Register godoc
// @Summary Регистрация
// @Description Создает неподтвержденного пользователя и отправляет код на почту
// @Tags authorization
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Данные регистрации"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse "Email занят"
// @Router /authorization/registration [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.authService.Register(db, &req) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "Registration successful. Please check your email for the confirmation code."})
}

// Login godoc
// @Summary Вход
// @Tags authorization
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Email и пароль"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 403 {object} apperrors.ErrorResponse "Email не подтвержден"
// @Router /authorization/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var response *dto.LoginResponse
	err := h.Retry(c, func() (err error) {
		response, err = h.authService.Login(db, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyEmail godoc
// @Summary Подтверждение email кодом
// @Tags authorization
// @Accept json
// @Produce json
// @Param request body dto.VerifyEmailRequest true "Email и код"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /authorization/verify [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.authService.VerifyEmail(db, &req) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Email successfully verified"})
}

func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req dto.ResendCodeRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.authService.ResendCode(db, req.Email) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Confirmation code sent"})
}

// Logout godoc
// @Summary Выход
// @Description Отзывает refresh токен; повторный вызов не ошибка
// @Tags authorization
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh токен"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /authorization/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.authService.Logout(db, req.Refresh) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Successfully logged out"})
}

// Refresh godoc
// @Summary Новый access токен
// @Tags authorization
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh токен"
// @Success 200 {object} dto.RefreshResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /authorization/refresh-token [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var response *dto.RefreshResponse
	err := h.Retry(c, func() (err error) {
		response, err = h.authService.Refresh(db, req.Refresh)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Me godoc
// @Summary Данные текущего токена
// @Tags authorization
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.IntrospectResponse
// @Router /authorization/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	info, err := h.authService.Introspect(middleware.BearerToken(c.Request))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.authService.ChangePassword(db, userID, &req) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Password changed"})
}

// DeleteAccount godoc
// @Summary Удаление аккаунта
// @Description Недоступно, пока пользователь владеет организациями
// @Tags authorization
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /authorization/delete-account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	if err := h.Retry(c, func() error { return h.authService.DeleteAccount(db, userID) }); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
