package handlers

import (
	"net/http"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/services"
	"orgmarket_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	*BaseHandler
	profileService      services.ProfileService
	subscriptionService services.SubscriptionService
}

func NewProfileHandler(base *BaseHandler, profileService services.ProfileService, subscriptionService services.SubscriptionService) *ProfileHandler {
	return &ProfileHandler{
		BaseHandler:         base,
		profileService:      profileService,
		subscriptionService: subscriptionService,
	}
}

func (h *ProfileHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	profiles := rg.Group("/profile", authMW)
	{
		profiles.GET("/", h.GetMyProfile)
		profiles.PUT("/", h.UpdateProfile)
		profiles.GET("/:slug/", h.GetProfileBySlug)
	}

	subscription := rg.Group("/subscription", authMW)
	{
		subscription.GET("/", h.GetSubscription)
		subscription.POST("/:tier/", h.Subscribe)
	}
}

// GetMyProfile godoc
// @Summary Мой профиль
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ProfileResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /profile/ [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var profile *dto.ProfileResponse
	err := h.Retry(c, func() (err error) {
		profile, err = h.profileService.GetMyProfile(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Обновление профиля
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Изменяемые поля"
// @Success 200 {object} dto.ProfileResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /profile/ [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	db := h.GetDB(c)
	var profile *dto.ProfileResponse
	err := h.Retry(c, func() (err error) {
		profile, err = h.profileService.UpdateProfile(db, userID, &req)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) GetProfileBySlug(c *gin.Context) {
	db := h.GetDB(c)
	var profile *dto.ProfileResponse
	err := h.Retry(c, func() (err error) {
		profile, err = h.profileService.GetProfileBySlug(db, c.Param("slug"))
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) GetSubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	db := h.GetDB(c)
	var sub *dto.SubscriptionResponse
	err := h.Retry(c, func() (err error) {
		sub, err = h.subscriptionService.GetSubscription(db, userID)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// Subscribe godoc
// @Summary Оформление подписки
// @Description Trial на 7 дней, Basic на 60, Premium без срока
// @Tags subscription
// @Produce json
// @Security BearerAuth
// @Param tier path string true "Тариф" Enums(Trial, Basic, Premium)
// @Success 200 {object} dto.SubscriptionResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /subscription/{tier}/ [post]
func (h *ProfileHandler) Subscribe(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	tier := models.SubscriptionTier(c.Param("tier"))
	db := h.GetDB(c)
	var sub *dto.SubscriptionResponse
	err := h.Retry(c, func() (err error) {
		sub, err = h.subscriptionService.Subscribe(db, userID, tier)
		return err
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}
