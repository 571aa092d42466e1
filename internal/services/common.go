package services

import (
	"context"
	"errors"
	"time"

	"orgmarket_backend/internal/events"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Clock подменяется в тестах
type Clock func() time.Time

func buildPaginatedResponse(data interface{}, total int64, page, pageSize int) *dto.PaginatedResponse {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(total / int64(pageSize))
	if total%int64(pageSize) != 0 {
		totalPages++
	}
	return &dto.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		HasMore:    page < totalPages,
	}
}

// ctxOf - контекст запроса, привязанный к *gorm.DB в DBMiddleware
func ctxOf(db *gorm.DB) context.Context {
	if db != nil && db.Statement != nil && db.Statement.Context != nil {
		return db.Statement.Context
	}
	return context.Background()
}

// publish - события отправляются только после успешного commit.
// Отмена запроса после commit не должна терять уведомления, поэтому отмена отвязывается.
func publish(db *gorm.DB, bus *events.Bus, evs ...events.Event) {
	if bus == nil || len(evs) == 0 {
		return
	}
	bus.Publish(context.WithoutCancel(ctxOf(db)), evs...)
}

// resolveProfile - профиль текущего пользователя по user_id из токена
func resolveProfile(db *gorm.DB, repo repositories.ProfileRepository, userID string) (*models.UserProfile, error) {
	profile, err := repo.FindByUserID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return profile, nil
}

func toProfileShort(p *models.UserProfile) dto.ProfileShort {
	if p == nil {
		return dto.ProfileShort{}
	}
	return dto.ProfileShort{
		ID:       p.ID,
		Slug:     p.Slug,
		FullName: p.FullName(),
		Image:    p.Image,
	}
}

func toOrganizationShort(o *models.Organization) *dto.OrganizationShort {
	if o == nil {
		return nil
	}
	return &dto.OrganizationShort{
		ID:    o.ID,
		Slug:  o.Slug,
		Title: o.Title,
		Logo:  o.Logo,
	}
}

// internalOr - доменные ошибки проходят как есть, остальное становится 500
func internalOr(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.InternalError(err)
}
