package services

import (
	"errors"
	"strings"

	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/internal/services/dto"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

type ReviewService interface {
	CreateReview(db *gorm.DB, userID, orderSlug string, req *dto.ReviewRequest) (*dto.ReviewResponse, error)
	ListOrganizationReviews(db *gorm.DB, orgSlug string, page, pageSize int) (*dto.PaginatedResponse, error)
	GetOrganizationRating(db *gorm.DB, orgSlug string) (float64, error)
}

type ReviewServiceImpl struct {
	reviewRepo  repositories.ReviewRepository
	orderRepo   repositories.OrderRepository
	orgRepo     repositories.OrganizationRepository
	profileRepo repositories.ProfileRepository
}

func NewReviewService(
	reviewRepo repositories.ReviewRepository,
	orderRepo repositories.OrderRepository,
	orgRepo repositories.OrganizationRepository,
	profileRepo repositories.ProfileRepository,
) ReviewService {
	return &ReviewServiceImpl{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		orgRepo:     orgRepo,
		profileRepo: profileRepo,
	}
}

// CreateReview - один отзыв на заказ, автор заказа отзыв не пишет
func (s *ReviewServiceImpl) CreateReview(db *gorm.DB, userID, orderSlug string, req *dto.ReviewRequest) (*dto.ReviewResponse, error) {
	if req.Rating == nil || *req.Rating < 0 || *req.Rating > 5 {
		return nil, apperrors.ValidationError(map[string]string{"rating": "Rating must be between 0 and 5"})
	}

	tx := db.Begin()
	if tx.Error != nil {
		return nil, apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	reviewer, err := resolveProfile(tx, s.profileRepo, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.FindBySlugForUpdate(tx, orderSlug)
	if err != nil {
		return nil, handleOrderError(err)
	}

	if order.AuthorID == reviewer.ID {
		return nil, apperrors.ErrSelfReview
	}
	if order.Status != models.OrderStatusArrived && !order.IsFinished {
		return nil, apperrors.ErrOrderNotCompleted
	}

	review := &models.Review{
		OrderID:    order.ID,
		ReviewerID: reviewer.ID,
		Rating:     *req.Rating,
		Text:       strings.TrimSpace(req.Text),
	}
	if err := s.reviewRepo.CreateReview(tx, review); err != nil {
		return nil, handleReviewError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, apperrors.InternalError(err)
	}

	review.Reviewer = reviewer
	return toReviewResponse(review), nil
}

func (s *ReviewServiceImpl) ListOrganizationReviews(db *gorm.DB, orgSlug string, page, pageSize int) (*dto.PaginatedResponse, error) {
	org, err := s.orgRepo.FindBySlug(db, orgSlug)
	if err != nil {
		return nil, handleOrganizationError(err)
	}
	reviews, total, err := s.reviewRepo.ListByOrganization(db, org.ID, page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, toReviewResponse(&reviews[i]))
	}
	return buildPaginatedResponse(items, total, page, pageSize), nil
}

func (s *ReviewServiceImpl) GetOrganizationRating(db *gorm.DB, orgSlug string) (float64, error) {
	org, err := s.orgRepo.FindBySlug(db, orgSlug)
	if err != nil {
		return 0, handleOrganizationError(err)
	}
	avg, err := s.reviewRepo.AverageForOrganization(db, org.ID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return avg, nil
}

func toReviewResponse(r *models.Review) *dto.ReviewResponse {
	resp := &dto.ReviewResponse{
		ID:        r.ID,
		OrderID:   r.OrderID,
		Rating:    r.Rating,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
	if r.Reviewer != nil {
		resp.Reviewer = toProfileShort(r.Reviewer)
	}
	return resp
}

func handleReviewError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrReviewAlreadyExists):
		return apperrors.ErrReviewExists
	case errors.Is(err, repositories.ErrReviewNotFound):
		return apperrors.ErrNotFound(err)
	}
	return internalOr(err)
}
