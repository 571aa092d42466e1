package repositories

import (
	"errors"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrReviewNotFound      = errors.New("review not found")
	ErrReviewAlreadyExists = errors.New("review already exists for this order")
)

type ReviewRepository interface {
	CreateReview(db *gorm.DB, review *models.Review) error
	FindByOrderID(db *gorm.DB, orderID string) (*models.Review, error)
	ListByOrganization(db *gorm.DB, orgID string, page, pageSize int) ([]models.Review, int64, error)
	AverageForOrganization(db *gorm.DB, orgID string) (float64, error)
}

type ReviewRepositoryImpl struct{}

func NewReviewRepository() ReviewRepository {
	return &ReviewRepositoryImpl{}
}

func (r *ReviewRepositoryImpl) CreateReview(db *gorm.DB, review *models.Review) error {
	var count int64
	if err := db.Model(&models.Review{}).Where("order_id = ?", review.OrderID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrReviewAlreadyExists
	}

	if err := db.Omit("Reviewer").Create(review).Error; err != nil {
		if isDuplicate(err) {
			return ErrReviewAlreadyExists
		}
		return err
	}
	return nil
}

func (r *ReviewRepositoryImpl) FindByOrderID(db *gorm.DB, orderID string) (*models.Review, error) {
	var review models.Review
	if err := db.Preload("Reviewer").First(&review, "order_id = ?", orderID).Error; err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	return &review, nil
}

// ListByOrganization - отзывы о заказах, выполненных организацией
func (r *ReviewRepositoryImpl) ListByOrganization(db *gorm.DB, orgID string, page, pageSize int) ([]models.Review, int64, error) {
	q := db.Model(&models.Review{}).
		Joins("JOIN orders ON orders.id = reviews.order_id").
		Where("orders.org_work_id = ?", orgID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := q.Preload("Reviewer").
		Order("reviews.created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&reviews).Error
	return reviews, total, err
}

func (r *ReviewRepositoryImpl) AverageForOrganization(db *gorm.DB, orgID string) (float64, error) {
	var avg *float64
	err := db.Model(&models.Review{}).
		Joins("JOIN orders ON orders.id = reviews.order_id").
		Where("orders.org_work_id = ?", orgID).
		Select("AVG(reviews.rating)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}
