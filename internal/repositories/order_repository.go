package repositories

import (
	"errors"
	"time"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderFilter struct {
	Category string
	Currency string
	AuthorID string
	IsBooked *bool
	Finished *bool
	ViewerID string // скрытые заказы видит только автор
	Page     int
	PageSize int
}

type OrderRepository interface {
	Create(db *gorm.DB, order *models.Order) error
	FindBySlug(db *gorm.DB, slug string) (*models.Order, error)
	FindBySlugForUpdate(db *gorm.DB, slug string) (*models.Order, error)
	Update(db *gorm.DB, order *models.Order) error
	Delete(db *gorm.DB, id string) error
	List(db *gorm.DB, filter OrderFilter) ([]models.Order, int64, error)
	ListLiked(db *gorm.DB, profileID string, page, pageSize int) ([]models.Order, int64, error)
	ListForOrganization(db *gorm.DB, orgID string) (booked []models.Order, applied []models.Order, err error)
	UniqueSlug(db *gorm.DB, base, excludeID string) (string, error)

	// Отклики
	AddApplicant(db *gorm.DB, orderID, orgID string) (bool, error)
	RemoveApplicant(db *gorm.DB, orderID, orgID string) (bool, error)
	IsApplicant(db *gorm.DB, orderID, orgID string) (bool, error)
	ListApplicants(db *gorm.DB, orderID string) ([]models.OrderApplicant, error)

	// Лайки
	ToggleLike(db *gorm.DB, orderID, profileID string) (bool, error)
	CountLikes(db *gorm.DB, orderID string) (int64, error)
	IsLiked(db *gorm.DB, orderID, profileID string) (bool, error)

	// Исполнители
	AddWorker(db *gorm.DB, orderID, employeeID string) error
	RemoveWorker(db *gorm.DB, orderID, employeeID string) (bool, error)
	ListWorkers(db *gorm.DB, orderID string) ([]models.OrderWorker, error)

	AddStatusHistory(db *gorm.DB, h *models.OrderStatusHistory) error
	ListStatusHistory(db *gorm.DB, orderID string) ([]models.OrderStatusHistory, error)

	// ClaimStaleArrived - пачка заказов для автозавершения, чужие блокировки пропускаются
	ClaimStaleArrived(db *gorm.DB, before time.Time, limit int) ([]models.Order, error)
}

type OrderRepositoryImpl struct{}

func NewOrderRepository() OrderRepository {
	return &OrderRepositoryImpl{}
}

func (r *OrderRepositoryImpl) Create(db *gorm.DB, order *models.Order) error {
	if order.Slug == "" {
		s, err := r.UniqueSlug(db, order.Title, "")
		if err != nil {
			return err
		}
		order.Slug = s
	}
	if order.Status == "" {
		order.Status = models.OrderStatusNew
	}
	return db.Omit(clause.Associations).Create(order).Error
}

func (r *OrderRepositoryImpl) FindBySlug(db *gorm.DB, s string) (*models.Order, error) {
	var order models.Order
	err := db.Preload("Author").Preload("OrgWork").First(&order, "slug = ?", s).Error
	if err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) FindBySlugForUpdate(db *gorm.DB, s string) (*models.Order, error) {
	var order models.Order
	if err := forUpdate(db).First(&order, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrOrderNotFound)
	}
	return &order, nil
}

func (r *OrderRepositoryImpl) Update(db *gorm.DB, order *models.Order) error {
	return db.Omit(clause.Associations, "CreatedAt").Save(order).Error
}

func (r *OrderRepositoryImpl) Delete(db *gorm.DB, id string) error {
	joins := []interface{}{
		&models.OrderApplicant{},
		&models.OrderLike{},
		&models.OrderWorker{},
		&models.OrderStatusHistory{},
	}
	for _, m := range joins {
		if err := db.Where("order_id = ?", id).Delete(m).Error; err != nil {
			return err
		}
	}
	result := db.Delete(&models.Order{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepositoryImpl) List(db *gorm.DB, filter OrderFilter) ([]models.Order, int64, error) {
	q := db.Model(&models.Order{})

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Currency != "" {
		q = q.Where("currency = ?", filter.Currency)
	}
	if filter.AuthorID != "" {
		q = q.Where("author_id = ?", filter.AuthorID)
	}
	if filter.IsBooked != nil {
		q = q.Where("is_booked = ?", *filter.IsBooked)
	}
	if filter.Finished != nil {
		q = q.Where("is_finished = ?", *filter.Finished)
	}
	if filter.ViewerID != "" {
		q = q.Where("hide = ? OR author_id = ?", false, filter.ViewerID)
	} else {
		q = q.Where("hide = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Author").
		Order("created_at DESC").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Find(&orders).Error
	return orders, total, err
}

func (r *OrderRepositoryImpl) ListLiked(db *gorm.DB, profileID string, page, pageSize int) ([]models.Order, int64, error) {
	q := db.Model(&models.Order{}).
		Joins("JOIN order_likes ON order_likes.order_id = orders.id").
		Where("order_likes.profile_id = ?", profileID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Order("order_likes.created_at DESC").
		Scopes(paginate(page, pageSize)).
		Find(&orders).Error
	return orders, total, err
}

// ListForOrganization - заказы, забронированные организацией, и те, на которые она откликнулась
func (r *OrderRepositoryImpl) ListForOrganization(db *gorm.DB, orgID string) ([]models.Order, []models.Order, error) {
	var booked []models.Order
	if err := db.Where("org_work_id = ?", orgID).Order("booked_at DESC").Find(&booked).Error; err != nil {
		return nil, nil, err
	}

	var applied []models.Order
	err := db.
		Joins("JOIN order_applicants ON order_applicants.order_id = orders.id").
		Where("order_applicants.organization_id = ? AND orders.is_booked = ?", orgID, false).
		Order("order_applicants.created_at DESC").
		Find(&applied).Error
	if err != nil {
		return nil, nil, err
	}
	return booked, applied, nil
}

func (r *OrderRepositoryImpl) UniqueSlug(db *gorm.DB, base, excludeID string) (string, error) {
	return uniqueSlug(db, &models.Order{}, base, excludeID)
}

// AddApplicant - вставка, если такой записи еще нет; true если добавлена
func (r *OrderRepositoryImpl) AddApplicant(db *gorm.DB, orderID, orgID string) (bool, error) {
	result := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderApplicant{OrderID: orderID, OrganizationID: orgID})
	return result.RowsAffected > 0, result.Error
}

func (r *OrderRepositoryImpl) RemoveApplicant(db *gorm.DB, orderID, orgID string) (bool, error) {
	result := db.Where("order_id = ? AND organization_id = ?", orderID, orgID).Delete(&models.OrderApplicant{})
	return result.RowsAffected > 0, result.Error
}

func (r *OrderRepositoryImpl) IsApplicant(db *gorm.DB, orderID, orgID string) (bool, error) {
	var count int64
	err := db.Model(&models.OrderApplicant{}).
		Where("order_id = ? AND organization_id = ?", orderID, orgID).
		Count(&count).Error
	return count > 0, err
}

func (r *OrderRepositoryImpl) ListApplicants(db *gorm.DB, orderID string) ([]models.OrderApplicant, error) {
	var list []models.OrderApplicant
	err := db.Preload("Organization").Where("order_id = ?", orderID).Order("created_at ASC").Find(&list).Error
	return list, err
}

// ToggleLike возвращает новое состояние лайка
func (r *OrderRepositoryImpl) ToggleLike(db *gorm.DB, orderID, profileID string) (bool, error) {
	result := db.Where("order_id = ? AND profile_id = ?", orderID, profileID).Delete(&models.OrderLike{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderLike{OrderID: orderID, ProfileID: profileID}).Error
	return err == nil, err
}

func (r *OrderRepositoryImpl) CountLikes(db *gorm.DB, orderID string) (int64, error) {
	var count int64
	err := db.Model(&models.OrderLike{}).Where("order_id = ?", orderID).Count(&count).Error
	return count, err
}

func (r *OrderRepositoryImpl) IsLiked(db *gorm.DB, orderID, profileID string) (bool, error) {
	var count int64
	err := db.Model(&models.OrderLike{}).
		Where("order_id = ? AND profile_id = ?", orderID, profileID).
		Count(&count).Error
	return count > 0, err
}

func (r *OrderRepositoryImpl) AddWorker(db *gorm.DB, orderID, employeeID string) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.OrderWorker{OrderID: orderID, EmployeeID: employeeID}).Error
}

func (r *OrderRepositoryImpl) RemoveWorker(db *gorm.DB, orderID, employeeID string) (bool, error) {
	result := db.Where("order_id = ? AND employee_id = ?", orderID, employeeID).Delete(&models.OrderWorker{})
	return result.RowsAffected > 0, result.Error
}

func (r *OrderRepositoryImpl) ListWorkers(db *gorm.DB, orderID string) ([]models.OrderWorker, error) {
	var list []models.OrderWorker
	err := db.Preload("Employee.Profile").Preload("Employee.JobTitle").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *OrderRepositoryImpl) AddStatusHistory(db *gorm.DB, h *models.OrderStatusHistory) error {
	return db.Create(h).Error
}

func (r *OrderRepositoryImpl) ListStatusHistory(db *gorm.DB, orderID string) ([]models.OrderStatusHistory, error) {
	var list []models.OrderStatusHistory
	err := db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *OrderRepositoryImpl) ClaimStaleArrived(db *gorm.DB, before time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := db.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? AND is_finished = ? AND arrived_at <= ?", models.OrderStatusArrived, false, before).
		Order("arrived_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
