package repositories

import (
	"errors"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationCriteria struct {
	UnreadOnly bool
	Page       int
	PageSize   int
}

type NotificationRepository interface {
	// Insert возвращает false, если запись с тем же DedupKey уже есть
	Insert(db *gorm.DB, n *models.Notification) (bool, error)
	FindByID(db *gorm.DB, id string) (*models.Notification, error)
	ListByRecipient(db *gorm.DB, recipientID string, criteria NotificationCriteria) ([]models.Notification, int64, error)
	ListUnread(db *gorm.DB, recipientID string) ([]models.Notification, error)
	CountUnread(db *gorm.DB, recipientID string) (int64, error)
	MarkRead(db *gorm.DB, recipientID string, ids ...string) error
	MarkAllRead(db *gorm.DB, recipientID string) (int64, error)
	Delete(db *gorm.DB, recipientID, id string) error
	DeleteAll(db *gorm.DB, recipientID string) (int64, error)
}

type NotificationRepositoryImpl struct{}

func NewNotificationRepository() NotificationRepository {
	return &NotificationRepositoryImpl{}
}

func (r *NotificationRepositoryImpl) Insert(db *gorm.DB, n *models.Notification) (bool, error) {
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dedup_key"}},
		DoNothing: true,
	}).Create(n)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *NotificationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Notification, error) {
	var n models.Notification
	if err := db.First(&n, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrNotificationNotFound)
	}
	return &n, nil
}

func (r *NotificationRepositoryImpl) ListByRecipient(db *gorm.DB, recipientID string, criteria NotificationCriteria) ([]models.Notification, int64, error) {
	q := db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if criteria.UnreadOnly {
		q = q.Where("read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.Notification
	err := q.Order(byTimestamp(true)).
		Scopes(paginate(criteria.Page, criteria.PageSize)).
		Find(&list).Error
	return list, total, err
}

func (r *NotificationRepositoryImpl) ListUnread(db *gorm.DB, recipientID string) ([]models.Notification, error) {
	var list []models.Notification
	err := db.Where("recipient_id = ? AND read = ?", recipientID, false).
		Order(byTimestamp(false)).
		Find(&list).Error
	return list, err
}

func (r *NotificationRepositoryImpl) CountUnread(db *gorm.DB, recipientID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead идемпотентен: уже прочитанные строки не меняются
func (r *NotificationRepositoryImpl) MarkRead(db *gorm.DB, recipientID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return db.Model(&models.Notification{}).
		Where("recipient_id = ? AND id IN ?", recipientID, ids).
		Update("read", true).Error
}

func (r *NotificationRepositoryImpl) MarkAllRead(db *gorm.DB, recipientID string) (int64, error) {
	result := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *NotificationRepositoryImpl) Delete(db *gorm.DB, recipientID, id string) error {
	result := db.Where("recipient_id = ? AND id = ?", recipientID, id).Delete(&models.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepositoryImpl) DeleteAll(db *gorm.DB, recipientID string) (int64, error) {
	result := db.Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	return result.RowsAffected, result.Error
}

// timestamp - ключевое слово в postgres, имя колонки квотируется через clause
func byTimestamp(desc bool) clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: desc}
}
