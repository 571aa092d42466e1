package repositories

import (
	"errors"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrItemNotFound = errors.New("catalog item not found")

type CatalogFilter struct {
	Category       string
	OrganizationID string
	ViewerID       string
	Page           int
	PageSize       int
}

type CatalogRepository interface {
	CreateEquipment(db *gorm.DB, item *models.Equipment) error
	CreateService(db *gorm.DB, item *models.Service) error
	CreateVacancy(db *gorm.DB, item *models.Vacancy) error

	FindEquipment(db *gorm.DB, slug string) (*models.Equipment, error)
	FindService(db *gorm.DB, slug string) (*models.Service, error)
	FindVacancy(db *gorm.DB, slug string) (*models.Vacancy, error)

	ListEquipment(db *gorm.DB, filter CatalogFilter) ([]models.Equipment, int64, error)
	ListServices(db *gorm.DB, filter CatalogFilter) ([]models.Service, int64, error)
	ListVacancies(db *gorm.DB, filter CatalogFilter) ([]models.Vacancy, int64, error)

	// Save сохраняет любую из моделей каталога
	Save(db *gorm.DB, item interface{}) error
	ToggleLike(db *gorm.DB, kind models.CatalogKind, itemID, profileID string) (bool, error)
	CountLikes(db *gorm.DB, kind models.CatalogKind, itemID string) (int64, error)
}

type CatalogRepositoryImpl struct{}

func NewCatalogRepository() CatalogRepository {
	return &CatalogRepositoryImpl{}
}

func (r *CatalogRepositoryImpl) CreateEquipment(db *gorm.DB, item *models.Equipment) error {
	s, err := uniqueSlug(db, &models.Equipment{}, item.Title, "")
	if err != nil {
		return err
	}
	item.Slug = s
	return db.Create(item).Error
}

func (r *CatalogRepositoryImpl) CreateService(db *gorm.DB, item *models.Service) error {
	s, err := uniqueSlug(db, &models.Service{}, item.Title, "")
	if err != nil {
		return err
	}
	item.Slug = s
	return db.Create(item).Error
}

func (r *CatalogRepositoryImpl) CreateVacancy(db *gorm.DB, item *models.Vacancy) error {
	s, err := uniqueSlug(db, &models.Vacancy{}, item.Title, "")
	if err != nil {
		return err
	}
	item.Slug = s
	return db.Create(item).Error
}

func (r *CatalogRepositoryImpl) FindEquipment(db *gorm.DB, s string) (*models.Equipment, error) {
	var item models.Equipment
	if err := db.First(&item, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	return &item, nil
}

func (r *CatalogRepositoryImpl) FindService(db *gorm.DB, s string) (*models.Service, error) {
	var item models.Service
	if err := db.First(&item, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	return &item, nil
}

func (r *CatalogRepositoryImpl) FindVacancy(db *gorm.DB, s string) (*models.Vacancy, error) {
	var item models.Vacancy
	if err := db.First(&item, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrItemNotFound)
	}
	return &item, nil
}

// listScope - общие фильтры каталога; скрытое видит только автор
func listScope(filter CatalogFilter, withCategory bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if withCategory && filter.Category != "" {
			db = db.Where("category = ?", filter.Category)
		}
		if filter.OrganizationID != "" {
			db = db.Where("organization_id = ?", filter.OrganizationID)
		}
		if filter.ViewerID != "" {
			return db.Where("hide = ? OR author_id = ?", false, filter.ViewerID)
		}
		return db.Where("hide = ?", false)
	}
}

func (r *CatalogRepositoryImpl) ListEquipment(db *gorm.DB, filter CatalogFilter) ([]models.Equipment, int64, error) {
	var items []models.Equipment
	total, err := listCatalog(db, &models.Equipment{}, &items, filter, true)
	return items, total, err
}

func (r *CatalogRepositoryImpl) ListServices(db *gorm.DB, filter CatalogFilter) ([]models.Service, int64, error) {
	var items []models.Service
	total, err := listCatalog(db, &models.Service{}, &items, filter, true)
	return items, total, err
}

func (r *CatalogRepositoryImpl) ListVacancies(db *gorm.DB, filter CatalogFilter) ([]models.Vacancy, int64, error) {
	var items []models.Vacancy
	total, err := listCatalog(db, &models.Vacancy{}, &items, filter, false)
	return items, total, err
}

func listCatalog(db *gorm.DB, model, dest interface{}, filter CatalogFilter, withCategory bool) (int64, error) {
	q := db.Model(model).Scopes(listScope(filter, withCategory))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	err := q.Order("created_at DESC").
		Scopes(paginate(filter.Page, filter.PageSize)).
		Find(dest).Error
	return total, err
}

func (r *CatalogRepositoryImpl) Save(db *gorm.DB, item interface{}) error {
	return db.Omit("CreatedAt").Save(item).Error
}

func (r *CatalogRepositoryImpl) ToggleLike(db *gorm.DB, kind models.CatalogKind, itemID, profileID string) (bool, error) {
	result := db.Where("kind = ? AND item_id = ? AND profile_id = ?", kind, itemID, profileID).
		Delete(&models.CatalogLike{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil
	}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CatalogLike{Kind: kind, ItemID: itemID, ProfileID: profileID}).Error
	return err == nil, err
}

func (r *CatalogRepositoryImpl) CountLikes(db *gorm.DB, kind models.CatalogKind, itemID string) (int64, error) {
	var count int64
	err := db.Model(&models.CatalogLike{}).Where("kind = ? AND item_id = ?", kind, itemID).Count(&count).Error
	return count, err
}
