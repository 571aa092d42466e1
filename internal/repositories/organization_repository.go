package repositories

import (
	"errors"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
)

var ErrOrganizationNotFound = errors.New("organization not found")

type OrganizationRepository interface {
	Create(db *gorm.DB, org *models.Organization) error
	FindByID(db *gorm.DB, id string) (*models.Organization, error)
	FindBySlug(db *gorm.DB, slug string) (*models.Organization, error)
	Update(db *gorm.DB, org *models.Organization) error
	Delete(db *gorm.DB, id string) error
	// CountBookedOrders - заказы, где организация исполнитель (включая завершенные)
	CountBookedOrders(db *gorm.DB, id string) (int64, error)
	CountByOwner(db *gorm.DB, ownerID string) (int64, error)
	ListForProfile(db *gorm.DB, profileID string) ([]models.Organization, error)
	UniqueSlug(db *gorm.DB, base, excludeID string) (string, error)
}

type OrganizationRepositoryImpl struct{}

func NewOrganizationRepository() OrganizationRepository {
	return &OrganizationRepositoryImpl{}
}

func (r *OrganizationRepositoryImpl) Create(db *gorm.DB, org *models.Organization) error {
	if org.Slug == "" {
		s, err := r.UniqueSlug(db, org.Title, "")
		if err != nil {
			return err
		}
		org.Slug = s
	}
	return db.Omit("Owner").Create(org).Error
}

func (r *OrganizationRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Organization, error) {
	var org models.Organization
	if err := db.First(&org, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrOrganizationNotFound)
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) FindBySlug(db *gorm.DB, s string) (*models.Organization, error) {
	var org models.Organization
	if err := db.Preload("Owner").First(&org, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrOrganizationNotFound)
	}
	return &org, nil
}

func (r *OrganizationRepositoryImpl) Update(db *gorm.DB, org *models.Organization) error {
	return db.Omit("Owner", "CreatedAt").Save(org).Error
}

// Delete удаляет организацию вместе с должностями, сотрудниками и вакансиями
func (r *OrganizationRepositoryImpl) Delete(db *gorm.DB, id string) error {
	var employeeIDs []string
	if err := db.Model(&models.Employee{}).Where("organization_id = ?", id).Pluck("id", &employeeIDs).Error; err != nil {
		return err
	}
	if len(employeeIDs) > 0 {
		if err := db.Where("employee_id IN ?", employeeIDs).Delete(&models.OrderWorker{}).Error; err != nil {
			return err
		}
	}

	// заказы, размещенные от имени организации, остаются у автора
	if err := db.Model(&models.Order{}).Where("organization_id = ?", id).Update("organization_id", nil).Error; err != nil {
		return err
	}

	cascade := []interface{}{
		&models.Employee{},
		&models.JobTitle{},
		&models.Vacancy{},
		&models.OrderApplicant{},
	}
	for _, m := range cascade {
		if err := db.Where("organization_id = ?", id).Delete(m).Error; err != nil {
			return err
		}
	}

	result := db.Delete(&models.Organization{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepositoryImpl) CountBookedOrders(db *gorm.DB, id string) (int64, error) {
	var count int64
	err := db.Model(&models.Order{}).Where("org_work_id = ?", id).Count(&count).Error
	return count, err
}

func (r *OrganizationRepositoryImpl) CountByOwner(db *gorm.DB, ownerID string) (int64, error) {
	var count int64
	err := db.Model(&models.Organization{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

// ListForProfile - организации, где у профиля есть Authorized запись
func (r *OrganizationRepositoryImpl) ListForProfile(db *gorm.DB, profileID string) ([]models.Organization, error) {
	var orgs []models.Organization
	err := db.
		Joins("JOIN employees ON employees.organization_id = organizations.id").
		Where("employees.profile_id = ? AND employees.status = ?", profileID, models.EmployeeStatusAuthorized).
		Order("employees.created_at ASC").
		Find(&orgs).Error
	return orgs, err
}

func (r *OrganizationRepositoryImpl) UniqueSlug(db *gorm.DB, base, excludeID string) (string, error) {
	return uniqueSlug(db, &models.Organization{}, base, excludeID)
}
