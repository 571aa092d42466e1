package repositories

import (
	"errors"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrMembershipExists = errors.New("membership already exists")
)

type EmployeeRepository interface {
	Create(db *gorm.DB, e *models.Employee) error
	FindByID(db *gorm.DB, id string) (*models.Employee, error)
	FindActiveByProfile(db *gorm.DB, profileID string) (*models.Employee, error)
	FindByProfileAndOrg(db *gorm.DB, profileID, orgID string, status models.EmployeeStatus) (*models.Employee, error)
	LockByProfile(db *gorm.DB, profileID string) ([]models.Employee, error)
	HasAuthorized(db *gorm.DB, profileID string) (bool, error)
	ListByOrganization(db *gorm.DB, orgID string, status models.EmployeeStatus) ([]models.Employee, error)
	ListInvites(db *gorm.DB, profileID string) ([]models.Employee, error)
	ClearActive(db *gorm.DB, profileID string) error
	Activate(db *gorm.DB, id string) error
	Authorize(db *gorm.DB, id string) error
	ChangeJobTitle(db *gorm.DB, id, jobTitleID string) error
	Delete(db *gorm.DB, id string) error
	DeleteInvitesExcept(db *gorm.DB, profileID, keepID string) error
	PromoteEarliest(db *gorm.DB, profileID string) (*models.Employee, error)
}

type EmployeeRepositoryImpl struct{}

func NewEmployeeRepository() EmployeeRepository {
	return &EmployeeRepositoryImpl{}
}

func (r *EmployeeRepositoryImpl) Create(db *gorm.DB, e *models.Employee) error {
	if err := db.Omit("Profile", "Organization", "JobTitle").Create(e).Error; err != nil {
		if isDuplicate(err) {
			return ErrMembershipExists
		}
		return err
	}
	return nil
}

func (r *EmployeeRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Employee, error) {
	var e models.Employee
	err := db.Preload("Profile").Preload("JobTitle").Preload("Organization").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, ErrEmployeeNotFound)
	}
	return &e, nil
}

// FindActiveByProfile - активная запись с должностью, из нее строится снимок прав
func (r *EmployeeRepositoryImpl) FindActiveByProfile(db *gorm.DB, profileID string) (*models.Employee, error) {
	var e models.Employee
	err := db.Preload("JobTitle").Preload("Organization").
		Where("profile_id = ? AND active = ?", profileID, true).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, ErrEmployeeNotFound)
	}
	return &e, nil
}

func (r *EmployeeRepositoryImpl) FindByProfileAndOrg(db *gorm.DB, profileID, orgID string, status models.EmployeeStatus) (*models.Employee, error) {
	var e models.Employee
	err := db.Preload("JobTitle").
		Where("profile_id = ? AND organization_id = ? AND status = ?", profileID, orgID, status).
		First(&e).Error
	if err != nil {
		return nil, notFound(err, ErrEmployeeNotFound)
	}
	return &e, nil
}

// LockByProfile блокирует все записи профиля до конца транзакции
func (r *EmployeeRepositoryImpl) LockByProfile(db *gorm.DB, profileID string) ([]models.Employee, error) {
	var list []models.Employee
	err := forUpdate(db).Where("profile_id = ?", profileID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *EmployeeRepositoryImpl) HasAuthorized(db *gorm.DB, profileID string) (bool, error) {
	var count int64
	err := db.Model(&models.Employee{}).
		Where("profile_id = ? AND status = ?", profileID, models.EmployeeStatusAuthorized).
		Count(&count).Error
	return count > 0, err
}

func (r *EmployeeRepositoryImpl) ListByOrganization(db *gorm.DB, orgID string, status models.EmployeeStatus) ([]models.Employee, error) {
	var list []models.Employee
	err := db.Preload("Profile").Preload("JobTitle").
		Where("organization_id = ? AND status = ?", orgID, status).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *EmployeeRepositoryImpl) ListInvites(db *gorm.DB, profileID string) ([]models.Employee, error) {
	var list []models.Employee
	err := db.Preload("Organization").Preload("JobTitle").
		Where("profile_id = ? AND status = ?", profileID, models.EmployeeStatusPendingInvite).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// ClearActive снимает флаг active; вызывается до Activate, иначе сработает
// уникальный индекс на активную запись
func (r *EmployeeRepositoryImpl) ClearActive(db *gorm.DB, profileID string) error {
	return db.Model(&models.Employee{}).
		Where("profile_id = ? AND active = ?", profileID, true).
		Update("active", false).Error
}

func (r *EmployeeRepositoryImpl) Activate(db *gorm.DB, id string) error {
	return r.updateColumn(db, id, "active", true)
}

func (r *EmployeeRepositoryImpl) Authorize(db *gorm.DB, id string) error {
	return r.updateColumn(db, id, "status", models.EmployeeStatusAuthorized)
}

func (r *EmployeeRepositoryImpl) ChangeJobTitle(db *gorm.DB, id, jobTitleID string) error {
	return r.updateColumn(db, id, "job_title_id", jobTitleID)
}

func (r *EmployeeRepositoryImpl) updateColumn(db *gorm.DB, id, column string, value interface{}) error {
	result := db.Model(&models.Employee{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		if isDuplicate(result.Error) {
			return ErrMembershipExists
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepositoryImpl) Delete(db *gorm.DB, id string) error {
	if err := db.Where("employee_id = ?", id).Delete(&models.OrderWorker{}).Error; err != nil {
		return err
	}
	result := db.Delete(&models.Employee{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (r *EmployeeRepositoryImpl) DeleteInvitesExcept(db *gorm.DB, profileID, keepID string) error {
	return db.Where("profile_id = ? AND status = ? AND id <> ?", profileID, models.EmployeeStatusPendingInvite, keepID).
		Delete(&models.Employee{}).Error
}

// PromoteEarliest делает активной самую раннюю Authorized запись.
// nil без ошибки, если членств не осталось.
func (r *EmployeeRepositoryImpl) PromoteEarliest(db *gorm.DB, profileID string) (*models.Employee, error) {
	var e models.Employee
	err := db.Where("profile_id = ? AND status = ?", profileID, models.EmployeeStatusAuthorized).
		Order("created_at ASC").
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.Activate(db, e.ID); err != nil {
		return nil, err
	}
	e.Active = true
	return &e, nil
}
