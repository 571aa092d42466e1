package repositories

import (
	"errors"

	"orgmarket_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrJobTitleNotFound  = errors.New("job title not found")
	ErrDuplicateJobTitle = errors.New("job title already exists in organization")
)

type JobTitleRepository interface {
	Create(db *gorm.DB, jt *models.JobTitle) error
	FindByID(db *gorm.DB, id string) (*models.JobTitle, error)
	FindBySlug(db *gorm.DB, slug string) (*models.JobTitle, error)
	ListByOrganization(db *gorm.DB, orgID string) ([]models.JobTitle, error)
	Update(db *gorm.DB, jt *models.JobTitle) error
	Delete(db *gorm.DB, id string) error
	CountEmployees(db *gorm.DB, jobTitleID string) (int64, error)
	UniqueSlug(db *gorm.DB, base, excludeID string) (string, error)
}

type JobTitleRepositoryImpl struct{}

func NewJobTitleRepository() JobTitleRepository {
	return &JobTitleRepositoryImpl{}
}

func (r *JobTitleRepositoryImpl) titleTaken(db *gorm.DB, orgID, title, excludeID string) (bool, error) {
	q := db.Model(&models.JobTitle{}).Where("organization_id = ? AND title = ?", orgID, title)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *JobTitleRepositoryImpl) Create(db *gorm.DB, jt *models.JobTitle) error {
	taken, err := r.titleTaken(db, jt.OrganizationID, jt.Title, "")
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateJobTitle
	}

	if jt.Slug == "" {
		s, err := r.UniqueSlug(db, jt.Title, "")
		if err != nil {
			return err
		}
		jt.Slug = s
	}

	if err := db.Create(jt).Error; err != nil {
		if isDuplicate(err) {
			return ErrDuplicateJobTitle
		}
		return err
	}
	return nil
}

func (r *JobTitleRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.JobTitle, error) {
	var jt models.JobTitle
	if err := db.First(&jt, "id = ?", id).Error; err != nil {
		return nil, notFound(err, ErrJobTitleNotFound)
	}
	return &jt, nil
}

func (r *JobTitleRepositoryImpl) FindBySlug(db *gorm.DB, s string) (*models.JobTitle, error) {
	var jt models.JobTitle
	if err := db.First(&jt, "slug = ?", s).Error; err != nil {
		return nil, notFound(err, ErrJobTitleNotFound)
	}
	return &jt, nil
}

func (r *JobTitleRepositoryImpl) ListByOrganization(db *gorm.DB, orgID string) ([]models.JobTitle, error) {
	var list []models.JobTitle
	err := db.Where("organization_id = ?", orgID).Order("created_at ASC").Find(&list).Error
	return list, err
}

func (r *JobTitleRepositoryImpl) Update(db *gorm.DB, jt *models.JobTitle) error {
	taken, err := r.titleTaken(db, jt.OrganizationID, jt.Title, jt.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateJobTitle
	}
	// Select("*") чтобы сохранились и выключенные флаги
	return db.Model(jt).Select("*").Omit("CreatedAt").Updates(jt).Error
}

func (r *JobTitleRepositoryImpl) Delete(db *gorm.DB, id string) error {
	result := db.Delete(&models.JobTitle{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobTitleNotFound
	}
	return nil
}

func (r *JobTitleRepositoryImpl) CountEmployees(db *gorm.DB, jobTitleID string) (int64, error) {
	var count int64
	err := db.Model(&models.Employee{}).Where("job_title_id = ?", jobTitleID).Count(&count).Error
	return count, err
}

func (r *JobTitleRepositoryImpl) UniqueSlug(db *gorm.DB, base, excludeID string) (string, error) {
	return uniqueSlug(db, &models.JobTitle{}, base, excludeID)
}
