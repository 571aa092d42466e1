package services

import (
	"errors"

	"orgmarket_backend/internal/auth"
	"orgmarket_backend/internal/models"
	"orgmarket_backend/internal/repositories"
	"orgmarket_backend/pkg/apperrors"

	"gorm.io/gorm"
)

// Access строит снимок прав профиля из хранилища. Само решение принимает auth.Evaluate.
type Access struct {
	employeeRepo repositories.EmployeeRepository
}

func NewAccess(employeeRepo repositories.EmployeeRepository) *Access {
	return &Access{employeeRepo: employeeRepo}
}

// Load возвращает субъект и активную запись Employee (nil, если членства нет)
func (a *Access) Load(db *gorm.DB, profileID string) (auth.Subject, *models.Employee, error) {
	subject := auth.Subject{ProfileID: profileID}

	employee, err := a.employeeRepo.FindActiveByProfile(db, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrEmployeeNotFound) {
			return subject, nil, nil
		}
		return subject, nil, err
	}

	membership := &auth.Membership{
		EmployeeID:     employee.ID,
		OrganizationID: employee.OrganizationID,
		Status:         employee.Status,
		Active:         employee.Active,
	}
	if employee.JobTitle != nil {
		membership.Flags = employee.JobTitle.Flags
	}
	subject.Membership = membership
	return subject, employee, nil
}

// authorize переводит отказ вычислителя в 403 с причиной
func authorize(subject auth.Subject, action auth.Action, target auth.Target) error {
	decision := auth.Evaluate(subject, action, target)
	if !decision.Allowed {
		return apperrors.ErrPermissionDenied(decision.Reason)
	}
	return nil
}

// activeOrgID - организация, в контексте которой действует субъект
func activeOrgID(subject auth.Subject) string {
	if subject.Membership == nil {
		return ""
	}
	return subject.Membership.OrganizationID
}
