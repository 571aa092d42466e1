package auth

import (
	"orgmarket_backend/internal/models"
)

type Action string

const (
	ActionCreateJobTitle    Action = "create_jobtitle"
	ActionRemoveJobTitle    Action = "remove_jobtitle"
	ActionUpdateAccess      Action = "update_access"
	ActionAddEmployee       Action = "add_employee"
	ActionRemoveEmployee    Action = "remove_employee"
	ActionChangeEmployeeJob Action = "change_employee_job"
	ActionEmployeeDetail    Action = "employee_detail"
	ActionCreateVacancy     Action = "create_vacancy"
	ActionApplyOrder        Action = "apply_order"
	ActionUpdateOrder       Action = "update_order"
	ActionDeleteOrder       Action = "delete_order"
	ActionAdvanceOrder      Action = "advance_order"
	ActionFinishOrder       Action = "finish_order"
	ActionManageWorkers     Action = "manage_order_workers"
	ActionManageOrg         Action = "manage_organization"
)

// Permissions - какой флаг должности открывает действие
var Permissions = map[Action]models.JobFlag{
	ActionCreateJobTitle:    models.FlagCreateJobTitle,
	ActionRemoveJobTitle:    models.FlagRemoveJobTitle,
	ActionUpdateAccess:      models.FlagUpdateAccess,
	ActionAddEmployee:       models.FlagAddEmployee,
	ActionRemoveEmployee:    models.FlagRemoveEmployee,
	ActionChangeEmployeeJob: models.FlagChangeEmployeeJob,
	ActionEmployeeDetail:    models.FlagEmployeeDetailAccess,
	ActionCreateVacancy:     models.FlagCreateVacancy,
	ActionApplyOrder:        models.FlagCreateVacancy,
	ActionUpdateOrder:       models.FlagUpdateOrder,
	ActionDeleteOrder:       models.FlagDeleteOrder,
	ActionAdvanceOrder:      models.FlagUpdateOrder,
	ActionFinishOrder:       models.FlagUpdateOrder,
}

// membershipOnly - хватает активного членства в нужной организации
var membershipOnly = map[Action]bool{
	ActionManageWorkers: true,
}

const (
	ReasonOwner         = "owner"
	ReasonGranted       = "granted"
	ReasonNoMembership  = "no_active_membership"
	ReasonOrgMismatch   = "organization_mismatch"
	ReasonMissingFlag   = "missing_flag"
	ReasonUnknownAction = "unknown_action"
)

// Membership - снимок активной записи Employee вместе с флагами должности
type Membership struct {
	EmployeeID     string
	OrganizationID string
	Status         models.EmployeeStatus
	Active         bool
	Flags          models.JobTitleFlags
}

type Subject struct {
	ProfileID  string
	Membership *Membership
}

// Target - на что направлено действие. Пустой OwnerID отключает правило владельца.
type Target struct {
	OwnerID        string
	OrganizationID string
}

type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluate - чистая функция, ничего не читает из хранилища.
// Порядок правил: владелец, активное членство, совпадение организации, флаг.
func Evaluate(subject Subject, action Action, target Target) Decision {
	if target.OwnerID != "" && target.OwnerID == subject.ProfileID {
		return Decision{Allowed: true, Reason: ReasonOwner}
	}

	m := subject.Membership
	if m == nil || !m.Active || m.Status != models.EmployeeStatusAuthorized {
		return Decision{Reason: ReasonNoMembership}
	}

	if target.OrganizationID == "" || m.OrganizationID != target.OrganizationID {
		return Decision{Reason: ReasonOrgMismatch}
	}

	if membershipOnly[action] {
		return Decision{Allowed: true, Reason: ReasonGranted}
	}

	flag, ok := Permissions[action]
	if !ok {
		return Decision{Reason: ReasonUnknownAction}
	}
	if !m.Flags.Has(flag) {
		return Decision{Reason: ReasonMissingFlag}
	}
	return Decision{Allowed: true, Reason: ReasonGranted}
}

// HasPermission - короткая форма для мест, где причина не нужна
func HasPermission(subject Subject, action Action, target Target) bool {
	return Evaluate(subject, action, target).Allowed
}
