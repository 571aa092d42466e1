package models

type Organization struct {
	BaseModel
	Title       string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	FounderID   string `gorm:"type:uuid;not null;index"`
	OwnerID     string `gorm:"type:uuid;not null;index"`
	Logo        *string
	Description string `gorm:"type:text"`
	Phone       string
	Active      bool `gorm:"not null"`

	Owner *UserProfile `gorm:"foreignKey:OwnerID"`
}

// JobFlag - имя колонки флага должности
type JobFlag string

const (
	FlagCreateJobTitle       JobFlag = "flag_create_jobtitle"
	FlagRemoveJobTitle       JobFlag = "flag_remove_jobtitle"
	FlagUpdateAccess         JobFlag = "flag_update_access"
	FlagAddEmployee          JobFlag = "flag_add_employee"
	FlagRemoveEmployee       JobFlag = "flag_remove_employee"
	FlagChangeEmployeeJob    JobFlag = "flag_change_employee_job"
	FlagEmployeeDetailAccess JobFlag = "flag_employee_detail_access"
	FlagCreateVacancy        JobFlag = "flag_create_vacancy"
	FlagUpdateOrder          JobFlag = "flag_update_order"
	FlagDeleteOrder          JobFlag = "flag_delete_order"
)

type JobTitleFlags struct {
	CreateJobTitle       bool `gorm:"column:flag_create_jobtitle;default:false" json:"flag_create_jobtitle"`
	RemoveJobTitle       bool `gorm:"column:flag_remove_jobtitle;default:false" json:"flag_remove_jobtitle"`
	UpdateAccess         bool `gorm:"column:flag_update_access;default:false" json:"flag_update_access"`
	AddEmployee          bool `gorm:"column:flag_add_employee;default:false" json:"flag_add_employee"`
	RemoveEmployee       bool `gorm:"column:flag_remove_employee;default:false" json:"flag_remove_employee"`
	ChangeEmployeeJob    bool `gorm:"column:flag_change_employee_job;default:false" json:"flag_change_employee_job"`
	EmployeeDetailAccess bool `gorm:"column:flag_employee_detail_access;default:false" json:"flag_employee_detail_access"`
	CreateVacancy        bool `gorm:"column:flag_create_vacancy;default:false" json:"flag_create_vacancy"`
	UpdateOrder          bool `gorm:"column:flag_update_order;default:false" json:"flag_update_order"`
	DeleteOrder          bool `gorm:"column:flag_delete_order;default:false" json:"flag_delete_order"`
}

// AllFlags - набор должности Founder
func AllFlags() JobTitleFlags {
	return JobTitleFlags{
		CreateJobTitle:       true,
		RemoveJobTitle:       true,
		UpdateAccess:         true,
		AddEmployee:          true,
		RemoveEmployee:       true,
		ChangeEmployeeJob:    true,
		EmployeeDetailAccess: true,
		CreateVacancy:        true,
		UpdateOrder:          true,
		DeleteOrder:          true,
	}
}

func (f JobTitleFlags) Has(flag JobFlag) bool {
	switch flag {
	case FlagCreateJobTitle:
		return f.CreateJobTitle
	case FlagRemoveJobTitle:
		return f.RemoveJobTitle
	case FlagUpdateAccess:
		return f.UpdateAccess
	case FlagAddEmployee:
		return f.AddEmployee
	case FlagRemoveEmployee:
		return f.RemoveEmployee
	case FlagChangeEmployeeJob:
		return f.ChangeEmployeeJob
	case FlagEmployeeDetailAccess:
		return f.EmployeeDetailAccess
	case FlagCreateVacancy:
		return f.CreateVacancy
	case FlagUpdateOrder:
		return f.UpdateOrder
	case FlagDeleteOrder:
		return f.DeleteOrder
	default:
		return false
	}
}

type JobTitle struct {
	BaseModel
	OrganizationID string `gorm:"type:uuid;not null;uniqueIndex:idx_job_titles_org_title"`
	Title          string `gorm:"not null;uniqueIndex:idx_job_titles_org_title"`
	Slug           string `gorm:"uniqueIndex;not null"`
	IsFounder      bool   `gorm:"default:false"`

	Flags JobTitleFlags `gorm:"embedded"`
}

// Employee - запись членства. Инварианты (частичные уникальные индексы, см. database.Migrate):
// не больше одной активной записи на профиль и одной Authorized на пару (профиль, организация)
type Employee struct {
	BaseModel
	ProfileID      string         `gorm:"type:uuid;not null;index"`
	OrganizationID string         `gorm:"type:uuid;not null;index"`
	JobTitleID     string         `gorm:"type:uuid;not null;index"`
	Status         EmployeeStatus `gorm:"type:varchar(20);not null"`
	Active         bool           `gorm:"default:false"`

	Profile      *UserProfile  `gorm:"foreignKey:ProfileID"`
	Organization *Organization `gorm:"foreignKey:OrganizationID"`
	JobTitle     *JobTitle     `gorm:"foreignKey:JobTitleID"`
}
