package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringArray - text[] в postgres; на sqlite хранится тем же литералом "{a,b}"
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}

func (a *StringArray) Scan(src interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	*a = StringArray(arr)
	return nil
}

func (StringArray) GormDataType() string {
	return "text[]"
}

func (StringArray) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

type Order struct {
	BaseModel
	Title          string   `gorm:"not null"`
	Slug           string   `gorm:"uniqueIndex;not null"`
	Category       string   `gorm:"index"`
	Price          float64  `gorm:"type:decimal(12,2)"`
	Currency       Currency `gorm:"type:varchar(10);not null;default:'Som'"`
	Description    string   `gorm:"type:text"`
	Sizes          StringArray
	Deadline       *time.Time
	Phone          string
	AuthorID       string  `gorm:"type:uuid;not null;index"`
	OrganizationID *string `gorm:"type:uuid;index"`
	Hide           bool    `gorm:"default:false"`

	IsBooked   bool        `gorm:"default:false;index"`
	IsFinished bool        `gorm:"default:false;index"`
	Status     OrderStatus `gorm:"type:varchar(20);not null;default:'New';index"`
	OrgWorkID  *string     `gorm:"type:uuid;index"`
	BookedAt   *time.Time
	FinishedAt *time.Time
	ArrivedAt  *time.Time `gorm:"index"`

	Author  *UserProfile  `gorm:"foreignKey:AuthorID"`
	OrgWork *Organization `gorm:"foreignKey:OrgWorkID"`
}

// OrderApplicant - организация откликнулась на заказ
type OrderApplicant struct {
	OrderID        string `gorm:"type:uuid;primaryKey"`
	OrganizationID string `gorm:"type:uuid;primaryKey"`
	CreatedAt      time.Time

	Organization *Organization `gorm:"foreignKey:OrganizationID"`
}

type OrderLike struct {
	OrderID   string `gorm:"type:uuid;primaryKey"`
	ProfileID string `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

// OrderWorker - сотрудник org_work, назначенный на заказ
type OrderWorker struct {
	OrderID    string `gorm:"type:uuid;primaryKey"`
	EmployeeID string `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time

	Employee *Employee `gorm:"foreignKey:EmployeeID"`
}

type OrderStatusHistory struct {
	BaseModel
	OrderID    string      `gorm:"type:uuid;not null;index"`
	FromStatus OrderStatus `gorm:"type:varchar(20);not null"`
	ToStatus   OrderStatus `gorm:"type:varchar(20);not null"`
	ChangedBy  string      `gorm:"type:uuid;not null"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}
