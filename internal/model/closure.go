package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип закрытия филиала.
type ClosureType string

const (
	ClosureTypeFullDay   ClosureType = "full_day"
	ClosureTypePartial   ClosureType = "partial"
	ClosureTypeEmergency ClosureType = "emergency"
)

// branch_closures — праздники и закрытия филиала. Действуют на всех
// мастеров филиала в указанную дату; is_recurring — ежегодный повтор
// (тот же день и месяц каждого года).
type BranchClosure struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	Date datatypes.Date `gorm:"type:date;not null;index"`

	IsRecurring bool `gorm:"not null;default:false"`

	ClosureType ClosureType `gorm:"type:varchar(16);not null;default:'full_day'"`

	// Для partial — окно закрытия «15:04»–«15:04»; пустые значения
	// означают закрытие на весь день, как full_day.
	PartialStart *string `gorm:"type:varchar(5)"`
	PartialEnd   *string `gorm:"type:varchar(5)"`

	Note string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// AppliesTo сообщает, действует ли закрытие в календарный день day.
func (c *BranchClosure) AppliesTo(day time.Time) bool {
	d := time.Time(c.Date)
	if c.IsRecurring {
		return d.Month() == day.Month() && d.Day() == day.Day()
	}
	return d.Year() == day.Year() && d.Month() == day.Month() && d.Day() == day.Day()
}
