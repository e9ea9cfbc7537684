package model

import (
	"time"

	"github.com/google/uuid"
)

// Stylist — мастер салона. Владеет своим недельным расписанием и блоками
// недоступности; всё остальное ссылается на него только по ID.
type Stylist struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`

	DisplayName string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// Доля мастера с каждого завершённого визита, в процентах.
	CommissionPct float64 `gorm:"type:numeric(5,2);not null;default:50"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Branch *Branch `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Services []Service `gorm:"many2many:stylist_services;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Schedule []WeeklyScheduleEntry `gorm:"foreignKey:StylistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Blocks   []TimeBlock           `gorm:"foreignKey:StylistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
