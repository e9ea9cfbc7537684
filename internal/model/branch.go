package model

import (
	"time"

	"github.com/google/uuid"
)

// branches
type Branch struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name    string `gorm:"type:varchar(255);not null"`
	Address string `gorm:"type:text"`

	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Доля платформы с каждого завершённого визита, в процентах.
	PlatformFeePct float64 `gorm:"type:numeric(5,2);not null;default:10"`

	// Переопределение окна бесплатной отмены (часов до начала визита).
	// NULL — используется значение по умолчанию из конфигурации.
	CancelWindowHours *int `gorm:"type:integer"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Stylists []Stylist       `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Closures []BranchClosure `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
