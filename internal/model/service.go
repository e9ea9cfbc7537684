package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// services
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	// Длительность в минутах. Интервал брони обязан совпадать с ней
	// (плюс минуты дополнений) — фиксированных «часовых» допущений нет.
	DurationMin int64 `gorm:"type:bigint;not null"`

	// Дополнительные минуты к визиту (уборка места, сушка и т.п.).
	AddonMin int64 `gorm:"type:bigint;not null;default:0"`

	Price decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	// Требует ли услуга подтверждения мастером: бронь создаётся
	// в pending вместо confirmed.
	RequiresConfirmation bool `gorm:"not null;default:false"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Навигация many2many
	Stylists []Stylist `gorm:"many2many:stylist_services;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TotalDurationMin — полная длительность визита по услуге.
func (s *Service) TotalDurationMin() int64 {
	return s.DurationMin + s.AddonMin
}

// stylist_services — кастомная join-таблица многие-ко-многим.
type StylistService struct {
	StylistID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ServiceID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Stylist *Stylist `gorm:"foreignKey:StylistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
