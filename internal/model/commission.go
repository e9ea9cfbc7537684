package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статус комиссионной записи.
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusPaid      CommissionStatus = "paid"
	CommissionStatusCancelled CommissionStatus = "cancelled"
)

// commission_records — расчёт по завершённой броне, 1:1.
// Уникальный индекс по reservation_id и есть idempotency-guard:
// повторный расчёт не перезаписывает существующий.
type CommissionRecord struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ReservationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	ServiceAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CommissionRate float64         `gorm:"type:numeric(5,2);not null"`

	PlatformFee   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	BranchAmount  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	StylistAmount decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Status CommissionStatus `gorm:"type:varchar(16);not null;default:'pending';index"`

	PaidAt *time.Time `gorm:"type:timestamp with time zone"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Reservation *Reservation `gorm:"foreignKey:ReservationID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
