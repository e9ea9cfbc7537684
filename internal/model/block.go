package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/salon-booking/internal/timegrid"
)

// Причина недоступности мастера.
type BlockReason string

const (
	BlockReasonVacation    BlockReason = "vacation"
	BlockReasonSickLeave   BlockReason = "sick_leave"
	BlockReasonPersonal    BlockReason = "personal"
	BlockReasonTraining    BlockReason = "training"
	BlockReasonEvent       BlockReason = "event"
	BlockReasonMaintenance BlockReason = "maintenance"
	BlockReasonOther       BlockReason = "other"
)

// time_blocks — периоды недоступности мастера (отпуск, больничный и т.п.).
// Повторяющийся блок хранит правило в JSON-колонке; правило обязано иметь
// дату окончания и валидируется при разборе. Истёкшие повторяющиеся блоки
// не удаляются физически — они просто перестают давать вхождения.
type TimeBlock struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	StylistID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Reason BlockReason `gorm:"type:varchar(32);not null;default:'other'"`

	// Блок на весь день: рабочие часы дня игнорируются целиком.
	IsAllDay bool `gorm:"not null;default:false"`

	IsRecurring bool           `gorm:"not null;default:false;index"`
	Recurrence  datatypes.JSON `gorm:"type:jsonb"`

	Note string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Stylist *Stylist `gorm:"foreignKey:StylistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// Interval возвращает интервал первого (для повторяющихся — якорного) вхождения.
func (b *TimeBlock) Interval() timegrid.TimeRange {
	return timegrid.TimeRange{Start: b.StartsAt, End: b.EndsAt}
}

// Rule разбирает и валидирует правило повторения.
// Для неповторяющегося блока вызывать не нужно.
func (b *TimeBlock) Rule() (timegrid.Recurrence, error) {
	if len(b.Recurrence) == 0 {
		return timegrid.Recurrence{}, timegrid.ErrMissingRecurrenceBound
	}
	return timegrid.ParseRecurrence(b.Recurrence)
}
