package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Leganyst/salon-booking/internal/timegrid"
)

// Статус брони. Переходы монотонны:
// pending → confirmed → in_progress → completed;
// pending|confirmed → cancelled; confirmed → no_show.
type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "pending"
	ReservationStatusConfirmed  ReservationStatus = "confirmed"
	ReservationStatusInProgress ReservationStatus = "in_progress"
	ReservationStatusCompleted  ReservationStatus = "completed"
	ReservationStatusCancelled  ReservationStatus = "cancelled"
	ReservationStatusNoShow     ReservationStatus = "no_show"
)

// reservations — центральная сущность. Бронь никогда не удаляется
// физически: отмена — это статус, а не удаление строки.
type Reservation struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ClientID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StylistID uuid.UUID `gorm:"type:uuid;not null;index:idx_stylist_time"`
	ServiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID  uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_stylist_time"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Status ReservationStatus `gorm:"type:varchar(32);not null;index"`

	// Снимок цены на момент брони.
	ServicePrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Tip            decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TotalPrice     decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	// Итог расчёта (заполняется при завершении).
	PlatformFee     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	BranchAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	StylistEarnings decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	// Дедлайн бесплатной отмены. Отмена ровно в этот момент — без штрафа.
	CancellableUntil time.Time `gorm:"type:timestamp with time zone;not null"`

	RequiresConfirmation bool `gorm:"not null;default:false"`

	CancellationPenalty decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`

	ConfirmedAt *time.Time `gorm:"type:timestamp with time zone"`
	ConfirmedBy string     `gorm:"type:varchar(32)"`
	CancelledAt *time.Time `gorm:"type:timestamp with time zone"`
	CancelledBy string     `gorm:"type:varchar(32)"`
	CompletedAt *time.Time `gorm:"type:timestamp with time zone"`

	CancelReason string `gorm:"type:text"`

	// Однонаправленные флаги напоминаний; выставляются внешним
	// планировщиком, гонка last-write-wins безвредна.
	Reminder24hSent bool `gorm:"column:reminder_24h_sent;not null;default:false"`
	Reminder1hSent  bool `gorm:"column:reminder_1h_sent;not null;default:false"`

	// Связанные дочерние брони (например, последующие визиты):
	// отменяются каскадом при отмене родителя.
	ParentID *uuid.UUID `gorm:"type:uuid;index"`

	// Версия строки для оптимистичных обновлений вне tryReserve.
	Version int64 `gorm:"not null;default:1"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Client  *Client      `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Stylist *Stylist     `gorm:"foreignKey:StylistID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Service *Service     `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Branch  *Branch      `gorm:"foreignKey:BranchID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Parent  *Reservation `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// Interval возвращает запланированный интервал брони.
func (r *Reservation) Interval() timegrid.TimeRange {
	return timegrid.TimeRange{Start: r.StartsAt, End: r.EndsAt}
}

// IsTerminal сообщает, достигла ли бронь конечного статуса.
func (r *Reservation) IsTerminal() bool {
	switch r.Status {
	case ReservationStatusCompleted, ReservationStatusCancelled, ReservationStatusNoShow:
		return true
	}
	return false
}

// ActiveStatuses — статусы, занимающие интервал мастера.
// Ровно одна такая бронь может существовать на пересекающийся интервал.
func ActiveStatuses() []ReservationStatus {
	return []ReservationStatus{
		ReservationStatusPending,
		ReservationStatusConfirmed,
		ReservationStatusInProgress,
	}
}
