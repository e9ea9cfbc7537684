package model

import (
	"time"

	"github.com/google/uuid"
)

// Тип события аудита.
type EventType string

const (
	EventTypeReservationCreated   EventType = "reservation.created"
	EventTypeReservationConfirmed EventType = "reservation.confirmed"
	EventTypeReservationCancelled EventType = "reservation.cancelled"
	EventTypeReservationCompleted EventType = "reservation.completed"
	EventTypeReservationNoShow    EventType = "reservation.no_show"
	EventTypeWaitlistSlotFreed    EventType = "waitinglist.slot_available"
)

// events — события аудита
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	ReservationID *uuid.UUID `gorm:"type:uuid;index"`

	// Роль инициатора перехода (client/stylist/admin/auto), если есть.
	ActorRole string `gorm:"type:varchar(32)"`

	Details string `gorm:"type:text"`

	// Навигационные поля
	Reservation *Reservation `gorm:"foreignKey:ReservationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
