package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Статус записи листа ожидания.
type WaitingStatus string

const (
	WaitingStatusActive    WaitingStatus = "active"
	WaitingStatusNotified  WaitingStatus = "notified"
	WaitingStatusConverted WaitingStatus = "converted"
	WaitingStatusCancelled WaitingStatus = "cancelled"
	WaitingStatusExpired   WaitingStatus = "expired"
)

// waiting_list_entries — клиенты, ждущие освобождения слота.
// При отмене брони подходящие записи уведомляются в порядке:
// больший priority, затем более ранний created_at.
type WaitingListEntry struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ClientID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	StylistID *uuid.UUID `gorm:"type:uuid;index"` // NULL — любой мастер филиала
	ServiceID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BranchID  uuid.UUID  `gorm:"type:uuid;not null;index"`

	PreferredDate datatypes.Date `gorm:"type:date;not null;index"`
	PreferredTime *string        `gorm:"type:varchar(5)"`

	Status WaitingStatus `gorm:"type:varchar(16);not null;default:'active';index"`

	Priority int `gorm:"not null;default:0"`

	ExpiresAt time.Time `gorm:"type:timestamp with time zone;not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Client  *Client  `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
