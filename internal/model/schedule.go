package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrScheduleEntry — недельная запись расписания заполнена некорректно.
var ErrScheduleEntry = errors.New("invalid weekly schedule entry")

// weekly_schedule_entries — рабочие часы мастера по дням недели.
// Не более одной записи на пару (мастер, день недели).
type WeeklyScheduleEntry struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	StylistID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_stylist_weekday"`

	// 0 = воскресенье … 6 = суббота, как в time.Weekday.
	DayOfWeek int `gorm:"not null;uniqueIndex:uq_stylist_weekday"`

	// Время в формате «15:04» внутри дня филиала.
	StartTime string `gorm:"type:varchar(5);not null"`
	EndTime   string `gorm:"type:varchar(5);not null"`

	IsAvailable bool `gorm:"not null;default:true"`

	// Перерыв внутри рабочего дня: либо оба значения, либо ни одного.
	BreakStart *string `gorm:"type:varchar(5)"`
	BreakEnd   *string `gorm:"type:varchar(5)"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Stylist *Stylist `gorm:"foreignKey:StylistID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// Validate проверяет инварианты записи:
// день недели в [0..6], start < end, перерыв целиком внутри рабочего дня.
func (e *WeeklyScheduleEntry) Validate() error {
	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week %d out of range", ErrScheduleEntry, e.DayOfWeek)
	}

	start, err := ParseClock(e.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time: %v", ErrScheduleEntry, err)
	}
	end, err := ParseClock(e.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time: %v", ErrScheduleEntry, err)
	}
	if start >= end {
		return fmt.Errorf("%w: start_time must be before end_time", ErrScheduleEntry)
	}

	if (e.BreakStart == nil) != (e.BreakEnd == nil) {
		return fmt.Errorf("%w: break must have both bounds or none", ErrScheduleEntry)
	}
	if e.BreakStart != nil {
		bs, err := ParseClock(*e.BreakStart)
		if err != nil {
			return fmt.Errorf("%w: break_start: %v", ErrScheduleEntry, err)
		}
		be, err := ParseClock(*e.BreakEnd)
		if err != nil {
			return fmt.Errorf("%w: break_end: %v", ErrScheduleEntry, err)
		}
		if !(start <= bs && bs < be && be <= end) {
			return fmt.Errorf("%w: break must lie within working hours", ErrScheduleEntry)
		}
	}

	return nil
}

// ParseClock разбирает время «15:04» в минуты от полуночи.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
