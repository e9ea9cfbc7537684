package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/timegrid"
)

func computeDay(t *testing.T, svc *AvailabilityService, fx *salonFixture, day string) []timegrid.TimeRange {
	t.Helper()
	from := mustTime(t, day+"T00:00:00Z")
	slots, err := svc.ComputeAvailability(context.Background(), fx.stylist.ID, fx.service.ID, from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ComputeAvailability: %v", err)
	}
	return slots
}

func hasSlotAt(slots []timegrid.TimeRange, start time.Time) bool {
	for _, s := range slots {
		if s.Start.Equal(start) {
			return true
		}
	}
	return false
}

func TestComputeAvailability_FullWorkingDay(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	slots := computeDay(t, svc, fx, bookingDay)

	// 09:00–17:00, услуга 60 минут, шаг 15: старты 09:00..16:00.
	if len(slots) != 29 {
		t.Fatalf("len(slots) = %d, want 29", len(slots))
	}
	if want := mustTime(t, bookingDay+"T09:00:00Z"); !slots[0].Start.Equal(want) {
		t.Errorf("first slot = %s, want %s", slots[0].Start, want)
	}
	if want := mustTime(t, bookingDay+"T16:00:00Z"); !slots[len(slots)-1].Start.Equal(want) {
		t.Errorf("last slot = %s, want %s", slots[len(slots)-1].Start, want)
	}
	for _, s := range slots {
		if s.Duration() != time.Hour {
			t.Fatalf("slot %s has duration %s, want 1h", s.Start, s.Duration())
		}
	}
}

func TestComputeAvailability_DayOffYieldsNothing(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	// Воскресенье: записи расписания нет вовсе.
	if slots := computeDay(t, svc, fx, "2026-09-13"); len(slots) != 0 {
		t.Errorf("sunday slots = %d, want 0", len(slots))
	}
}

func TestComputeAvailability_BlockPunchesHole(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	block := &model.TimeBlock{
		StylistID: fx.stylist.ID,
		StartsAt:  mustTime(t, bookingDay+"T12:00:00Z"),
		EndsAt:    mustTime(t, bookingDay+"T13:00:00Z"),
		Reason:    model.BlockReasonTraining,
	}
	if err := db.Create(block).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	slots := computeDay(t, svc, fx, bookingDay)

	// Окна [09:00,12:00) и [13:00,17:00): 9 + 13 стартов.
	if len(slots) != 22 {
		t.Fatalf("len(slots) = %d, want 22", len(slots))
	}
	hole := timegrid.TimeRange{Start: block.StartsAt, End: block.EndsAt}
	for _, s := range slots {
		if timegrid.Overlaps(s, hole) {
			t.Errorf("slot %s overlaps the block", s.Start)
		}
	}
	if !hasSlotAt(slots, mustTime(t, bookingDay+"T11:00:00Z")) {
		t.Errorf("slot 11:00 must survive: it ends exactly at the block start")
	}
	if !hasSlotAt(slots, mustTime(t, bookingDay+"T13:00:00Z")) {
		t.Errorf("slot 13:00 must survive: it starts exactly at the block end")
	}
}

func TestComputeAvailability_BreakSubtracted(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	err := db.Model(&model.WeeklyScheduleEntry{}).
		Where("stylist_id = ? AND day_of_week = 1", fx.stylist.ID).
		Updates(map[string]any{"break_start": "12:00", "break_end": "13:00"}).Error
	if err != nil {
		t.Fatalf("set break: %v", err)
	}

	if slots := computeDay(t, svc, fx, bookingDay); len(slots) != 22 {
		t.Errorf("len(slots) = %d, want 22 (break behaves like a block)", len(slots))
	}
}

func TestComputeAvailability_AllDayBlockWipesDay(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	block := &model.TimeBlock{
		StylistID: fx.stylist.ID,
		StartsAt:  mustTime(t, bookingDay+"T00:00:00Z"),
		EndsAt:    mustTime(t, bookingDay+"T23:59:00Z"),
		Reason:    model.BlockReasonVacation,
		IsAllDay:  true,
	}
	if err := db.Create(block).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	if slots := computeDay(t, svc, fx, bookingDay); len(slots) != 0 {
		t.Errorf("len(slots) = %d, want 0", len(slots))
	}
}

func TestComputeAvailability_RecurringWeeklyBlock(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	// Планёрка по понедельникам 10:00–11:00 до конца сентября;
	// якорь — предыдущий понедельник.
	rule, err := timegrid.NewWeekly([]time.Weekday{time.Monday}, mustTime(t, "2026-09-30T00:00:00Z"))
	if err != nil {
		t.Fatalf("NewWeekly: %v", err)
	}
	raw, err := json.Marshal(rule)
	if err != nil {
		t.Fatalf("marshal rule: %v", err)
	}
	block := &model.TimeBlock{
		StylistID:   fx.stylist.ID,
		StartsAt:    mustTime(t, "2026-09-07T10:00:00Z"),
		EndsAt:      mustTime(t, "2026-09-07T11:00:00Z"),
		Reason:      model.BlockReasonEvent,
		IsRecurring: true,
		Recurrence:  datatypes.JSON(raw),
	}
	if err := db.Create(block).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	slots := computeDay(t, svc, fx, bookingDay)

	hole := timegrid.TimeRange{
		Start: mustTime(t, bookingDay+"T10:00:00Z"),
		End:   mustTime(t, bookingDay+"T11:00:00Z"),
	}
	for _, s := range slots {
		if timegrid.Overlaps(s, hole) {
			t.Errorf("slot %s overlaps the recurring block occurrence", s.Start)
		}
	}
	if !hasSlotAt(slots, mustTime(t, bookingDay+"T09:00:00Z")) {
		t.Errorf("slot 09:00 must survive")
	}
	if !hasSlotAt(slots, mustTime(t, bookingDay+"T11:00:00Z")) {
		t.Errorf("slot 11:00 must survive")
	}
}

func TestComputeAvailability_RecurringRuleWithoutBound(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	// Правило без until проходит мимо репозитория (битые данные в базе) —
	// расчёт обязан отказать, а не зациклиться или молча пропустить блок.
	block := &model.TimeBlock{
		StylistID:   fx.stylist.ID,
		StartsAt:    mustTime(t, "2026-09-07T10:00:00Z"),
		EndsAt:      mustTime(t, "2026-09-07T11:00:00Z"),
		IsRecurring: true,
		Recurrence:  datatypes.JSON(`{"freq":"weekly","weekdays":[1]}`),
	}
	if err := db.Create(block).Error; err != nil {
		t.Fatalf("seed block: %v", err)
	}

	from := mustTime(t, bookingDay+"T00:00:00Z")
	_, err := svc.ComputeAvailability(context.Background(), fx.stylist.ID, fx.service.ID, from, from.AddDate(0, 0, 1))
	if !errors.Is(err, timegrid.ErrMissingRecurrenceBound) {
		t.Fatalf("err = %v, want ErrMissingRecurrenceBound", err)
	}
}

func TestComputeAvailability_BranchClosures(t *testing.T) {
	cases := []struct {
		name    string
		closure model.BranchClosure
		want    int
	}{
		{
			"full day",
			model.BranchClosure{
				Date:        datatypes.Date(time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)),
				ClosureType: model.ClosureTypeFullDay,
			},
			0,
		},
		{
			"emergency",
			model.BranchClosure{
				Date:        datatypes.Date(time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)),
				ClosureType: model.ClosureTypeEmergency,
			},
			0,
		},
		{
			"recurring annual holiday",
			model.BranchClosure{
				Date:        datatypes.Date(time.Date(2020, 9, 14, 0, 0, 0, 0, time.UTC)),
				IsRecurring: true,
				ClosureType: model.ClosureTypeFullDay,
			},
			0,
		},
		{
			"partial morning",
			model.BranchClosure{
				Date:         datatypes.Date(time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)),
				ClosureType:  model.ClosureTypePartial,
				PartialStart: strPtr("09:00"),
				PartialEnd:   strPtr("12:00"),
			},
			17, // свободно [12:00, 17:00): старты 12:00..16:00
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := newTestDB(t)
			fx := seedSalon(t, db)
			svc := newAvailability(db)

			closure := c.closure
			closure.BranchID = fx.branch.ID
			if err := db.Create(&closure).Error; err != nil {
				t.Fatalf("seed closure: %v", err)
			}

			if slots := computeDay(t, svc, fx, bookingDay); len(slots) != c.want {
				t.Errorf("len(slots) = %d, want %d", len(slots), c.want)
			}
		})
	}
}

func TestComputeAvailability_ActiveReservationSubtracted(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	seedReservation(t, db, fx, model.ReservationStatusConfirmed, mustTime(t, bookingDay+"T14:00:00Z"))
	// Отменённая не занимает интервал.
	seedReservation(t, db, fx, model.ReservationStatusCancelled, mustTime(t, bookingDay+"T09:00:00Z"))

	slots := computeDay(t, svc, fx, bookingDay)

	busy := timegrid.TimeRange{
		Start: mustTime(t, bookingDay+"T14:00:00Z"),
		End:   mustTime(t, bookingDay+"T15:00:00Z"),
	}
	for _, s := range slots {
		if timegrid.Overlaps(s, busy) {
			t.Errorf("slot %s overlaps a confirmed reservation", s.Start)
		}
	}
	if !hasSlotAt(slots, mustTime(t, bookingDay+"T09:00:00Z")) {
		t.Errorf("cancelled reservation must not shadow 09:00")
	}
}

func TestComputeAvailability_InactiveStylist(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	if err := db.Model(&model.Stylist{}).Where("id = ?", fx.stylist.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate stylist: %v", err)
	}

	from := mustTime(t, bookingDay+"T00:00:00Z")
	_, err := svc.ComputeAvailability(context.Background(), fx.stylist.ID, fx.service.ID, from, from.AddDate(0, 0, 1))
	if !errors.Is(err, ErrStylistInactive) {
		t.Fatalf("err = %v, want ErrStylistInactive", err)
	}
}

func TestComputeAvailability_UnknownStylist(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	from := mustTime(t, bookingDay+"T00:00:00Z")
	_, err := svc.ComputeAvailability(context.Background(), newUUID(t), fx.service.ID, from, from.AddDate(0, 0, 1))
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("err = %v, want gorm.ErrRecordNotFound", err)
	}
}

func TestListSlots_Paginates(t *testing.T) {
	db := newTestDB(t)
	fx := seedSalon(t, db)
	svc := newAvailability(db)

	from := mustTime(t, bookingDay+"T00:00:00Z")
	page, err := svc.ListSlots(context.Background(), fx.stylist.ID, fx.service.ID, from, from.AddDate(0, 0, 1), 2, 10)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}

	if page.Total != 29 {
		t.Errorf("total = %d, want 29", page.Total)
	}
	if len(page.Items) != 10 {
		t.Errorf("len(items) = %d, want 10", len(page.Items))
	}
	// Вторая страница начинается с 11-го слота: 09:00 + 10×15 мин.
	if want := mustTime(t, bookingDay+"T11:30:00Z"); !page.Items[0].Start.Equal(want) {
		t.Errorf("first item of page 2 = %s, want %s", page.Items[0].Start, want)
	}
}
