package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/timegrid"
)

// AvailabilityService вычисляет свободные окна мастера: недельное
// расписание минус перерыв, блоки недоступности (включая повторяющиеся),
// закрытия филиала и существующие активные брони. Расчёт совещательный —
// ничего не мутирует; гарантию от гонок даёт только BookingService.
type AvailabilityService struct {
	stylists     repository.StylistRepository
	services     repository.ServiceRepository
	schedules    repository.ScheduleRepository
	blocks       repository.TimeBlockRepository
	closures     repository.ClosureRepository
	reservations repository.ReservationRepository

	policy Policy
}

func NewAvailabilityService(
	stylists repository.StylistRepository,
	services repository.ServiceRepository,
	schedules repository.ScheduleRepository,
	blocks repository.TimeBlockRepository,
	closures repository.ClosureRepository,
	reservations repository.ReservationRepository,
	policy Policy,
) *AvailabilityService {
	return &AvailabilityService{
		stylists:     stylists,
		services:     services,
		schedules:    schedules,
		blocks:       blocks,
		closures:     closures,
		reservations: reservations,
		policy:       policy,
	}
}

// ComputeAvailability возвращает кандидатные слоты мастера под услугу
// в диапазоне [from, to): полные по длительности, непересекающиеся,
// с шагом стартов из политики.
func (s *AvailabilityService) ComputeAvailability(
	ctx context.Context,
	stylistID, serviceID uuid.UUID,
	from, to time.Time,
) ([]timegrid.TimeRange, error) {
	window, err := timegrid.New(from, to)
	if err != nil {
		return nil, err
	}

	stylist, err := s.stylists.GetByID(ctx, stylistID)
	if err != nil {
		return nil, fmt.Errorf("load stylist: %w", err)
	}
	if !stylist.IsActive {
		return nil, ErrStylistInactive
	}

	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	duration := time.Duration(svc.TotalDurationMin()) * time.Minute

	entries, err := s.schedules.ListByStylist(ctx, stylistID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	byWeekday := make(map[int]*model.WeeklyScheduleEntry, len(entries))
	for i := range entries {
		byWeekday[entries[i].DayOfWeek] = &entries[i]
	}

	blocks, err := s.blocks.ListByStylistRange(ctx, stylistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load blocks: %w", err)
	}
	closures, err := s.closures.ListByBranchRange(ctx, stylist.BranchID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load closures: %w", err)
	}
	reservations, err := s.reservations.ListActiveByStylistRange(ctx, stylistID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	var slots []timegrid.TimeRange
	for day := dayStart(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		entry := byWeekday[int(day.Weekday())]

		free, err := freeWindowsForDay(day, entry, blocks, closures, reservations)
		if err != nil {
			return nil, err
		}

		for _, w := range free {
			// Обрезаем до запрошенного диапазона.
			w, ok := clip(w, window)
			if !ok || w.Duration() < duration {
				continue
			}
			daySlots, err := timegrid.SplitToSlots(w, duration, s.policy.SlotStepMinutes)
			if err != nil {
				return nil, err
			}
			slots = append(slots, daySlots...)
		}
	}

	return slots, nil
}

// ListSlots — постраничная выдача кандидатных слотов.
func (s *AvailabilityService) ListSlots(
	ctx context.Context,
	stylistID, serviceID uuid.UUID,
	from, to time.Time,
	page, pageSize int,
) (Page[timegrid.TimeRange], error) {
	slots, err := s.ComputeAvailability(ctx, stylistID, serviceID, from, to)
	if err != nil {
		return Page[timegrid.TimeRange]{}, err
	}
	return Paginate(slots, page, pageSize), nil
}

// freeWindowsForDay строит свободные под-интервалы одного календарного дня:
// рабочие часы минус перерыв, блоки, закрытия и активные брони.
// Возвращает nil, если день выбит целиком (нет записи расписания,
// is_available=false, all-day блок или закрытие филиала на весь день).
func freeWindowsForDay(
	day time.Time,
	entry *model.WeeklyScheduleEntry,
	blocks []model.TimeBlock,
	closures []model.BranchClosure,
	reservations []model.Reservation,
) ([]timegrid.TimeRange, error) {
	if entry == nil || !entry.IsAvailable {
		return nil, nil
	}

	working, err := workingWindow(day, entry)
	if err != nil {
		return nil, err
	}
	dayWin := timegrid.DayWindow(day)

	var holes []timegrid.TimeRange

	if entry.BreakStart != nil && entry.BreakEnd != nil {
		br, err := clockWindow(day, *entry.BreakStart, *entry.BreakEnd)
		if err != nil {
			return nil, fmt.Errorf("schedule entry %s: %w", entry.ID, err)
		}
		holes = append(holes, br)
	}

	for i := range blocks {
		b := &blocks[i]
		occs, err := blockOccurrences(b, dayWin)
		if err != nil {
			return nil, fmt.Errorf("time block %s: %w", b.ID, err)
		}
		if len(occs) == 0 {
			continue
		}
		// All-day блок выбивает день независимо от рабочих часов.
		if b.IsAllDay {
			return nil, nil
		}
		holes = append(holes, occs...)
	}

	for i := range closures {
		c := &closures[i]
		if !c.AppliesTo(day) {
			continue
		}
		if c.ClosureType == model.ClosureTypePartial && c.PartialStart != nil && c.PartialEnd != nil {
			w, err := clockWindow(day, *c.PartialStart, *c.PartialEnd)
			if err != nil {
				return nil, fmt.Errorf("branch closure %s: %w", c.ID, err)
			}
			holes = append(holes, w)
			continue
		}
		// full_day и emergency закрывают день целиком.
		return nil, nil
	}

	for i := range reservations {
		r := &reservations[i]
		if timegrid.Overlaps(r.Interval(), dayWin) {
			holes = append(holes, r.Interval())
		}
	}

	return timegrid.Subtract([]timegrid.TimeRange{working}, holes), nil
}

// blockOccurrences возвращает вхождения блока внутри окна дня.
func blockOccurrences(b *model.TimeBlock, dayWin timegrid.TimeRange) ([]timegrid.TimeRange, error) {
	if !b.IsRecurring {
		if timegrid.Overlaps(b.Interval(), dayWin) {
			return []timegrid.TimeRange{b.Interval()}, nil
		}
		return nil, nil
	}

	rule, err := b.Rule()
	if err != nil {
		return nil, err
	}
	return timegrid.Expand(rule, b.Interval(), dayWin)
}

func workingWindow(day time.Time, entry *model.WeeklyScheduleEntry) (timegrid.TimeRange, error) {
	w, err := clockWindow(day, entry.StartTime, entry.EndTime)
	if err != nil {
		return timegrid.TimeRange{}, fmt.Errorf("schedule entry %s: %w", entry.ID, err)
	}
	return w, nil
}

func clockWindow(day time.Time, startClock, endClock string) (timegrid.TimeRange, error) {
	sm, err := model.ParseClock(startClock)
	if err != nil {
		return timegrid.TimeRange{}, err
	}
	em, err := model.ParseClock(endClock)
	if err != nil {
		return timegrid.TimeRange{}, err
	}
	return timegrid.New(
		timegrid.AtTimeOfDay(day, sm/60, sm%60),
		timegrid.AtTimeOfDay(day, em/60, em%60),
	)
}

// clip обрезает интервал w до границ bound.
func clip(w, bound timegrid.TimeRange) (timegrid.TimeRange, bool) {
	if !timegrid.Overlaps(w, bound) {
		return timegrid.TimeRange{}, false
	}
	if w.Start.Before(bound.Start) {
		w.Start = bound.Start
	}
	if w.End.After(bound.End) {
		w.End = bound.End
	}
	return w, true
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// checkIntervalBookable повторяет шаги (3)–(4) расчёта доступности для
// одного интервала. Вызывается из транзакции tryReserve поверх tx-скоупных
// репозиториев — это и есть ре-проверка на границе коммита.
func checkIntervalBookable(
	ctx context.Context,
	tx *gorm.DB,
	stylist *model.Stylist,
	interval timegrid.TimeRange,
) error {
	schedules := repository.NewGormScheduleRepository(tx)
	blocks := repository.NewGormTimeBlockRepository(tx)
	closures := repository.NewGormClosureRepository(tx)

	day := dayStart(interval.Start)

	entry, err := schedules.GetByStylistDay(ctx, stylist.ID, int(day.Weekday()))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOutsideAvailability
		}
		return fmt.Errorf("load schedule entry: %w", err)
	}

	blk, err := blocks.ListByStylistRange(ctx, stylist.ID, interval.Start, interval.End)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	cls, err := closures.ListByBranchRange(ctx, stylist.BranchID, interval.Start, interval.End)
	if err != nil {
		return fmt.Errorf("load closures: %w", err)
	}

	free, err := freeWindowsForDay(day, entry, blk, cls, nil)
	if err != nil {
		return err
	}
	for _, w := range free {
		if w.Contains(interval) {
			return nil
		}
	}
	return ErrOutsideAvailability
}
