package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/clock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
	"github.com/Leganyst/salon-booking/internal/timegrid"
)

// BookingService — единственный путь создания брони и единственное место,
// где нужна атомарность: блокировка строки мастера сериализует
// конкурирующие попытки, ре-проверка и вставка происходят в одной
// транзакции. Из двух конкурирующих броней на пересекающийся интервал
// выигрывает ровно одна, остальные получают ErrSlotTaken.
type BookingService struct {
	db     *gorm.DB
	clk    clock.Clock
	policy Policy
}

func NewBookingService(db *gorm.DB, clk clock.Clock, policy Policy) *BookingService {
	return &BookingService{db: db, clk: clk, policy: policy}
}

// ReserveInput — запрос на бронь. Скидка приходит готовым числом от
// промо-коллаборатора; чаевые добавляются позже, при завершении.
type ReserveInput struct {
	ClientID       uuid.UUID
	StylistID      uuid.UUID
	ServiceID      uuid.UUID
	StartsAt       time.Time
	DiscountAmount decimal.Decimal
	// Родительская бронь для связанных последующих визитов.
	ParentID *uuid.UUID
	Comment  string
}

// TryReserve проверяет и создаёт бронь атомарно:
//  1. строка мастера читается под блокировкой, проверяется is_active;
//  2. интервал ре-проверяется против расписания, блоков и закрытий;
//  3. интервал ре-проверяется против активных броней (полуоткрыто);
//  4. строка вставляется.
//
// Отказ при конкуренции — немедленный ErrSlotTaken, без ожидания:
// клиент перезапрашивает доступность и пробует другой слот.
func (s *BookingService) TryReserve(ctx context.Context, in ReserveInput) (*model.Reservation, error) {
	var created *model.Reservation

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stylists := repository.NewGormStylistRepository(tx)
		services := repository.NewGormServiceRepository(tx)
		branches := repository.NewGormBranchRepository(tx)
		reservations := repository.NewGormReservationRepository(tx)
		events := repository.NewGormEventRepository(tx)

		stylist, err := stylists.GetForUpdate(ctx, in.StylistID)
		if err != nil {
			return fmt.Errorf("lock stylist: %w", err)
		}
		if !stylist.IsActive {
			return ErrStylistInactive
		}

		svc, err := services.GetByID(ctx, in.ServiceID)
		if err != nil {
			return fmt.Errorf("load service: %w", err)
		}
		if !svc.IsActive {
			return ErrOutsideAvailability
		}

		// Интервал строго равен длительности услуги с дополнениями.
		duration := time.Duration(svc.TotalDurationMin()) * time.Minute
		interval, err := timegrid.New(in.StartsAt, in.StartsAt.Add(duration))
		if err != nil {
			return err
		}

		if err := checkIntervalBookable(ctx, tx, stylist, interval); err != nil {
			return err
		}

		overlapping, err := reservations.ListActiveByStylistRange(ctx, stylist.ID, interval.Start, interval.End)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if len(overlapping) > 0 {
			return ErrSlotTaken
		}

		branch, err := branches.GetByID(ctx, stylist.BranchID)
		if err != nil {
			return fmt.Errorf("load branch: %w", err)
		}

		total := svc.Price.Sub(in.DiscountAmount)
		if total.IsNegative() {
			return fmt.Errorf("%w: discount exceeds service price", ErrCommissionConfig)
		}

		now := s.clk.Now()
		res := &model.Reservation{
			ClientID:             in.ClientID,
			StylistID:            stylist.ID,
			ServiceID:            svc.ID,
			BranchID:             branch.ID,
			StartsAt:             interval.Start,
			EndsAt:               interval.End,
			ServicePrice:         svc.Price,
			DiscountAmount:       in.DiscountAmount,
			Tip:                  decimal.Zero,
			TotalPrice:           total,
			CancellableUntil:     interval.Start.Add(-s.policy.cancelWindow(branch)),
			RequiresConfirmation: svc.RequiresConfirmation,
			ParentID:             in.ParentID,
			Version:              1,
		}
		if svc.RequiresConfirmation {
			res.Status = model.ReservationStatusPending
		} else {
			res.Status = model.ReservationStatusConfirmed
			res.ConfirmedAt = &now
			res.ConfirmedBy = string(ActorAuto)
		}

		if err := reservations.Create(ctx, res); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}

		if err := events.Append(ctx, &model.Event{
			EventType:     model.EventTypeReservationCreated,
			ReservationID: &res.ID,
			ActorRole:     string(ActorClient),
			Details:       in.Comment,
		}); err != nil {
			return fmt.Errorf("append event: %w", err)
		}

		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// IsBusinessReject сообщает, является ли ошибка ожидаемым бизнес-отказом
// («время уже занято, выберите другое»), а не внутренней ошибкой.
func IsBusinessReject(err error) bool {
	return errors.Is(err, ErrSlotTaken) ||
		errors.Is(err, ErrOutsideAvailability) ||
		errors.Is(err, ErrStylistInactive)
}
