package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/clock"
	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/repository"
)

// Сколько раз повторяется отправка уведомления листу ожидания.
const waitlistNotifyAttempts = 3

// ReservationService владеет жизненным циклом брони:
// pending → confirmed → in_progress → completed;
// pending|confirmed → cancelled; confirmed → no_show.
// Переходы обновляют строку оптимистично (id + version), поэтому
// завершённую бронь невозможно задним числом отменить и наоборот.
type ReservationService struct {
	db *gorm.DB

	reservations repository.ReservationRepository
	commissions  repository.CommissionRepository
	waitlist     repository.WaitingListRepository
	events       repository.EventRepository
	stylists     repository.StylistRepository
	branches     repository.BranchRepository

	notifier Notifier
	payments PaymentVerifier
	clk      clock.Clock
	policy   Policy
}

func NewReservationService(
	db *gorm.DB,
	reservations repository.ReservationRepository,
	commissions repository.CommissionRepository,
	waitlist repository.WaitingListRepository,
	events repository.EventRepository,
	stylists repository.StylistRepository,
	branches repository.BranchRepository,
	notifier Notifier,
	payments PaymentVerifier,
	clk clock.Clock,
	policy Policy,
) *ReservationService {
	return &ReservationService{
		db:           db,
		reservations: reservations,
		commissions:  commissions,
		waitlist:     waitlist,
		events:       events,
		stylists:     stylists,
		branches:     branches,
		notifier:     notifier,
		payments:     payments,
		clk:          clk,
		policy:       policy,
	}
}

// Confirm переводит бронь из pending в confirmed.
// Клиент может подтвердить только свою бронь; мастер, админ и
// автоматика — любую.
func (s *ReservationService) Confirm(ctx context.Context, id uuid.UUID, actor Actor) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r.Status != model.ReservationStatusPending {
		return nil, transitionErr(r.Status, model.ReservationStatusConfirmed)
	}
	if actor.Role == ActorClient && actor.ID != r.ClientID {
		return nil, ErrPermission
	}

	now := s.clk.Now()
	err = s.reservations.UpdateVersioned(ctx, r.ID, r.Version, map[string]any{
		"status":       model.ReservationStatusConfirmed,
		"confirmed_at": now,
		"confirmed_by": string(actor.Role),
	})
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, model.EventTypeReservationConfirmed, r.ID, actor, "")
	updated, err := s.reservations.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	s.notifier.ReservationConfirmed(ctx, updated)
	return updated, nil
}

// Start отмечает начало визита: confirmed → in_progress.
func (s *ReservationService) Start(ctx context.Context, id uuid.UUID, actor Actor) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r.Status != model.ReservationStatusConfirmed {
		return nil, transitionErr(r.Status, model.ReservationStatusInProgress)
	}
	if actor.Role == ActorClient {
		return nil, ErrPermission
	}
	if s.clk.Now().Before(r.StartsAt) {
		return nil, fmt.Errorf("%w: visit has not started yet", ErrInvalidTransition)
	}

	err = s.reservations.UpdateVersioned(ctx, r.ID, r.Version, map[string]any{
		"status": model.ReservationStatusInProgress,
	})
	if err != nil {
		return nil, err
	}
	return s.reservations.GetByID(ctx, r.ID)
}

// PenaltyPreview возвращает штраф, который будет начислен при отмене
// прямо сейчас. Показывается клиенту до финализации отмены.
func (s *ReservationService) PenaltyPreview(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load reservation: %w", err)
	}
	return s.penaltyAt(r, s.clk.Now()), nil
}

// Cancel отменяет бронь из pending или confirmed строго до начала визита.
// Штраф: 0 до cancellable_until включительно, затем процент по политике,
// максимальный — в последние часы. Освобождение слота уведомляет лист
// ожидания (fire-and-forget со своим бюджетом ретраев) и каскадно
// отменяет дочерние брони; каскад best-effort и не атомарен с родителем.
func (s *ReservationService) Cancel(ctx context.Context, id uuid.UUID, actor Actor, reason string) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	switch r.Status {
	case model.ReservationStatusPending, model.ReservationStatusConfirmed:
	default:
		return nil, transitionErr(r.Status, model.ReservationStatusCancelled)
	}
	if actor.Role == ActorClient && actor.ID != r.ClientID {
		return nil, ErrPermission
	}

	now := s.clk.Now()
	if !now.Before(r.StartsAt) {
		return nil, fmt.Errorf("%w: visit already started", ErrInvalidTransition)
	}

	penalty := s.penaltyAt(r, now)

	err = s.reservations.UpdateVersioned(ctx, r.ID, r.Version, map[string]any{
		"status":               model.ReservationStatusCancelled,
		"cancelled_at":         now,
		"cancelled_by":         string(actor.Role),
		"cancel_reason":        reason,
		"cancellation_penalty": penalty,
	})
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, model.EventTypeReservationCancelled, r.ID, actor, reason)

	updated, err := s.reservations.GetByID(ctx, r.ID)
	if err != nil {
		return nil, err
	}

	// Дальше — побочные эффекты; отмена уже зафиксирована и их сбои
	// её не откатывают.
	if n := s.cancelChildren(ctx, updated, reason); n > 0 {
		log.Printf("reservation %s: cancelled %d dependent reservation(s)", r.ID, n)
	}
	s.notifyWaitlist(ctx, updated)
	s.notifier.ReservationCancelled(ctx, updated, penalty)

	return updated, nil
}

// Complete завершает визит и синхронно выполняет расчёт. Идемпотентна:
// повторный вызов на завершённой броне — no-op, а не ошибка.
func (s *ReservationService) Complete(ctx context.Context, id uuid.UUID, actor Actor) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r.Status == model.ReservationStatusCompleted {
		return r, nil
	}
	switch r.Status {
	case model.ReservationStatusConfirmed, model.ReservationStatusInProgress:
	default:
		return nil, transitionErr(r.Status, model.ReservationStatusCompleted)
	}
	if actor.Role == ActorClient {
		return nil, ErrPermission
	}

	now := s.clk.Now()
	if now.Before(r.StartsAt) {
		return nil, fmt.Errorf("%w: cannot complete before visit start", ErrInvalidTransition)
	}

	captured, err := s.payments.Captured(ctx, r.ID.String())
	if err != nil {
		return nil, fmt.Errorf("verify payment: %w", err)
	}
	if !captured {
		return nil, ErrPaymentNotCaptured
	}

	if _, err := s.commissions.GetByReservation(ctx, r.ID); err == nil {
		return nil, ErrAlreadySettled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check settlement: %w", err)
	}

	stylist, err := s.stylists.GetByID(ctx, r.StylistID)
	if err != nil {
		return nil, fmt.Errorf("load stylist: %w", err)
	}
	branch, err := s.branches.GetByID(ctx, r.BranchID)
	if err != nil {
		return nil, fmt.Errorf("load branch: %w", err)
	}

	result, err := Settle(SettlementInput{
		ServicePrice:   r.ServicePrice,
		DiscountAmount: r.DiscountAmount,
		Tip:            r.Tip,
		CommissionPct:  stylist.CommissionPct,
		PlatformFeePct: branch.PlatformFeePct,
	})
	if err != nil {
		return nil, err
	}

	// Запись комиссии и смена статуса — одна транзакция: конфликт версии
	// (бронь изменили параллельно) откатывает и вставку комиссии, иначе
	// осталась бы осиротевшая запись, блокирующая повторное завершение.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commissions := repository.NewGormCommissionRepository(tx)
		reservations := repository.NewGormReservationRepository(tx)

		err := commissions.Create(ctx, &model.CommissionRecord{
			ReservationID:  r.ID,
			ServiceAmount:  result.Net,
			CommissionRate: stylist.CommissionPct,
			PlatformFee:    result.PlatformFee,
			BranchAmount:   result.BranchAmount,
			StylistAmount:  result.StylistPayout,
			Status:         model.CommissionStatusPending,
		})
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateCommission) {
				return ErrAlreadySettled
			}
			return fmt.Errorf("create commission record: %w", err)
		}

		return reservations.UpdateVersioned(ctx, r.ID, r.Version, map[string]any{
			"status":           model.ReservationStatusCompleted,
			"completed_at":     now,
			"platform_fee":     result.PlatformFee,
			"branch_amount":    result.BranchAmount,
			"stylist_earnings": result.StylistPayout,
		})
	})
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, model.EventTypeReservationCompleted, r.ID, actor, "")
	return s.reservations.GetByID(ctx, r.ID)
}

// AddTip фиксирует чаевые до завершения визита.
func (s *ReservationService) AddTip(ctx context.Context, id uuid.UUID, tip decimal.Decimal) error {
	if tip.IsNegative() {
		return fmt.Errorf("%w: negative tip", ErrCommissionConfig)
	}
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load reservation: %w", err)
	}
	if r.IsTerminal() {
		return transitionErr(r.Status, r.Status)
	}
	return s.reservations.UpdateVersioned(ctx, r.ID, r.Version, map[string]any{
		"tip": tip,
	})
}

// MarkNoShow фиксирует неявку: только из confirmed и только после того,
// как интервал визита полностью прошёл. Применяется максимальный штраф.
func (s *ReservationService) MarkNoShow(ctx context.Context, id uuid.UUID, actor Actor) (*model.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r.Status != model.ReservationStatusConfirmed {
		return nil, transitionErr(r.Status, model.ReservationStatusNoShow)
	}
	if actor.Role == ActorClient {
		return nil, ErrPermission
	}
	if !s.clk.Now().After(r.EndsAt) {
		return nil, fmt.Errorf("%w: visit interval has not passed yet", ErrInvalidTransition)
	}

	penalty := percentOf(r.TotalPrice, s.policy.LastMinutePct)
	err = s.reservations.UpdateVersioned(ctx, r.ID, r.Version, map[string]any{
		"status":               model.ReservationStatusNoShow,
		"cancellation_penalty": penalty,
	})
	if err != nil {
		return nil, err
	}

	s.appendEvent(ctx, model.EventTypeReservationNoShow, r.ID, actor, "")
	return s.reservations.GetByID(ctx, r.ID)
}

// RunReminderSweep помечает и рассылает напоминания по подтверждённым
// броням (за 24 часа и за 1 час до начала) и истекает просроченные
// записи листа ожидания. Вызывается фоновым планировщиком; флаги
// однонаправленные, гонка повторного прохода безвредна.
func (s *ReservationService) RunReminderSweep(ctx context.Context) (int, error) {
	now := s.clk.Now()

	upcoming, err := s.reservations.ListUpcomingConfirmed(ctx, now, now.Add(24*time.Hour))
	if err != nil {
		return 0, fmt.Errorf("list upcoming: %w", err)
	}

	sent := 0
	for i := range upcoming {
		r := &upcoming[i]
		until := r.StartsAt.Sub(now)

		// Внутри часового окна суточное напоминание уже не имеет смысла.
		if until <= time.Hour {
			if r.Reminder1hSent {
				continue
			}
			if err := s.reservations.SetReminderFlag(ctx, r.ID, "reminder_1h_sent"); err != nil {
				log.Printf("reminder sweep: reservation %s: %v", r.ID, err)
				continue
			}
			s.notifier.ReservationReminder(ctx, r, Reminder1h)
			sent++
			continue
		}
		if r.Reminder24hSent {
			continue
		}
		if err := s.reservations.SetReminderFlag(ctx, r.ID, "reminder_24h_sent"); err != nil {
			log.Printf("reminder sweep: reservation %s: %v", r.ID, err)
			continue
		}
		s.notifier.ReservationReminder(ctx, r, Reminder24h)
		sent++
	}

	if expired, err := s.waitlist.ExpireOlderThan(ctx, now); err != nil {
		log.Printf("reminder sweep: expire waitlist: %v", err)
	} else if expired > 0 {
		log.Printf("reminder sweep: expired %d waitlist entr(ies)", expired)
	}

	return sent, nil
}

// ClientHistory возвращает брони клиента за период постранично,
// новые сверху.
func (s *ReservationService) ClientHistory(
	ctx context.Context,
	clientID uuid.UUID,
	from, to time.Time,
	page, pageSize int,
) (Page[model.Reservation], error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	items, total, err := s.reservations.ListByClientAndRange(ctx, clientID, from, to, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page[model.Reservation]{}, fmt.Errorf("list client reservations: %w", err)
	}

	return Page[model.Reservation]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(page*pageSize) < total,
		HasPrev:  page > 1,
		Total:    int(total),
	}, nil
}

// penaltyAt вычисляет штраф за отмену в момент at.
// Ровно в cancellable_until — ещё бесплатно; секундой позже — уже штраф.
func (s *ReservationService) penaltyAt(r *model.Reservation, at time.Time) decimal.Decimal {
	if !at.After(r.CancellableUntil) {
		return decimal.Zero
	}
	lastMinute := r.StartsAt.Add(-time.Duration(s.policy.LastMinuteHours) * time.Hour)
	if at.After(lastMinute) {
		return percentOf(r.TotalPrice, s.policy.LastMinutePct)
	}
	return percentOf(r.TotalPrice, s.policy.LateCancelPct)
}

// cancelChildren каскадно отменяет дочерние брони. Явная оркестрация
// вместо скрытых хуков: каждая дочерняя бронь обрабатывается отдельно,
// сбой одной не валит ни остальные, ни родительскую отмену.
func (s *ReservationService) cancelChildren(ctx context.Context, parent *model.Reservation, reason string) int {
	children, err := s.reservations.ListChildren(ctx, parent.ID)
	if err != nil {
		log.Printf("cancel cascade: list children of %s: %v", parent.ID, err)
		return 0
	}

	cancelled := 0
	for i := range children {
		child := &children[i]
		if child.IsTerminal() {
			continue
		}
		err := s.reservations.UpdateVersioned(ctx, child.ID, child.Version, map[string]any{
			"status":        model.ReservationStatusCancelled,
			"cancelled_at":  s.clk.Now(),
			"cancelled_by":  string(ActorAuto),
			"cancel_reason": "parent reservation cancelled: " + reason,
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			// Строку изменили параллельно — перечитываем и пробуем раз.
			fresh, gerr := s.reservations.GetByID(ctx, child.ID)
			if gerr != nil || fresh.IsTerminal() {
				continue
			}
			err = s.reservations.UpdateVersioned(ctx, fresh.ID, fresh.Version, map[string]any{
				"status":        model.ReservationStatusCancelled,
				"cancelled_at":  s.clk.Now(),
				"cancelled_by":  string(ActorAuto),
				"cancel_reason": "parent reservation cancelled: " + reason,
			})
		}
		if err != nil {
			log.Printf("cancel cascade: child %s: %v", child.ID, err)
			continue
		}
		s.appendEvent(ctx, model.EventTypeReservationCancelled, child.ID, System(), "cascade")
		cancelled++
	}
	return cancelled
}

// notifyWaitlist уведомляет подходящие записи листа ожидания об
// освободившемся слоте: больший priority первым, затем более ранний
// created_at. Сбои не влияют на отмену — у доставки свой бюджет ретраев.
func (s *ReservationService) notifyWaitlist(ctx context.Context, r *model.Reservation) {
	entries, err := s.waitlist.ListMatching(ctx, r.BranchID, r.StylistID, r.ServiceID, r.StartsAt)
	if err != nil {
		log.Printf("waitlist: list matching for %s: %v", r.ID, err)
		return
	}

	for i := range entries {
		entry := &entries[i]

		var delivered bool
		for attempt := 1; attempt <= waitlistNotifyAttempts; attempt++ {
			if err := s.notifier.WaitlistSlotAvailable(ctx, entry, r.Interval()); err != nil {
				log.Printf("waitlist: notify %s (attempt %d): %v", entry.ID, attempt, err)
				continue
			}
			delivered = true
			break
		}
		if !delivered {
			continue
		}

		if err := s.waitlist.UpdateStatus(ctx, entry.ID, model.WaitingStatusNotified); err != nil {
			log.Printf("waitlist: mark notified %s: %v", entry.ID, err)
		}
		s.appendEvent(ctx, model.EventTypeWaitlistSlotFreed, r.ID, System(), entry.ID.String())
	}
}

func (s *ReservationService) appendEvent(ctx context.Context, t model.EventType, reservationID uuid.UUID, actor Actor, details string) {
	err := s.events.Append(ctx, &model.Event{
		EventType:     t,
		ReservationID: &reservationID,
		ActorRole:     string(actor.Role),
		Details:       details,
	})
	if err != nil {
		log.Printf("audit: append %s for %s: %v", t, reservationID, err)
	}
}

func transitionErr(from, to model.ReservationStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func percentOf(amount decimal.Decimal, pct float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(pct)).Div(hundred).Round(2)
}
