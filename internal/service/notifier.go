package service

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/Leganyst/salon-booking/internal/model"
	"github.com/Leganyst/salon-booking/internal/timegrid"
)

// Notifier — интерфейс коллаборатора доставки уведомлений. Реализации
// обязаны не блокировать: ядро вызывает их синхронно на переходах
// состояния, доставка ставится в очередь на стороне реализации.
// Только уведомление листа ожидания возвращает ошибку — у него свой
// бюджет ретраев; остальное — fire-and-forget.
type Notifier interface {
	ReservationConfirmed(ctx context.Context, r *model.Reservation)
	ReservationCancelled(ctx context.Context, r *model.Reservation, penalty decimal.Decimal)
	ReservationReminder(ctx context.Context, r *model.Reservation, kind ReminderKind)
	WaitlistSlotAvailable(ctx context.Context, entry *model.WaitingListEntry, slot timegrid.TimeRange) error
}

// ReminderKind — вид напоминания.
type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// LogNotifier — дефолтная реализация: пишет в лог. Ставится в проде,
// пока не подключён настоящий канал доставки.
type LogNotifier struct{}

func (LogNotifier) ReservationConfirmed(_ context.Context, r *model.Reservation) {
	log.Printf("notify: reservation %s confirmed", r.ID)
}

func (LogNotifier) ReservationCancelled(_ context.Context, r *model.Reservation, penalty decimal.Decimal) {
	log.Printf("notify: reservation %s cancelled, penalty %s", r.ID, penalty)
}

func (LogNotifier) ReservationReminder(_ context.Context, r *model.Reservation, kind ReminderKind) {
	log.Printf("notify: reservation %s reminder %s", r.ID, kind)
}

func (LogNotifier) WaitlistSlotAvailable(_ context.Context, entry *model.WaitingListEntry, slot timegrid.TimeRange) error {
	log.Printf("notify: waitlist entry %s, slot %s-%s available",
		entry.ID, slot.Start.Format("2006-01-02 15:04"), slot.End.Format("15:04"))
	return nil
}

// PaymentVerifier — коллаборатор захвата оплаты: завершение визита
// возможно только при захваченных средствах.
type PaymentVerifier interface {
	Captured(ctx context.Context, reservationID string) (bool, error)
}

// CapturedAlways — заглушка для окружений без платёжного шлюза.
type CapturedAlways struct{}

func (CapturedAlways) Captured(context.Context, string) (bool, error) {
	return true, nil
}
