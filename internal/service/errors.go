package service

import "errors"

// Ошибки ядра. Все они возвращаются вызывающему типизированно и никогда
// не глотаются. Деление по смыслу:
//   - ожидаемые бизнес-отказы (слот занят, вне доступности, мастер
//     неактивен) — клиент перезапрашивает доступность и пробует снова;
//   - ошибки конфигурации (правило без границы, некорректные проценты) —
//     сообщаются оператору, не ретраятся;
//   - ошибки последовательности (повторный расчёт, оплата не захвачена,
//     недопустимый переход) — вызывающий нарушил порядок операций.
var (
	ErrSlotTaken           = errors.New("slot is no longer available")
	ErrOutsideAvailability = errors.New("interval is outside stylist availability")
	ErrStylistInactive     = errors.New("stylist is not active")

	ErrCommissionConfig = errors.New("commission configuration is invalid")

	ErrInvalidTransition  = errors.New("invalid reservation state transition")
	ErrAlreadySettled     = errors.New("reservation is already settled")
	ErrPaymentNotCaptured = errors.New("payment has not been captured")

	ErrPermission = errors.New("actor is not allowed to perform this action")
)
