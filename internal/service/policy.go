package service

import (
	"time"

	"github.com/Leganyst/salon-booking/internal/model"
)

// Policy — правила отмены и нарезки слотов. Дефолты можно переопределить
// конфигурацией, окно отмены — ещё и на уровне филиала.
type Policy struct {
	// Часов до начала визита, пока отмена бесплатна.
	CancelWindowHours int
	// Штраф при отмене внутри окна, % от total_price.
	LateCancelPct float64
	// Часов до начала, внутри которых действует максимальный штраф.
	LastMinuteHours int
	// Штраф «в последний момент» и при неявке, % от total_price.
	LastMinutePct float64
	// Шаг кандидатных стартов слотов, минут.
	SlotStepMinutes int
	// Сколько живёт запись листа ожидания.
	WaitlistTTL time.Duration
}

// DefaultPolicy — значения по умолчанию: бесплатно за 24 часа,
// 50% внутри суток, 100% за 2 часа и при неявке, слоты каждые 15 минут.
func DefaultPolicy() Policy {
	return Policy{
		CancelWindowHours: 24,
		LateCancelPct:     50,
		LastMinuteHours:   2,
		LastMinutePct:     100,
		SlotStepMinutes:   15,
		WaitlistTTL:       7 * 24 * time.Hour,
	}
}

// cancelWindow возвращает окно бесплатной отмены с учётом
// переопределения филиала.
func (p Policy) cancelWindow(branch *model.Branch) time.Duration {
	hours := p.CancelWindowHours
	if branch != nil && branch.CancelWindowHours != nil && *branch.CancelWindowHours > 0 {
		hours = *branch.CancelWindowHours
	}
	return time.Duration(hours) * time.Hour
}
