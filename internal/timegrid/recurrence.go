package timegrid

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingRecurrenceBound — у повторяющегося правила нет даты окончания.
	// Бесконечные правила запрещены: разворачивание обязано быть конечным.
	ErrMissingRecurrenceBound = errors.New("recurrence rule has no until bound")
	// ErrRecurrenceRule — правило повторения заполнено некорректно.
	ErrRecurrenceRule = errors.New("invalid recurrence rule")
)

// Frequency — вид повторения.
type Frequency string

const (
	FreqDaily   Frequency = "daily"
	FreqWeekly  Frequency = "weekly"
	FreqMonthly Frequency = "monthly"
)

// Recurrence — правило повторения как размеченное объединение:
// для daily значим Interval, для weekly — Weekdays, для monthly — MonthDays.
// Until обязательна всегда — это дата последнего допустимого вхождения,
// включительно (время суток в Until игнорируется). Вместо JSON-блоба с «недостижимым default» правило
// валидируется при создании и при разборе из хранилища.
type Recurrence struct {
	Freq      Frequency      `json:"freq"`
	Interval  int            `json:"interval,omitempty"`
	Weekdays  []time.Weekday `json:"weekdays,omitempty"`
	MonthDays []int          `json:"month_days,omitempty"`
	Until     time.Time      `json:"until"`
}

// NewDaily создаёт правило «каждые interval дней до until».
func NewDaily(interval int, until time.Time) (Recurrence, error) {
	r := Recurrence{Freq: FreqDaily, Interval: interval, Until: until}
	if err := r.Validate(); err != nil {
		return Recurrence{}, err
	}
	return r, nil
}

// NewWeekly создаёт правило «по указанным дням недели до until».
func NewWeekly(weekdays []time.Weekday, until time.Time) (Recurrence, error) {
	r := Recurrence{Freq: FreqWeekly, Weekdays: weekdays, Until: until}
	if err := r.Validate(); err != nil {
		return Recurrence{}, err
	}
	return r, nil
}

// NewMonthly создаёт правило «по указанным числам месяца до until».
func NewMonthly(monthDays []int, until time.Time) (Recurrence, error) {
	r := Recurrence{Freq: FreqMonthly, MonthDays: monthDays, Until: until}
	if err := r.Validate(); err != nil {
		return Recurrence{}, err
	}
	return r, nil
}

// Validate проверяет полноту правила для его вида.
func (r Recurrence) Validate() error {
	if r.Until.IsZero() {
		return ErrMissingRecurrenceBound
	}
	switch r.Freq {
	case FreqDaily:
		if r.Interval < 1 {
			return fmt.Errorf("%w: daily interval must be >= 1", ErrRecurrenceRule)
		}
	case FreqWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: weekly rule needs at least one weekday", ErrRecurrenceRule)
		}
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrRecurrenceRule, wd)
			}
		}
	case FreqMonthly:
		if len(r.MonthDays) == 0 {
			return fmt.Errorf("%w: monthly rule needs at least one day of month", ErrRecurrenceRule)
		}
		for _, d := range r.MonthDays {
			if d < 1 || d > 31 {
				return fmt.Errorf("%w: day of month %d out of range", ErrRecurrenceRule, d)
			}
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrRecurrenceRule, r.Freq)
	}
	return nil
}

// ParseRecurrence разбирает правило из JSON-колонки хранилища и валидирует.
func ParseRecurrence(data []byte) (Recurrence, error) {
	var r Recurrence
	if err := json.Unmarshal(data, &r); err != nil {
		return Recurrence{}, fmt.Errorf("%w: %v", ErrRecurrenceRule, err)
	}
	if err := r.Validate(); err != nil {
		return Recurrence{}, err
	}
	return r, nil
}

// Expand разворачивает правило в конечный набор интервалов внутри окна
// window. anchor — первое вхождение: его время суток и длительность
// наследуются всеми повторениями. Результат ограничен
// min(until, window.End), упорядочен и детерминирован: повторное
// разворачивание даёт идентичный набор.
func Expand(r Recurrence, anchor TimeRange, window TimeRange) ([]TimeRange, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if !anchor.End.After(anchor.Start) {
		return nil, ErrInvalidInterval
	}
	if !window.End.After(window.Start) {
		return []TimeRange{}, nil
	}

	duration := anchor.Duration()
	anchorDay := dateOnly(anchor.Start)
	hh, mm := anchor.Start.Hour(), anchor.Start.Minute()

	// Дальше последнего дня until вхождений нет.
	lastDay := dateOnly(r.Until)
	windowLast := dateOnly(window.End)
	if windowLast.Before(lastDay) {
		lastDay = windowLast
	}

	firstDay := anchorDay
	if wd := dateOnly(window.Start); wd.After(firstDay) {
		// До окна можно не ходить, но для daily-шага важна фаза —
		// начинаем с первого дня той же фазы, не раньше окна.
		firstDay = wd
	}

	var result []TimeRange
	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		if !r.matchesDay(anchorDay, day) {
			continue
		}
		start := AtTimeOfDay(day, hh, mm)
		occ := TimeRange{Start: start, End: start.Add(duration)}
		if Overlaps(occ, window) {
			result = append(result, occ)
		}
	}
	return result, nil
}

func (r Recurrence) matchesDay(anchorDay, day time.Time) bool {
	switch r.Freq {
	case FreqDaily:
		days := int(day.Sub(anchorDay).Hours() / 24)
		return days >= 0 && days%r.Interval == 0
	case FreqWeekly:
		for _, wd := range r.Weekdays {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	case FreqMonthly:
		for _, d := range r.MonthDays {
			if day.Day() == d {
				return true
			}
		}
		return false
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
