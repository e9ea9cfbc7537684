package timegrid

import (
	"errors"
	"sort"
	"time"
)

var (
	// ErrInvalidInterval — некорректный интервал (start >= end или нулевые границы).
	ErrInvalidInterval = errors.New("invalid time interval")
	// ErrSlotDuration — длительность слота должна быть положительной.
	ErrSlotDuration = errors.New("slot duration must be positive")
)

// TimeRange — полуоткрытый интервал [Start, End).
// Касание концами двух интервалов пересечением не считается.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// New создаёт интервал и валидирует границы.
func New(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidInterval
	}
	return TimeRange{Start: start, End: end}, nil
}

// Duration возвращает длину интервала.
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Contains сообщает, лежит ли other целиком внутри tr.
func (tr TimeRange) Contains(other TimeRange) bool {
	return !other.Start.Before(tr.Start) && !other.End.After(tr.End)
}

// Overlaps проверяет пересечение по правилу полуоткрытых интервалов:
// a.Start < b.End && b.Start < a.End. Совпадающие концы не конфликтуют.
func Overlaps(a, b TimeRange) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// AnyOverlaps возвращает все интервалы из existing, пересекающиеся с tr.
func AnyOverlaps(tr TimeRange, existing []TimeRange) []TimeRange {
	var conflicts []TimeRange
	for _, e := range existing {
		if Overlaps(tr, e) {
			conflicts = append(conflicts, e)
		}
	}
	return conflicts
}

// Merge сливает пересекающиеся и смежные интервалы в упорядоченный набор
// непересекающихся. Исходный срез не модифицируется.
func Merge(ranges []TimeRange) []TimeRange {
	if len(ranges) == 0 {
		return nil
	}

	sorted := make([]TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []TimeRange{sorted[0]}
	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		// Смежные ([a,b) и [b,c)) тоже сливаем: для вычитания это
		// эквивалентно одной дыре.
		if !cur.Start.After(last.End) {
			if cur.End.After(last.End) {
				last.End = cur.End
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// Subtract вычитает из base набор дыр holes (стандартная разность
// интервалов). Дыры могут пересекаться между собой — сначала сливаются.
// Результат упорядочен по Start и не содержит пустых интервалов.
func Subtract(base []TimeRange, holes []TimeRange) []TimeRange {
	if len(base) == 0 {
		return nil
	}
	merged := Merge(holes)

	var result []TimeRange
	for _, b := range base {
		cur := b
		alive := true
		for _, h := range merged {
			if !Overlaps(cur, h) {
				continue
			}
			if h.Start.After(cur.Start) {
				result = append(result, TimeRange{Start: cur.Start, End: h.Start})
			}
			if h.End.Before(cur.End) {
				cur = TimeRange{Start: h.End, End: cur.End}
				continue
			}
			// Дыра накрывает остаток интервала целиком.
			alive = false
			break
		}
		if alive {
			result = append(result, cur)
		}
	}
	return result
}

// SplitToSlots нарезает интервал на кандидатные слоты длительности duration
// с шагом начала stepMinutes (например, каждые 15/30 минут). Возвращаются
// только слоты, целиком помещающиеся в интервал; «хвост» отбрасывается.
// Начало первого слота выравнивается вверх по отметке, кратной stepMinutes.
func SplitToSlots(tr TimeRange, duration time.Duration, stepMinutes int) ([]TimeRange, error) {
	if duration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	step := time.Duration(stepMinutes) * time.Minute
	if step <= 0 {
		step = duration
	}

	start := alignUp(tr.Start, stepMinutes)

	var slots []TimeRange
	for cur := start; !cur.Add(duration).After(tr.End); cur = cur.Add(step) {
		slots = append(slots, TimeRange{Start: cur, End: cur.Add(duration)})
	}
	return slots, nil
}

// alignUp округляет момент вверх до ближайшей отметки, кратной stepMinutes
// внутри часа. Строго вверх: секунды и доли секунды поднимают момент к
// следующей отметке, назад за начало окна результат не уходит.
// При stepMinutes <= 0 возвращает t как есть.
func alignUp(t time.Time, stepMinutes int) time.Time {
	if stepMinutes <= 0 {
		return t
	}
	trunc := t.Truncate(time.Minute)
	rem := trunc.Minute() % stepMinutes
	switch {
	case rem == 0 && trunc.Equal(t):
		return t
	case rem == 0:
		return trunc.Add(time.Duration(stepMinutes) * time.Minute)
	default:
		return trunc.Add(time.Duration(stepMinutes-rem) * time.Minute)
	}
}

// DayWindow возвращает интервал календарного дня [00:00, 00:00 след. дня)
// в локации дня day.
func DayWindow(day time.Time) TimeRange {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}

// AtTimeOfDay собирает момент «день day, время часов/минут hh:mm».
func AtTimeOfDay(day time.Time, hh, mm int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hh, mm, 0, 0, day.Location())
}
