package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

// ErrVersionConflict — строку успел изменить кто-то другой
// (оптимистичная блокировка по колонке version).
var ErrVersionConflict = errors.New("reservation was modified concurrently")

type ReservationRepository interface {
	// Создать бронь.
	Create(ctx context.Context, r *model.Reservation) error
	// Получить бронь по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// Активные (незавершённые) брони мастера, пересекающие интервал.
	ListActiveByStylistRange(ctx context.Context, stylistID uuid.UUID, from, to time.Time) ([]model.Reservation, error)
	// Дочерние брони (связанные последующие визиты).
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.Reservation, error)
	// Обновить поля строки с проверкой версии; при гонке — ErrVersionConflict.
	UpdateVersioned(ctx context.Context, id uuid.UUID, version int64, updates map[string]any) error
	// Подтверждённые брони, начинающиеся в окне (для напоминаний).
	ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]model.Reservation, error)
	// Выставить флаг напоминания. Однонаправленный, идемпотентный.
	SetReminderFlag(ctx context.Context, id uuid.UUID, column string) error
	// Брони клиента за период с пагинацией.
	ListByClientAndRange(ctx context.Context, clientID uuid.UUID, from, to time.Time, limit, offset int) ([]model.Reservation, int64, error)
}

// Реализация на GORM.
type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Create(ctx context.Context, res *model.Reservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *GormReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) ListActiveByStylistRange(
	ctx context.Context,
	stylistID uuid.UUID,
	from, to time.Time,
) ([]model.Reservation, error) {
	var reservations []model.Reservation
	// Полуоткрытое пересечение: starts_at < to AND ends_at > from.
	err := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Where("status IN ?", model.ActiveStatuses()).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Order("starts_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *GormReservationRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("starts_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *GormReservationRepository) UpdateVersioned(
	ctx context.Context,
	id uuid.UUID,
	version int64,
	updates map[string]any,
) error {
	merged := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		merged[k] = v
	}
	merged["version"] = version + 1

	tx := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ? AND version = ?", id, version).
		Updates(merged)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *GormReservationRepository) ListUpcomingConfirmed(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ?", model.ReservationStatusConfirmed).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Order("starts_at ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *GormReservationRepository) SetReminderFlag(ctx context.Context, id uuid.UUID, column string) error {
	// Колонка задаётся кодом сервиса, не пользовательским вводом.
	return r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("id = ?", id).
		Update(column, true).
		Error
}

func (r *GormReservationRepository) ListByClientAndRange(
	ctx context.Context,
	clientID uuid.UUID,
	from, to time.Time,
	limit, offset int,
) ([]model.Reservation, int64, error) {
	var (
		reservations []model.Reservation
		total        int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Reservation{}).
		Where("client_id = ?", clientID).
		Where("starts_at >= ? AND starts_at <= ?", from, to)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at DESC").Find(&reservations).Error; err != nil {
		return nil, 0, err
	}

	return reservations, total, nil
}
