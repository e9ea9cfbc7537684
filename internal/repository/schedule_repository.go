package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type ScheduleRepository interface {
	// Все недельные записи мастера.
	ListByStylist(ctx context.Context, stylistID uuid.UUID) ([]model.WeeklyScheduleEntry, error)
	// Запись мастера на день недели; gorm.ErrRecordNotFound, если её нет.
	GetByStylistDay(ctx context.Context, stylistID uuid.UUID, dayOfWeek int) (*model.WeeklyScheduleEntry, error)
	// Создать или заменить запись дня (не более одной на (мастер, день)).
	Upsert(ctx context.Context, entry *model.WeeklyScheduleEntry) error
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) ListByStylist(ctx context.Context, stylistID uuid.UUID) ([]model.WeeklyScheduleEntry, error) {
	var entries []model.WeeklyScheduleEntry
	err := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Order("day_of_week ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormScheduleRepository) GetByStylistDay(ctx context.Context, stylistID uuid.UUID, dayOfWeek int) (*model.WeeklyScheduleEntry, error) {
	var e model.WeeklyScheduleEntry
	err := r.db.WithContext(ctx).
		Where("stylist_id = ? AND day_of_week = ?", stylistID, dayOfWeek).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormScheduleRepository) Upsert(ctx context.Context, entry *model.WeeklyScheduleEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	var existing model.WeeklyScheduleEntry
	tx := r.db.WithContext(ctx).
		Where("stylist_id = ? AND day_of_week = ?", entry.StylistID, entry.DayOfWeek).
		First(&existing)
	if tx.Error == nil {
		entry.ID = existing.ID
		return r.db.WithContext(ctx).Save(entry).Error
	}
	if !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		return tx.Error
	}
	return r.db.WithContext(ctx).Create(entry).Error
}
