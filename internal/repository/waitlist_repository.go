package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type WaitingListRepository interface {
	// Добавить запись в лист ожидания.
	Create(ctx context.Context, entry *model.WaitingListEntry) error
	// Активные записи, подходящие под освободившийся слот: тот же филиал,
	// услуга и дата; мастер — совпадающий или «любой» (NULL). Порядок:
	// больший priority, затем более ранний created_at.
	ListMatching(ctx context.Context, branchID, stylistID, serviceID uuid.UUID, day time.Time) ([]model.WaitingListEntry, error)
	// Сменить статус записи.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitingStatus) error
	// Пометить истёкшими все активные записи с expires_at < now.
	ExpireOlderThan(ctx context.Context, now time.Time) (int64, error)
}

type GormWaitingListRepository struct {
	db *gorm.DB
}

func NewGormWaitingListRepository(db *gorm.DB) *GormWaitingListRepository {
	return &GormWaitingListRepository{db: db}
}

func (r *GormWaitingListRepository) Create(ctx context.Context, entry *model.WaitingListEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormWaitingListRepository) ListMatching(
	ctx context.Context,
	branchID, stylistID, serviceID uuid.UUID,
	day time.Time,
) ([]model.WaitingListEntry, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	var entries []model.WaitingListEntry
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("service_id = ?", serviceID).
		Where("status = ?", model.WaitingStatusActive).
		Where("stylist_id IS NULL OR stylist_id = ?", stylistID).
		Where("preferred_date = ?", dayStart).
		Order("priority DESC").
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *GormWaitingListRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.WaitingStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.WaitingListEntry{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}

func (r *GormWaitingListRepository) ExpireOlderThan(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&model.WaitingListEntry{}).
		Where("status = ?", model.WaitingStatusActive).
		Where("expires_at < ?", now).
		Update("status", model.WaitingStatusExpired)
	return tx.RowsAffected, tx.Error
}
