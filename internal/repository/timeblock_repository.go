package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type TimeBlockRepository interface {
	// Создать блок; для повторяющегося правило валидируется заранее.
	Create(ctx context.Context, block *model.TimeBlock) error
	// Блоки мастера, способные дать вхождения в интервале:
	// неповторяющиеся — только пересекающие его, повторяющиеся — все
	// (разворачивание и отсечение истёкших делает вызывающая сторона,
	// поскольку until хранится внутри JSON-правила).
	ListByStylistRange(ctx context.Context, stylistID uuid.UUID, from, to time.Time) ([]model.TimeBlock, error)
	// Удалить блок.
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormTimeBlockRepository struct {
	db *gorm.DB
}

func NewGormTimeBlockRepository(db *gorm.DB) *GormTimeBlockRepository {
	return &GormTimeBlockRepository{db: db}
}

func (r *GormTimeBlockRepository) Create(ctx context.Context, block *model.TimeBlock) error {
	if !block.EndsAt.After(block.StartsAt) {
		return gorm.ErrInvalidData
	}
	if block.IsRecurring {
		if _, err := block.Rule(); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *GormTimeBlockRepository) ListByStylistRange(
	ctx context.Context,
	stylistID uuid.UUID,
	from, to time.Time,
) ([]model.TimeBlock, error) {
	var blocks []model.TimeBlock
	err := r.db.WithContext(ctx).
		Where("stylist_id = ?", stylistID).
		Where("is_recurring OR (starts_at < ? AND ends_at > ?)", to, from).
		Order("starts_at ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *GormTimeBlockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TimeBlock{}, "id = ?", id).Error
}
