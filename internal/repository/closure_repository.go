package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type ClosureRepository interface {
	// Создать закрытие филиала.
	Create(ctx context.Context, closure *model.BranchClosure) error
	// Закрытия филиала, действующие в диапазоне дат: точные по дате
	// плюс все ежегодные (совпадение день+месяц проверяет вызывающий).
	ListByBranchRange(ctx context.Context, branchID uuid.UUID, from, to time.Time) ([]model.BranchClosure, error)
}

type GormClosureRepository struct {
	db *gorm.DB
}

func NewGormClosureRepository(db *gorm.DB) *GormClosureRepository {
	return &GormClosureRepository{db: db}
}

func (r *GormClosureRepository) Create(ctx context.Context, closure *model.BranchClosure) error {
	return r.db.WithContext(ctx).Create(closure).Error
}

func (r *GormClosureRepository) ListByBranchRange(
	ctx context.Context,
	branchID uuid.UUID,
	from, to time.Time,
) ([]model.BranchClosure, error) {
	var closures []model.BranchClosure
	err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Where("is_recurring OR (date >= ? AND date <= ?)", from.AddDate(0, 0, -1), to).
		Order("date ASC").
		Find(&closures).Error
	if err != nil {
		return nil, err
	}
	return closures, nil
}
