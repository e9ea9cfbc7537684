package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

type BranchRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
}

type GormBranchRepository struct {
	db *gorm.DB
}

func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

func (r *GormBranchRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var b model.Branch
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}
