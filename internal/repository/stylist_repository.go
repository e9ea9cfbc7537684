package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/salon-booking/internal/model"
)

type StylistRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Stylist, error)
	// GetForUpdate читает строку мастера под row-level lock.
	// Вызывается только внутри транзакции tryReserve: блокировка строки
	// мастера сериализует конкурирующие брони на него.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Stylist, error)
}

type GormStylistRepository struct {
	db *gorm.DB
}

func NewGormStylistRepository(db *gorm.DB) *GormStylistRepository {
	return &GormStylistRepository{db: db}
}

func (r *GormStylistRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Stylist, error) {
	var s model.Stylist
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormStylistRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Stylist, error) {
	q := r.db.WithContext(ctx)
	// SQLite не знает SELECT ... FOR UPDATE, но и не нуждается в нём:
	// писатели там сериализуются на уровне всей базы.
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var s model.Stylist
	if err := q.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
