package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-booking/internal/model"
)

// ErrDuplicateCommission — по броне уже есть комиссионная запись.
var ErrDuplicateCommission = errors.New("commission record already exists for reservation")

type CommissionRepository interface {
	// Создать запись; по одной на бронь (уникальный индекс).
	Create(ctx context.Context, rec *model.CommissionRecord) error
	// Запись по броне; gorm.ErrRecordNotFound, если расчёта ещё не было.
	GetByReservation(ctx context.Context, reservationID uuid.UUID) (*model.CommissionRecord, error)
	// Пометить выплаченной.
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error
}

type GormCommissionRepository struct {
	db *gorm.DB
}

func NewGormCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

func (r *GormCommissionRepository) Create(ctx context.Context, rec *model.CommissionRecord) error {
	err := r.db.WithContext(ctx).Create(rec).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCommission
	}
	return err
}

func (r *GormCommissionRepository) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*model.CommissionRecord, error) {
	var rec model.CommissionRecord
	if err := r.db.WithContext(ctx).First(&rec, "reservation_id = ?", reservationID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormCommissionRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.CommissionRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  model.CommissionStatusPaid,
			"paid_at": paidAt,
		}).
		Error
}
