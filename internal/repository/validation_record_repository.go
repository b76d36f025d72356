package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// ValidationRecordRepository manages the append-only validation audit trail.
// Every validation attempt writes a row here, including repeats of the same
// transaction hash.
type ValidationRecordRepository struct {
	db *gorm.DB
}

// NewValidationRecordRepository creates a validation record repository.
func NewValidationRecordRepository(db *gorm.DB) *ValidationRecordRepository {
	return &ValidationRecordRepository{db: db}
}

// Create appends a validation record.
func (r *ValidationRecordRepository) Create(ctx context.Context, record *model.ValidationRecord) error {
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().UnixMilli()
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}

// List returns validation records in insertion order with the total count.
func (r *ValidationRecordRepository) List(ctx context.Context, p *Pagination) ([]*model.ValidationRecord, int64, error) {
	p.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.ValidationRecord{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.ErrPersistence.WithCause(err)
	}

	var records []*model.ValidationRecord
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, apperrors.ErrPersistence.WithCause(err)
	}
	return records, total, nil
}

// ListByHash returns every validation attempt recorded for a hash, oldest
// first.
func (r *ValidationRecordRepository) ListByHash(ctx context.Context, txHash string) ([]*model.ValidationRecord, error) {
	var records []*model.ValidationRecord
	err := r.db.WithContext(ctx).
		Where("tx_hash = ?", txHash).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return records, nil
}
