package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// ValidatorRepository manages Validator rows.
type ValidatorRepository struct {
	db *gorm.DB
}

// NewValidatorRepository creates a validator repository.
func NewValidatorRepository(db *gorm.DB) *ValidatorRepository {
	return &ValidatorRepository{db: db}
}

// Upsert inserts a validator or refreshes its mutable fields by address.
func (r *ValidatorRepository) Upsert(ctx context.Context, validator *model.Validator) error {
	if validator.JoinedAt == 0 {
		validator.JoinedAt = time.Now().UnixMilli()
	}
	if validator.UptimePercentage == 0 {
		validator.UptimePercentage = 100
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "stake_amount", "uptime_percentage", "is_active", "updated_at",
			}),
		}).
		Create(validator).Error
	if err != nil {
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}

// GetByAddress fetches a validator by address.
func (r *ValidatorRepository) GetByAddress(ctx context.Context, address string) (*model.Validator, error) {
	var validator model.Validator
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&validator).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("validator not found")
		}
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return &validator, nil
}

// ListActive returns active validators ordered by stake.
func (r *ValidatorRepository) ListActive(ctx context.Context) ([]*model.Validator, error) {
	var validators []*model.Validator
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("stake_amount DESC").
		Find(&validators).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return validators, nil
}

// MarkInactive deactivates a validator.
func (r *ValidatorRepository) MarkInactive(ctx context.Context, address string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Validator{}).
		Where("address = ?", address).
		Update("is_active", false)
	if result.Error != nil {
		return apperrors.ErrPersistence.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("validator not found")
	}
	return nil
}
