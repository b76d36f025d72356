package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// BridgeRepository manages Bridge rows.
type BridgeRepository struct {
	db *gorm.DB
}

// NewBridgeRepository creates a bridge repository.
func NewBridgeRepository(db *gorm.DB) *BridgeRepository {
	return &BridgeRepository{db: db}
}

// Create inserts a bridge. A duplicate address fails with DUPLICATE and
// leaves the existing row untouched.
func (r *BridgeRepository) Create(ctx context.Context, bridge *model.Bridge) error {
	if bridge.Status == "" {
		bridge.Status = model.BridgeStatusActive
	}
	if bridge.LastVerifiedAt == 0 {
		bridge.LastVerifiedAt = time.Now().UnixMilli()
	}

	err := r.db.WithContext(ctx).Create(bridge).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.ErrDuplicate.WithMessagef("bridge %s already registered", bridge.Address)
		}
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}

// GetByID fetches a bridge by primary key.
func (r *BridgeRepository) GetByID(ctx context.Context, id int64) (*model.Bridge, error) {
	var bridge model.Bridge
	err := r.db.WithContext(ctx).First(&bridge, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("bridge not found")
		}
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return &bridge, nil
}

// GetByAddress fetches a bridge by its contract address.
func (r *BridgeRepository) GetByAddress(ctx context.Context, address string) (*model.Bridge, error) {
	var bridge model.Bridge
	err := r.db.WithContext(ctx).Where("address = ?", address).First(&bridge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("bridge not found")
		}
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return &bridge, nil
}

// GetByChain fetches the most recently created bridge for a chain.
func (r *BridgeRepository) GetByChain(ctx context.Context, chainName string) (*model.Bridge, error) {
	var bridge model.Bridge
	err := r.db.WithContext(ctx).
		Where("chain_name = ?", chainName).
		Order("created_at DESC").
		First(&bridge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessagef("no bridge registered for chain %s", chainName)
		}
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return &bridge, nil
}

// List returns bridges ordered by creation time.
func (r *BridgeRepository) List(ctx context.Context, p *Pagination) ([]*model.Bridge, int64, error) {
	p.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Bridge{}).Count(&total).Error; err != nil {
		return nil, 0, apperrors.ErrPersistence.WithCause(err)
	}

	var bridges []*model.Bridge
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&bridges).Error
	if err != nil {
		return nil, 0, apperrors.ErrPersistence.WithCause(err)
	}
	return bridges, total, nil
}

// UpdateStatus applies an operator-driven status transition.
func (r *BridgeRepository) UpdateStatus(ctx context.Context, id int64, status model.BridgeStatus) error {
	if !status.Valid() {
		return apperrors.ErrValidation.WithMessagef("invalid bridge status %q", status)
	}
	result := r.db.WithContext(ctx).
		Model(&model.Bridge{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return apperrors.ErrPersistence.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("bridge not found")
	}
	return nil
}

// TouchVerified stamps last_verified_at.
func (r *BridgeRepository) TouchVerified(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Bridge{}).
		Where("id = ?", id).
		Update("last_verified_at", time.Now().UnixMilli())
	if result.Error != nil {
		return apperrors.ErrPersistence.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessage("bridge not found")
	}
	return nil
}

// Delete removes a bridge and cascades over its transactions, their
// detections and alerts inside one transaction, so no orphan rows survive
// regardless of driver-level foreign key enforcement.
func (r *BridgeRepository) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txIDs []int64
		if err := tx.Model(&model.Transaction{}).
			Where("bridge_id = ?", id).
			Pluck("id", &txIDs).Error; err != nil {
			return err
		}

		if len(txIDs) > 0 {
			if err := tx.Where("transaction_id IN ?", txIDs).
				Delete(&model.AnomalyDetection{}).Error; err != nil {
				return err
			}
			if err := tx.Where("transaction_id IN ?", txIDs).
				Delete(&model.Alert{}).Error; err != nil {
				return err
			}
			if err := tx.Where("bridge_id = ?", id).
				Delete(&model.Transaction{}).Error; err != nil {
				return err
			}
		}

		result := tx.Delete(&model.Bridge{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound.WithMessage("bridge not found")
		}
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}
