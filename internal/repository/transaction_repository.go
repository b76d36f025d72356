package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// TransactionRepository manages Transaction rows.
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository.
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction. The hash is globally unique: a second
// insert fails with DUPLICATE and never mutates the first row.
func (r *TransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	if tx.Status == "" {
		tx.Status = model.TransactionStatusPending
	}
	if tx.Timestamp == 0 {
		tx.Timestamp = time.Now().UnixMilli()
	}

	err := r.db.WithContext(ctx).Create(tx).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.ErrDuplicate.WithMessagef("transaction %s already recorded", tx.TxHash)
		}
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}

// GetByHash fetches a transaction by its hash.
func (r *TransactionRepository) GetByHash(ctx context.Context, txHash string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).Where("tx_hash = ?", txHash).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessagef("transaction %s not found", txHash)
		}
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return &tx, nil
}

// UpdateAnomaly writes the scoring outcome back onto the transaction.
func (r *TransactionRepository) UpdateAnomaly(ctx context.Context, txHash string, score float64, flagged bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("tx_hash = ?", txHash).
		Updates(map[string]interface{}{
			"anomaly_score": score,
			"is_flagged":    flagged,
		})
	if result.Error != nil {
		return apperrors.ErrPersistence.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessagef("transaction %s not found", txHash)
	}
	return nil
}

// UpdateStatus moves a transaction through its lifecycle.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, txHash string, status model.TransactionStatus) error {
	if !status.Valid() {
		return apperrors.ErrValidation.WithMessagef("invalid transaction status %q", status)
	}
	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("tx_hash = ?", txHash).
		Update("status", status)
	if result.Error != nil {
		return apperrors.ErrPersistence.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound.WithMessagef("transaction %s not found", txHash)
	}
	return nil
}

// ListByBridge returns a bridge's transactions, newest first.
func (r *TransactionRepository) ListByBridge(ctx context.Context, bridgeID int64, p *Pagination) ([]*model.Transaction, int64, error) {
	p.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("bridge_id = ?", bridgeID).
		Count(&total).Error; err != nil {
		return nil, 0, apperrors.ErrPersistence.WithCause(err)
	}

	var txs []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("bridge_id = ?", bridgeID).
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, apperrors.ErrPersistence.WithCause(err)
	}
	return txs, total, nil
}

// ListFlagged returns flagged transactions, newest first.
func (r *TransactionRepository) ListFlagged(ctx context.Context, p *Pagination) ([]*model.Transaction, error) {
	p.Normalize()

	var txs []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("is_flagged = ?", true).
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return txs, nil
}
