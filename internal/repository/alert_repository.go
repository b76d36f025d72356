package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// AlertRepository manages Alert rows.
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates an alert repository.
func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create appends an alert. Alerts are append-only except for resolution.
func (r *AlertRepository) Create(ctx context.Context, alert *model.Alert) error {
	if alert.AlertUID == "" {
		alert.AlertUID = uuid.New().String()
	}
	if alert.Severity == "" {
		alert.Severity = model.AlertSeverityWarning
	}

	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}

// GetByUID fetches an alert by its public identifier.
func (r *AlertRepository) GetByUID(ctx context.Context, uid string) (*model.Alert, error) {
	var alert model.Alert
	err := r.db.WithContext(ctx).Where("alert_uid = ?", uid).First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("alert not found")
		}
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return &alert, nil
}

// Resolve marks an alert resolved, setting is_resolved and resolved_at
// together. Resolving an already-resolved alert is a no-op.
func (r *AlertRepository) Resolve(ctx context.Context, uid string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Alert{}).
		Where("alert_uid = ? AND is_resolved = ?", uid, false).
		Updates(map[string]interface{}{
			"is_resolved": true,
			"resolved_at": time.Now().UnixMilli(),
		})
	if result.Error != nil {
		return apperrors.ErrPersistence.WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		// distinguish missing from already resolved
		if _, err := r.GetByUID(ctx, uid); err != nil {
			return err
		}
	}
	return nil
}

// ListUnresolved returns open alerts, newest first.
func (r *AlertRepository) ListUnresolved(ctx context.Context, p *Pagination) ([]*model.Alert, error) {
	p.Normalize()

	var alerts []*model.Alert
	err := r.db.WithContext(ctx).
		Where("is_resolved = ?", false).
		Order("created_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&alerts).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return alerts, nil
}

// ListByTransaction returns a transaction's alerts, newest first.
func (r *AlertRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return alerts, nil
}
