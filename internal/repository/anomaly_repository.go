package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// AnomalyRepository manages the append-only anomaly detection log.
type AnomalyRepository struct {
	db *gorm.DB
}

// NewAnomalyRepository creates an anomaly repository.
func NewAnomalyRepository(db *gorm.DB) *AnomalyRepository {
	return &AnomalyRepository{db: db}
}

// Create appends a detection record. Scores and confidence are clamped to
// [0,100] so a misbehaving scorer cannot write out-of-range rows.
func (r *AnomalyRepository) Create(ctx context.Context, detection *model.AnomalyDetection) error {
	detection.AnomalyScore = clampPercent(detection.AnomalyScore)
	detection.Confidence = clampPercent(detection.Confidence)
	if detection.DetectedAt == 0 {
		detection.DetectedAt = time.Now().UnixMilli()
	}

	if err := r.db.WithContext(ctx).Create(detection).Error; err != nil {
		return apperrors.ErrPersistence.WithCause(err)
	}
	return nil
}

// ListByTransaction returns a transaction's detections, newest first.
func (r *AnomalyRepository) ListByTransaction(ctx context.Context, transactionID int64, p *Pagination) ([]*model.AnomalyDetection, error) {
	p.Normalize()

	var detections []*model.AnomalyDetection
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("detected_at DESC").
		Limit(p.Limit).
		Offset(p.Offset).
		Find(&detections).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}
	return detections, nil
}

// CountBySeverity returns detection counts grouped by severity.
func (r *AnomalyRepository) CountBySeverity(ctx context.Context) (map[model.Severity]int64, error) {
	type row struct {
		Severity model.Severity
		Count    int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.AnomalyDetection{}).
		Select("severity, count(*) as count").
		Group("severity").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.ErrPersistence.WithCause(err)
	}

	counts := make(map[model.Severity]int64, len(rows))
	for _, r := range rows {
		counts[r.Severity] = r.Count
	}
	return counts, nil
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
