package repository

import (
	"context"

	"gorm.io/gorm"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

// SystemStats aggregates row counts across the monitored tables.
type SystemStats struct {
	Bridges             int64 `json:"bridges"`
	Transactions        int64 `json:"transactions"`
	FlaggedTransactions int64 `json:"flagged_transactions"`
	Anomalies           int64 `json:"anomalies"`
	Alerts              int64 `json:"alerts"`
	UnresolvedAlerts    int64 `json:"unresolved_alerts"`
	ActiveValidators    int64 `json:"active_validators"`
}

// StatsRepository serves read-only aggregate queries.
type StatsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a stats repository.
func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Collect gathers system-wide counters in a single pass.
func (r *StatsRepository) Collect(ctx context.Context) (*SystemStats, error) {
	stats := &SystemStats{}
	db := r.db.WithContext(ctx)

	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Bridges, db.Model(&model.Bridge{})},
		{&stats.Transactions, db.Model(&model.Transaction{})},
		{&stats.FlaggedTransactions, db.Model(&model.Transaction{}).Where("is_flagged = ?", true)},
		{&stats.Anomalies, db.Model(&model.AnomalyDetection{})},
		{&stats.Alerts, db.Model(&model.Alert{})},
		{&stats.UnresolvedAlerts, db.Model(&model.Alert{}).Where("is_resolved = ?", false)},
		{&stats.ActiveValidators, db.Model(&model.Validator{}).Where("is_active = ?", true)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, apperrors.ErrPersistence.WithCause(err)
		}
	}
	return stats, nil
}
