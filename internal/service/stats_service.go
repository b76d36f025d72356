package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/database"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/node"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/repository"
)

// SystemOverview is the aggregated health and count report.
type SystemOverview struct {
	Stats      *repository.SystemStats  `json:"stats"`
	Severities map[model.Severity]int64 `json:"detections_by_severity"`
	Database   database.Health          `json:"database"`
	Node       node.Status              `json:"node"`
}

// StatsService serves system-wide aggregates and health.
type StatsService struct {
	db        *gorm.DB
	stats     *repository.StatsRepository
	anomalies *repository.AnomalyRepository
	nodeMgr   *node.Manager
}

// NewStatsService wires the stats reader.
func NewStatsService(db *gorm.DB, stats *repository.StatsRepository, anomalies *repository.AnomalyRepository, nodeMgr *node.Manager) *StatsService {
	return &StatsService{db: db, stats: stats, anomalies: anomalies, nodeMgr: nodeMgr}
}

// Overview collects counts, severity distribution and component health.
// The node snapshot comes from the watch loop, not a fresh poll.
func (s *StatsService) Overview(ctx context.Context) (*SystemOverview, error) {
	stats, err := s.stats.Collect(ctx)
	if err != nil {
		return nil, err
	}
	severities, err := s.anomalies.CountBySeverity(ctx)
	if err != nil {
		return nil, err
	}

	overview := &SystemOverview{
		Stats:      stats,
		Severities: severities,
		Database:   database.HealthCheck(ctx, s.db),
	}
	if s.nodeMgr != nil {
		overview.Node = s.nodeMgr.Current()
	}
	return overview, nil
}
