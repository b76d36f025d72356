package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/cache"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/config"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/database"
	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/metrics"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/notifier"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/ratelimit"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/repository"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/scoring"
)

// DetectionResult is the outcome of analyzing one transaction.
type DetectionResult struct {
	TxHash          string         `json:"tx_hash"`
	AnomalyScore    float64        `json:"anomaly_score"`    // 0-100
	ModelConfidence float64        `json:"model_confidence"` // 0-100
	Severity        model.Severity `json:"severity"`
	Flagged         bool           `json:"flagged"`
	AlertRaised     bool           `json:"alert_raised"`
	AlertUID        string         `json:"alert_uid,omitempty"`
	DetectionID     int64          `json:"detection_id"`
}

// AnomalyService scores stored transactions, partitions the score into a
// severity, and raises deduplicated alerts above the alert threshold.
type AnomalyService struct {
	db      *gorm.DB
	txs     *repository.TransactionRepository
	alerts  *repository.AlertRepository
	limiter *ratelimit.SlidingWindow
	scorer  scoring.Scorer
	deduper *cache.Deduper
	fanout  *notifier.Fanout
	cfg     *config.MonitoringConfig
}

// NewAnomalyService wires the anomaly pipeline. The limiter is shared
// with the validation pipeline: every entry point draws from the same
// per-client admission budget.
func NewAnomalyService(
	db *gorm.DB,
	txs *repository.TransactionRepository,
	alerts *repository.AlertRepository,
	limiter *ratelimit.SlidingWindow,
	scorer scoring.Scorer,
	deduper *cache.Deduper,
	fanout *notifier.Fanout,
	cfg *config.MonitoringConfig,
) *AnomalyService {
	return &AnomalyService{
		db:      db,
		txs:     txs,
		alerts:  alerts,
		limiter: limiter,
		scorer:  scorer,
		deduper: deduper,
		fanout:  fanout,
		cfg:     cfg,
	}
}

// severityFor partitions a [0,1] score. The thresholds are exclusive on
// the low side: a score exactly at a boundary belongs to the band below.
func (s *AnomalyService) severityFor(score float64) model.Severity {
	switch {
	case score > s.cfg.CriticalThreshold:
		return model.SeverityCritical
	case score > s.cfg.HighThreshold:
		return model.SeverityHigh
	case score > s.cfg.MediumThreshold:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// Analyze scores one stored transaction. Admission is checked before
// any side effect: a rate-limited call reads and writes nothing. The
// detection row, the transaction's score fields and any raised alert
// commit atomically; notification runs only after the commit, gated by
// the dedupe window so at most one outbound notification fires per
// tx/severity per window.
func (s *AnomalyService) Analyze(ctx context.Context, clientID, txHash string) (*DetectionResult, error) {
	if !s.limiter.Allow(clientID) {
		metrics.RateLimitRejections.Inc()
		return nil, apperrors.ErrRateLimited
	}

	tx, err := s.txs.GetByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}

	score, err := s.scorer.Score(ctx, &scoring.ScoreInput{
		TxHash:      tx.TxHash,
		SourceChain: tx.SourceChain,
		DestChain:   tx.DestinationChain,
		Amount:      tx.Value,
		Sender:      tx.Sender,
		Receiver:    tx.Receiver,
	})
	if err != nil {
		return nil, apperrors.ErrInternal.WithMessage("scoring failed").WithCause(err)
	}
	score = clampUnit(score)

	severity := s.severityFor(score)
	raiseAlert := score > s.cfg.AlertThreshold
	scorePercent := roundTwo(score * 100)

	result := &DetectionResult{
		TxHash:          txHash,
		AnomalyScore:    scorePercent,
		ModelConfidence: s.cfg.ModelConfidence,
		Severity:        severity,
		Flagged:         raiseAlert,
		AlertRaised:     raiseAlert,
	}

	var alert *model.Alert
	err = database.WithTx(ctx, s.db, func(dbtx *gorm.DB) error {
		detection := &model.AnomalyDetection{
			TransactionID: tx.ID,
			AnomalyScore:  scorePercent,
			Confidence:    s.cfg.ModelConfidence,
			FeaturesUsed:  model.FeatureMap{"amount": true, "chains": true, "addresses": true},
			ModelVersion:  s.scorer.Version(),
			Severity:      severity,
			Reason:        fmt.Sprintf("anomaly score %.2f in %s band", scorePercent, severity),
		}
		if err := repository.NewAnomalyRepository(dbtx).Create(ctx, detection); err != nil {
			return err
		}
		result.DetectionID = detection.ID

		if err := repository.NewTransactionRepository(dbtx).UpdateAnomaly(ctx, txHash, scorePercent, raiseAlert); err != nil {
			return err
		}

		if raiseAlert {
			alert = &model.Alert{
				TransactionID: tx.ID,
				AlertType:     model.AlertTypeAnomaly,
				Severity:      model.AlertSeverityFor(severity),
				Message:       fmt.Sprintf("anomalous transaction %s: score %.2f (%s)", txHash, scorePercent, severity),
			}
			if err := repository.NewAlertRepository(dbtx).Create(ctx, alert); err != nil {
				return err
			}
			result.AlertUID = alert.AlertUID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordDetection(string(severity), score)
	logger.L().Info("transaction analyzed",
		zap.String("tx_hash", txHash),
		zap.Float64("score", scorePercent),
		zap.String("severity", string(severity)),
		zap.Bool("alert_raised", raiseAlert))

	if alert != nil {
		metrics.RecordAlert(string(alert.AlertType), string(alert.Severity))
		s.notify(ctx, tx.TxHash, alert, scorePercent)
	}
	return result, nil
}

// SubmitAlert records an operator or external alert against a stored
// transaction. Admission comes first; once admitted the alert persists
// unconditionally, and notification is still dedupe-gated.
func (s *AnomalyService) SubmitAlert(ctx context.Context, clientID, txHash string, alertType model.AlertType, severity model.Severity, message string) (*model.Alert, error) {
	if !s.limiter.Allow(clientID) {
		metrics.RateLimitRejections.Inc()
		return nil, apperrors.ErrRateLimited
	}

	if !severity.Valid() {
		return nil, apperrors.ErrValidation.WithMessagef("invalid severity %q", severity)
	}

	tx, err := s.txs.GetByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}

	alert := &model.Alert{
		TransactionID: tx.ID,
		AlertType:     alertType,
		Severity:      model.AlertSeverityFor(severity),
		Message:       message,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, err
	}

	metrics.RecordAlert(string(alert.AlertType), string(alert.Severity))
	s.notify(ctx, txHash, alert, tx.AnomalyScore)
	return alert, nil
}

// ResolveAlert marks an alert resolved.
func (s *AnomalyService) ResolveAlert(ctx context.Context, alertUID string) error {
	return s.alerts.Resolve(ctx, alertUID)
}

// ListUnresolvedAlerts returns open alerts, newest first.
func (s *AnomalyService) ListUnresolvedAlerts(ctx context.Context, limit, offset int) ([]*model.Alert, error) {
	return s.alerts.ListUnresolved(ctx, repository.NewPagination(limit, offset))
}

// notify dispatches the alert unless the tx/severity pair already fired
// within the dedupe window. The alert row always exists; only the
// outbound notification is suppressed.
func (s *AnomalyService) notify(ctx context.Context, txHash string, alert *model.Alert, scorePercent float64) {
	if !s.deduper.FirstSeen(ctx, txHash, string(alert.Severity)) {
		metrics.AlertsDeduplicated.Inc()
		logger.L().Debug("alert notification suppressed as duplicate",
			zap.String("tx_hash", txHash),
			zap.String("severity", string(alert.Severity)))
		return
	}

	createdAt := alert.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}
	s.fanout.Dispatch(&notifier.AlertEvent{
		AlertUID:     alert.AlertUID,
		TxHash:       txHash,
		AlertType:    string(alert.AlertType),
		Severity:     string(alert.Severity),
		Message:      alert.Message,
		AnomalyScore: scorePercent,
		CreatedAt:    createdAt,
	})
}
