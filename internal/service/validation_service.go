// Package service implements the monitoring pipeline: transaction
// validation, anomaly detection, alerting and system stats.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/config"
	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/metrics"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/ratelimit"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/repository"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/scoring"
)

// ValidationRequest is one transaction submitted for validation.
type ValidationRequest struct {
	ClientID    string          `json:"-"`
	TxHash      string          `json:"tx_hash"`
	SourceChain string          `json:"source_chain"`
	DestChain   string          `json:"dest_chain"`
	Amount      decimal.Decimal `json:"amount"`
	Sender      string          `json:"sender"`
	Receiver    string          `json:"receiver"`
	Timestamp   int64           `json:"timestamp,omitempty"` // unix millis, optional
}

// ValidationResult is the verdict for one validation request.
type ValidationResult struct {
	TxHash        string  `json:"tx_hash"`
	Valid         bool    `json:"valid"`
	Confidence    float64 `json:"confidence"` // 0-100, 2dp
	ModelVersion  string  `json:"model_version"`
	BridgeID      int64   `json:"bridge_id"`
	TransactionID int64   `json:"transaction_id"`
	AlreadyKnown  bool    `json:"already_known"`
	ValidatedAt   int64   `json:"validated_at"`
}

// ValidationService validates bridge transactions: admission, input
// checks, scoring, persistence and the audit trail.
type ValidationService struct {
	bridges *repository.BridgeRepository
	txs     *repository.TransactionRepository
	records *repository.ValidationRecordRepository
	limiter *ratelimit.SlidingWindow
	scorer  scoring.Scorer
	cfg     *config.MonitoringConfig
}

// NewValidationService wires the validation pipeline.
func NewValidationService(
	bridges *repository.BridgeRepository,
	txs *repository.TransactionRepository,
	records *repository.ValidationRecordRepository,
	limiter *ratelimit.SlidingWindow,
	scorer scoring.Scorer,
	cfg *config.MonitoringConfig,
) *ValidationService {
	return &ValidationService{
		bridges: bridges,
		txs:     txs,
		records: records,
		limiter: limiter,
		scorer:  scorer,
		cfg:     cfg,
	}
}

// Validate runs the full validation path. Admission is checked before
// any side effect: a rate-limited request leaves no trace. Re-validating
// a known hash does not mutate the stored transaction but still appends
// to the audit trail.
func (s *ValidationService) Validate(ctx context.Context, req *ValidationRequest) (*ValidationResult, error) {
	start := time.Now()

	if !s.limiter.Allow(req.ClientID) {
		metrics.RateLimitRejections.Inc()
		metrics.RecordValidation("rejected", 0)
		return nil, apperrors.ErrRateLimited
	}

	if err := s.checkRequest(req); err != nil {
		metrics.RecordValidation("error", 0)
		return nil, err
	}

	bridge, err := s.bridges.GetByChain(ctx, req.SourceChain)
	if err != nil {
		metrics.RecordValidation("error", 0)
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrValidation.WithMessagef("no bridge registered for chain %s", req.SourceChain)
		}
		return nil, err
	}

	score, err := s.scorer.Score(ctx, &scoring.ScoreInput{
		TxHash:      req.TxHash,
		SourceChain: req.SourceChain,
		DestChain:   req.DestChain,
		Amount:      req.Amount,
		Sender:      req.Sender,
		Receiver:    req.Receiver,
	})
	if err != nil {
		metrics.RecordValidation("error", 0)
		return nil, apperrors.ErrInternal.WithMessage("scoring failed").WithCause(err)
	}
	score = clampUnit(score)

	valid := score > s.cfg.ValidityThreshold
	confidence := roundTwo(score * 100)

	result := &ValidationResult{
		TxHash:       req.TxHash,
		Valid:        valid,
		Confidence:   confidence,
		ModelVersion: s.scorer.Version(),
		BridgeID:     bridge.ID,
		ValidatedAt:  time.Now().UnixMilli(),
	}

	tx := &model.Transaction{
		TxHash:           req.TxHash,
		BridgeID:         bridge.ID,
		SourceChain:      req.SourceChain,
		DestinationChain: req.DestChain,
		Value:            req.Amount,
		Sender:           req.Sender,
		Receiver:         req.Receiver,
		Timestamp:        req.Timestamp,
	}
	if err := s.txs.Create(ctx, tx); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			metrics.RecordValidation("error", 0)
			return nil, err
		}
		// the hash is already recorded: keep the stored row, log the
		// repeat in the audit trail only
		existing, getErr := s.txs.GetByHash(ctx, req.TxHash)
		if getErr != nil {
			metrics.RecordValidation("error", 0)
			return nil, getErr
		}
		result.AlreadyKnown = true
		result.TransactionID = existing.ID
	} else {
		result.TransactionID = tx.ID
	}

	if err := s.records.Create(ctx, &model.ValidationRecord{
		TxHash:      req.TxHash,
		SourceChain: req.SourceChain,
		DestChain:   req.DestChain,
		Amount:      req.Amount,
		Valid:       valid,
		Confidence:  confidence,
	}); err != nil {
		metrics.RecordValidation("error", 0)
		return nil, err
	}

	verdict := "invalid"
	if valid {
		verdict = "valid"
	}
	metrics.RecordValidation(verdict, time.Since(start).Seconds())

	logger.L().Info("transaction validated",
		zap.String("tx_hash", req.TxHash),
		zap.Bool("valid", valid),
		zap.Float64("confidence", confidence),
		zap.Bool("already_known", result.AlreadyKnown))

	return result, nil
}

// History returns the validation audit trail, oldest first. History reads
// share the caller's admission budget with Validate.
func (s *ValidationService) History(ctx context.Context, clientID string, limit, offset int) ([]*model.ValidationRecord, int64, error) {
	if !s.limiter.Allow(clientID) {
		metrics.RateLimitRejections.Inc()
		return nil, 0, apperrors.ErrRateLimited
	}
	return s.records.List(ctx, repository.NewPagination(limit, offset))
}

// GetTransaction fetches one stored transaction by hash.
func (s *ValidationService) GetTransaction(ctx context.Context, txHash string) (*model.Transaction, error) {
	return s.txs.GetByHash(ctx, txHash)
}

func (s *ValidationService) checkRequest(req *ValidationRequest) error {
	switch {
	case req.TxHash == "":
		return apperrors.ErrValidation.WithMessage("tx_hash is required")
	case req.SourceChain == "":
		return apperrors.ErrValidation.WithMessage("source_chain is required")
	case req.DestChain == "":
		return apperrors.ErrValidation.WithMessage("dest_chain is required")
	case req.Amount.IsNegative() || req.Amount.IsZero():
		return apperrors.ErrValidation.WithMessage("amount must be positive")
	}
	return nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
