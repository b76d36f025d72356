package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/node"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/repository"
)

// ValidatorService mirrors on-chain validator state into the database.
type ValidatorService struct {
	validators *repository.ValidatorRepository
	nodeMgr    *node.Manager
}

// NewValidatorService wires the validator mirror.
func NewValidatorService(validators *repository.ValidatorRepository, nodeMgr *node.Manager) *ValidatorService {
	return &ValidatorService{validators: validators, nodeMgr: nodeMgr}
}

// Sync refreshes one validator from the staking module. A validator the
// chain no longer knows is marked inactive rather than deleted, keeping
// its history queryable.
func (s *ValidatorService) Sync(ctx context.Context, address string) (*model.Validator, error) {
	info, err := s.nodeMgr.GetValidatorInfo(ctx, address)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if markErr := s.validators.MarkInactive(ctx, address); markErr != nil && !errors.Is(markErr, apperrors.ErrNotFound) {
				return nil, markErr
			}
			return nil, err
		}
		return nil, err
	}

	stake, parseErr := decimal.NewFromString(info.Tokens)
	if parseErr != nil {
		stake = decimal.Zero
	}

	validator := &model.Validator{
		Address:     address,
		Name:        info.Moniker,
		StakeAmount: stake,
		IsActive:    info.Status == "bonded" && !info.Jailed,
	}
	if err := s.validators.Upsert(ctx, validator); err != nil {
		return nil, err
	}

	logger.L().Info("validator synced",
		zap.String("address", address),
		zap.String("moniker", info.Moniker),
		zap.Bool("active", validator.IsActive))
	return s.validators.GetByAddress(ctx, address)
}

// ListActive returns active validators ordered by stake.
func (s *ValidatorService) ListActive(ctx context.Context) ([]*model.Validator, error) {
	return s.validators.ListActive(ctx)
}
