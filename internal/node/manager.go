// Package node wraps the chain RPC endpoint with health classification,
// sync waiting and a background watch loop.
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/logger"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/metrics"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/rpc"
)

// State classifies the node at a point in time.
type State string

const (
	// StateUnreachable means the status call failed; nothing is known.
	StateUnreachable State = "UNREACHABLE"
	// StateSyncing means the node answered but is catching up.
	StateSyncing State = "SYNCING"
	// StateHealthy means the node answered and is at chain head.
	StateHealthy State = "HEALTHY"
)

// Status is a point-in-time node health snapshot.
type Status struct {
	State       State     `json:"state"`
	Moniker     string    `json:"moniker"`
	ChainID     string    `json:"chain_id"`
	BlockHeight int64     `json:"block_height"`
	CatchingUp  bool      `json:"catching_up"`
	CheckedAt   time.Time `json:"checked_at"`
	Error       string    `json:"error,omitempty"`
}

// Healthy reports whether the node can serve queries.
func (s *Status) Healthy() bool {
	return s.State == StateHealthy
}

type statusResult struct {
	NodeInfo struct {
		Moniker string `json:"moniker"`
		Network string `json:"network"`
	} `json:"node_info"`
	SyncInfo struct {
		LatestBlockHeight string `json:"latest_block_height"`
		LatestBlockTime   string `json:"latest_block_time"`
		CatchingUp        bool   `json:"catching_up"`
	} `json:"sync_info"`
	ValidatorInfo struct {
		Address     string `json:"address"`
		VotingPower string `json:"voting_power"`
	} `json:"validator_info"`
}

// ValidatorInfo is the staking record of one validator.
type ValidatorInfo struct {
	Address     string `json:"address"`
	Moniker     string `json:"moniker"`
	Tokens      string `json:"tokens"`
	Status      string `json:"status"`
	Jailed      bool   `json:"jailed"`
	VotingPower int64  `json:"voting_power"`
}

// Balance is one denomination balance of an account.
type Balance struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Block is a minimal block header view.
type Block struct {
	Height  int64     `json:"height"`
	Hash    string    `json:"hash"`
	Time    time.Time `json:"time"`
	ChainID string    `json:"chain_id"`
	TxCount int       `json:"tx_count"`
}

// BroadcastResult is the node's answer to a transaction broadcast.
type BroadcastResult struct {
	Code   uint32 `json:"code"`
	TxHash string `json:"hash"`
	Log    string `json:"log"`
}

// Accepted reports whether the transaction passed CheckTx.
func (r *BroadcastResult) Accepted() bool {
	return r.Code == 0
}

type caller interface {
	Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error)
}

// ManagerConfig configures the node manager.
type ManagerConfig struct {
	ChainID string
	Moniker string
}

// Manager queries and tracks one node.
type Manager struct {
	client caller
	cfg    ManagerConfig

	mu      sync.RWMutex
	current Status
}

// NewManager creates a node manager over an RPC client.
func NewManager(client *rpc.Client, cfg ManagerConfig) *Manager {
	return newManager(client, cfg)
}

func newManager(client caller, cfg ManagerConfig) *Manager {
	return &Manager{
		client: client,
		cfg:    cfg,
		current: Status{
			State:   StateUnreachable,
			ChainID: cfg.ChainID,
			Moniker: cfg.Moniker,
		},
	}
}

// CheckHealth polls the node once and classifies it. A failed status call
// yields UNREACHABLE, never an error: unknown is a state, not a verdict.
func (m *Manager) CheckHealth(ctx context.Context) *Status {
	status := &Status{CheckedAt: time.Now()}

	raw, err := m.client.Call(ctx, "status", nil)
	if err != nil {
		status.State = StateUnreachable
		status.Error = err.Error()
		metrics.NodeHealthChecks.WithLabelValues(string(StateUnreachable)).Inc()
		logger.L().Warn("node unreachable", zap.Error(err))
		m.store(status)
		return status
	}

	var result statusResult
	if err := json.Unmarshal(raw, &result); err != nil {
		status.State = StateUnreachable
		status.Error = fmt.Sprintf("malformed status response: %v", err)
		metrics.NodeHealthChecks.WithLabelValues(string(StateUnreachable)).Inc()
		m.store(status)
		return status
	}

	height, _ := strconv.ParseInt(result.SyncInfo.LatestBlockHeight, 10, 64)
	status.Moniker = result.NodeInfo.Moniker
	status.ChainID = result.NodeInfo.Network
	status.BlockHeight = height
	status.CatchingUp = result.SyncInfo.CatchingUp

	if !result.SyncInfo.CatchingUp && height > 0 {
		status.State = StateHealthy
	} else {
		status.State = StateSyncing
	}
	metrics.NodeHealthChecks.WithLabelValues(string(status.State)).Inc()
	metrics.NodeBlockHeight.Set(float64(height))

	m.store(status)
	return status
}

func (m *Manager) store(status *Status) {
	m.mu.Lock()
	m.current = *status
	m.mu.Unlock()
}

// Current returns the last observed status snapshot.
func (m *Manager) Current() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// GetStatus fetches the raw node status.
func (m *Manager) GetStatus(ctx context.Context) (*Status, error) {
	status := m.CheckHealth(ctx)
	if status.State == StateUnreachable {
		return nil, apperrors.ErrRPCUnavailable.WithMessage(status.Error)
	}
	return status, nil
}

// GetValidatorInfo queries the staking module for one validator.
func (m *Manager) GetValidatorInfo(ctx context.Context, address string) (*ValidatorInfo, error) {
	raw, err := m.abciQuery(ctx, fmt.Sprintf("/custom/staking/validator/%s", address))
	if err != nil {
		return nil, err
	}

	var info ValidatorInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}
	if info.Address == "" {
		info.Address = address
	}
	return &info, nil
}

// QueryBalance queries the bank module for an account's balances.
func (m *Manager) QueryBalance(ctx context.Context, address string) ([]Balance, error) {
	raw, err := m.abciQuery(ctx, fmt.Sprintf("/custom/bank/balances/%s", address))
	if err != nil {
		return nil, err
	}

	var balances []Balance
	if err := json.Unmarshal(raw, &balances); err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}
	return balances, nil
}

// abciQuery issues an abci_query call and decodes its response envelope.
func (m *Manager) abciQuery(ctx context.Context, path string) (json.RawMessage, error) {
	raw, err := m.client.Call(ctx, "abci_query", map[string]interface{}{
		"path": path,
		"data": "",
	})
	if err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}

	var envelope struct {
		Response struct {
			Code  uint32          `json:"code"`
			Log   string          `json:"log"`
			Value json.RawMessage `json:"value"`
		} `json:"response"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}
	if envelope.Response.Code != 0 {
		return nil, apperrors.ErrNotFound.WithMessagef("query %s: %s", path, envelope.Response.Log)
	}
	return envelope.Response.Value, nil
}

// BroadcastTransaction submits a signed transaction. A non-zero CheckTx
// code is a validation failure, not a transport error.
func (m *Manager) BroadcastTransaction(ctx context.Context, signedTx string) (*BroadcastResult, error) {
	raw, err := m.client.Call(ctx, "broadcast_tx_sync", map[string]interface{}{
		"tx": signedTx,
	})
	if err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}

	var result BroadcastResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}
	if !result.Accepted() {
		return &result, apperrors.ErrValidation.WithMessagef("broadcast rejected: code=%d %s", result.Code, result.Log)
	}
	return &result, nil
}

// GetLatestBlock fetches the most recent block header.
func (m *Manager) GetLatestBlock(ctx context.Context) (*Block, error) {
	raw, err := m.client.Call(ctx, "block", nil)
	if err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}

	var result struct {
		BlockID struct {
			Hash string `json:"hash"`
		} `json:"block_id"`
		Block struct {
			Header struct {
				ChainID string    `json:"chain_id"`
				Height  string    `json:"height"`
				Time    time.Time `json:"time"`
			} `json:"header"`
			Data struct {
				Txs []string `json:"txs"`
			} `json:"data"`
		} `json:"block"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.ErrRPCUnavailable.WithCause(err)
	}

	height, _ := strconv.ParseInt(result.Block.Header.Height, 10, 64)
	return &Block{
		Height:  height,
		Hash:    result.BlockID.Hash,
		Time:    result.Block.Header.Time,
		ChainID: result.Block.Header.ChainID,
		TxCount: len(result.Block.Data.Txs),
	}, nil
}

// WaitForSync polls until the node is healthy or maxAttempts checks have
// run. It returns the final status, the number of checks made and
// whether the node synced. The wait is cancellable between polls.
func (m *Manager) WaitForSync(ctx context.Context, maxAttempts int, interval time.Duration) (*Status, int, bool) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var status *Status
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		status = m.CheckHealth(ctx)
		if status.Healthy() {
			logger.L().Info("node synced",
				zap.Int64("height", status.BlockHeight),
				zap.Int("attempts", attempt))
			return status, attempt, true
		}

		logger.L().Info("waiting for node sync",
			zap.String("state", string(status.State)),
			zap.Int64("height", status.BlockHeight),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts))

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return status, attempt, false
		case <-time.After(interval):
		}
	}
	return status, maxAttempts, false
}

// Watch polls the node on the given interval until the context is
// cancelled. Snapshots are available through Current.
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.CheckHealth(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckHealth(ctx)
		}
	}
}
