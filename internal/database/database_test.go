package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sunnyshin8/BridgeGuard-AI/internal/config"
	apperrors "github.com/sunnyshin8/BridgeGuard-AI/internal/errors"
	"github.com/sunnyshin8/BridgeGuard-AI/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(&config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           filepath.Join(t.TempDir(), "test.db"),
		MaxConnections: 5,
		MaxIdleConns:   2,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrateAndHealthCheck(t *testing.T) {
	db := openTestDB(t)

	health := HealthCheck(context.Background(), db)
	assert.True(t, health.ConnectionOK)
	assert.GreaterOrEqual(t, health.Tables, 6)
	assert.Empty(t, health.Error)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *gorm.DB) error {
		return tx.Create(&model.Bridge{
			Address:   "0xbridge01",
			ChainName: "ethereum",
			Status:    model.BridgeStatusActive,
		}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.Bridge{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *gorm.DB) error {
		if err := tx.Create(&model.Bridge{
			Address:   "0xbridge01",
			ChainName: "ethereum",
			Status:    model.BridgeStatusActive,
		}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, apperrors.ErrPersistence)

	var count int64
	require.NoError(t, db.Model(&model.Bridge{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTxKeepsClassifiedErrors(t *testing.T) {
	db := openTestDB(t)

	err := WithTx(context.Background(), db, func(*gorm.DB) error {
		return apperrors.ErrNotFound.WithMessage("bridge not found")
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
