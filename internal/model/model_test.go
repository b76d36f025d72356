package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeStatus_Valid(t *testing.T) {
	assert.True(t, BridgeStatusActive.Valid())
	assert.True(t, BridgeStatusPaused.Valid())
	assert.True(t, BridgeStatusInactive.Valid())
	assert.False(t, BridgeStatus("frozen").Valid())
}

func TestTransactionStatus_Valid(t *testing.T) {
	assert.True(t, TransactionStatusPending.Valid())
	assert.True(t, TransactionStatusConfirmed.Valid())
	assert.True(t, TransactionStatusFailed.Valid())
	assert.False(t, TransactionStatus("unknown").Valid())
}

func TestSeverity_Rank(t *testing.T) {
	tests := []struct {
		severity Severity
		rank     int
	}{
		{SeverityLow, 0},
		{SeverityMedium, 1},
		{SeverityHigh, 2},
		{SeverityCritical, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.rank, tt.severity.Rank())
		})
	}
}

func TestAlertSeverityFor(t *testing.T) {
	assert.Equal(t, AlertSeverityCritical, AlertSeverityFor(SeverityCritical))
	assert.Equal(t, AlertSeverityError, AlertSeverityFor(SeverityHigh))
	assert.Equal(t, AlertSeverityWarning, AlertSeverityFor(SeverityMedium))
	assert.Equal(t, AlertSeverityInfo, AlertSeverityFor(SeverityLow))
}

func TestFeatureMap_RoundTrip(t *testing.T) {
	m := FeatureMap{"volume_deviation": true, "frequency_anomaly": false}

	value, err := m.Value()
	require.NoError(t, err)

	var decoded FeatureMap
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, m, decoded)
}

func TestFeatureMap_NilValue(t *testing.T) {
	var m FeatureMap
	value, err := m.Value()
	require.NoError(t, err)
	assert.Nil(t, value)

	var decoded FeatureMap
	require.NoError(t, decoded.Scan(nil))
	assert.Nil(t, decoded)
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "bridges", Bridge{}.TableName())
	assert.Equal(t, "transactions", Transaction{}.TableName())
	assert.Equal(t, "anomaly_detections", AnomalyDetection{}.TableName())
	assert.Equal(t, "validators", Validator{}.TableName())
	assert.Equal(t, "alerts", Alert{}.TableName())
	assert.Equal(t, "validation_records", ValidationRecord{}.TableName())
}
