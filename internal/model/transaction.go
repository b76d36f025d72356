package model

import (
	"github.com/shopspring/decimal"
)

// TransactionStatus is the bridge transaction lifecycle state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Valid reports whether the status is a known value.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusConfirmed, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is a cross-chain transaction observed through a bridge.
// tx_hash is globally unique; a second insert with the same hash fails
// without touching the first row. The anomaly fields are mutated by the
// scoring pipeline after creation.
type Transaction struct {
	ID               int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	TxHash           string            `gorm:"type:varchar(255);uniqueIndex;not null" json:"tx_hash"`
	BridgeID         int64             `gorm:"not null;index:idx_tx_bridge_created,priority:1" json:"bridge_id"`
	SourceChain      string            `gorm:"type:varchar(50);not null" json:"source_chain"`
	DestinationChain string            `gorm:"type:varchar(50);not null" json:"destination_chain"`
	Value            decimal.Decimal   `gorm:"type:decimal(36,18);not null" json:"value"`
	Sender           string            `gorm:"type:varchar(255)" json:"sender"`
	Receiver         string            `gorm:"type:varchar(255)" json:"receiver"`
	Status           TransactionStatus `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	AnomalyScore     float64           `gorm:"not null;default:0" json:"anomaly_score"` // 0-100
	IsFlagged        bool              `gorm:"not null;default:false;index" json:"is_flagged"`
	Timestamp        int64             `gorm:"type:bigint;not null;index" json:"timestamp"`
	CreatedAt        int64             `gorm:"type:bigint;not null;autoCreateTime:milli;index:idx_tx_bridge_created,priority:2" json:"created_at"`
	UpdatedAt        int64             `gorm:"type:bigint;autoUpdateTime:milli" json:"updated_at"`

	Anomalies []AnomalyDetection `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"anomalies,omitempty"`
	Alerts    []Alert            `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"alerts,omitempty"`
}

// TableName returns the table name.
func (Transaction) TableName() string {
	return "transactions"
}
