// Package model defines the persistent entities of the bridge monitoring
// engine: bridges, their cross-chain transactions, anomaly detections,
// alerts, validators and the validation audit trail.
package model

// BridgeStatus is the operator-driven bridge lifecycle state.
type BridgeStatus string

const (
	BridgeStatusActive   BridgeStatus = "active"
	BridgeStatusPaused   BridgeStatus = "paused"
	BridgeStatusInactive BridgeStatus = "inactive"
)

// Valid reports whether the status is a known value.
func (s BridgeStatus) Valid() bool {
	switch s {
	case BridgeStatusActive, BridgeStatusPaused, BridgeStatusInactive:
		return true
	}
	return false
}

// Bridge is a cross-chain bridge contract under monitoring. Deleting a
// bridge removes its transactions and, transitively, their detections and
// alerts.
type Bridge struct {
	ID             int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Address        string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"address"`
	ChainName      string       `gorm:"type:varchar(50);not null;index:idx_bridge_chain_created,priority:1" json:"chain_name"`
	Status         BridgeStatus `gorm:"type:varchar(20);not null;default:active" json:"status"`
	CreatedAt      int64        `gorm:"type:bigint;not null;autoCreateTime:milli;index:idx_bridge_chain_created,priority:2" json:"created_at"`
	LastVerifiedAt int64        `gorm:"type:bigint" json:"last_verified_at"`

	Transactions []Transaction `gorm:"foreignKey:BridgeID;constraint:OnDelete:CASCADE" json:"transactions,omitempty"`
}

// TableName returns the table name.
func (Bridge) TableName() string {
	return "bridges"
}

// IsActive reports whether the bridge accepts monitoring traffic.
func (b *Bridge) IsActive() bool {
	return b.Status == BridgeStatusActive
}
