package model

import (
	"github.com/shopspring/decimal"
)

// Validator is a network validator tracked for health reporting. It is
// independent of the bridge/transaction graph.
type Validator struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Address          string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"address"`
	Name             string          `gorm:"type:varchar(255);not null" json:"name"`
	StakeAmount      decimal.Decimal `gorm:"type:decimal(36,18);not null;default:0" json:"stake_amount"`
	UptimePercentage float64         `gorm:"not null;default:100" json:"uptime_percentage"` // 0-100
	IsActive         bool            `gorm:"not null;default:true;index" json:"is_active"`
	JoinedAt         int64           `gorm:"type:bigint;not null;index" json:"joined_at"`
	CreatedAt        int64           `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
	UpdatedAt        int64           `gorm:"type:bigint;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (Validator) TableName() string {
	return "validators"
}
