package model

import (
	"github.com/shopspring/decimal"
)

// ValidationRecord is one entry of the validation audit trail. Every
// validation call appends a record, including repeat validations of a hash
// that already has a transaction row, so the history reads as a complete
// log of what was asked and answered.
type ValidationRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TxHash      string          `gorm:"type:varchar(255);not null;index" json:"tx_hash"`
	SourceChain string          `gorm:"type:varchar(50);not null" json:"source_chain"`
	DestChain   string          `gorm:"type:varchar(50);not null" json:"dest_chain"`
	Amount      decimal.Decimal `gorm:"type:decimal(36,18);not null" json:"amount"`
	Valid       bool            `gorm:"not null" json:"valid"`
	Confidence  float64         `gorm:"not null" json:"confidence"` // 0-100, 2dp
	CreatedAt   int64           `gorm:"type:bigint;not null;autoCreateTime:milli;index" json:"created_at"`
}

// TableName returns the table name.
func (ValidationRecord) TableName() string {
	return "validation_records"
}
