package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Severity classifies how unusual a transaction looks.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is a known value.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank orders severities from low (0) to critical (3).
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// FeatureMap records which model features fired for a detection, stored as
// a JSON column for audit and explainability.
type FeatureMap map[string]bool

// Value implements driver.Valuer.
func (m FeatureMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *FeatureMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported feature map type %T", value)
	}
	return json.Unmarshal(data, m)
}

// AnomalyDetection is an append-only record of one scoring pass over a
// transaction. Scores and confidence are clamped to [0,100] before insert.
type AnomalyDetection struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionID int64      `gorm:"not null;index" json:"transaction_id"`
	AnomalyScore  float64    `gorm:"not null" json:"anomaly_score"` // 0-100
	Confidence    float64    `gorm:"not null" json:"confidence"`    // 0-100
	FeaturesUsed  FeatureMap `gorm:"type:text" json:"features_used"`
	ModelVersion  string     `gorm:"type:varchar(50);not null" json:"model_version"`
	Severity      Severity   `gorm:"type:varchar(20);not null;default:low;index" json:"severity"`
	Reason        string     `gorm:"type:varchar(500)" json:"reason"`
	DetectedAt    int64      `gorm:"type:bigint;not null;index" json:"detected_at"`
	CreatedAt     int64      `gorm:"type:bigint;not null;autoCreateTime:milli" json:"created_at"`
}

// TableName returns the table name.
func (AnomalyDetection) TableName() string {
	return "anomaly_detections"
}
