package model

// AlertType classifies what raised an alert.
type AlertType string

const (
	AlertTypeAnomaly AlertType = "anomaly"
	AlertTypeTimeout AlertType = "timeout"
	AlertTypeError   AlertType = "error"
)

// Valid reports whether the alert type is a known value.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeAnomaly, AlertTypeTimeout, AlertTypeError:
		return true
	}
	return false
}

// AlertSeverity is the operator-facing alert severity scale.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityError    AlertSeverity = "error"
	AlertSeverityCritical AlertSeverity = "critical"
)

// Valid reports whether the alert severity is a known value.
func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityInfo, AlertSeverityWarning, AlertSeverityError, AlertSeverityCritical:
		return true
	}
	return false
}

// AlertSeverityFor maps a detection severity onto the alert scale.
func AlertSeverityFor(s Severity) AlertSeverity {
	switch s {
	case SeverityCritical:
		return AlertSeverityCritical
	case SeverityHigh:
		return AlertSeverityError
	case SeverityMedium:
		return AlertSeverityWarning
	default:
		return AlertSeverityInfo
	}
}

// Alert is raised by the anomaly engine or submitted manually. It is
// append-only except for resolution: IsResolved and ResolvedAt are set
// together by an explicit resolve action, never by scoring.
type Alert struct {
	ID            int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertUID      string        `gorm:"type:varchar(64);uniqueIndex;not null" json:"alert_uid"`
	TransactionID int64         `gorm:"not null;index" json:"transaction_id"`
	AlertType     AlertType     `gorm:"type:varchar(20);not null;index" json:"alert_type"`
	Severity      AlertSeverity `gorm:"type:varchar(20);not null;default:warning;index" json:"severity"`
	Message       string        `gorm:"type:varchar(500);not null" json:"message"`
	IsResolved    bool          `gorm:"not null;default:false;index" json:"is_resolved"`
	CreatedAt     int64         `gorm:"type:bigint;not null;autoCreateTime:milli;index" json:"created_at"`
	ResolvedAt    int64         `gorm:"type:bigint" json:"resolved_at"` // 0 until resolved
	UpdatedAt     int64         `gorm:"type:bigint;autoUpdateTime:milli" json:"updated_at"`
}

// TableName returns the table name.
func (Alert) TableName() string {
	return "alerts"
}
