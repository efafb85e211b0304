package database

import "time"

// ScanResult persists one detector run for one symbol. The full result,
// zones and proximity signals included, is stored as a JSON payload; the
// indexed columns exist for listing and filtering.
type ScanResult struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol         string    `gorm:"size:20;index;not null" json:"symbol"`
	ScannedAt      time.Time `gorm:"index;not null" json:"scanned_at"`
	Detected       bool      `gorm:"index" json:"detected"`
	BestScore      float64   `gorm:"type:decimal(6,4)" json:"best_score"`
	ZoneCount      int       `json:"zone_count"`
	ProximityLevel string    `gorm:"size:20" json:"proximity_level"`
	ScanDays       int       `json:"scan_days"`
	Status         string    `json:"status"`
	Reason         string    `gorm:"size:40" json:"reason,omitempty"`
	Payload        string    `gorm:"type:jsonb" json:"payload"`
}

// TableName specifies the table name for ScanResult
func (ScanResult) TableName() string {
	return "scan_results"
}

// AlertWebhook is a registered HTTP endpoint for proximity alerts.
// Levels and Symbols are comma-separated filters; empty matches all.
type AlertWebhook struct {
	ID                int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	URL               string    `gorm:"not null" json:"url"`
	Method            string    `gorm:"size:10;default:POST" json:"method"`
	AuthType          string    `gorm:"size:20" json:"auth_type"`
	AuthHeader        string    `gorm:"size:100" json:"auth_header"`
	AuthValue         string    `json:"auth_value"`
	Levels            string    `json:"levels"`
	Symbols           string    `json:"symbols"`
	MinScore          *float64  `gorm:"type:decimal(6,4)" json:"min_score,omitempty"`
	IsActive          bool      `gorm:"default:true" json:"is_active"`
	RetryCount        int       `gorm:"default:3" json:"retry_count"`
	RetryDelaySeconds int       `gorm:"default:5" json:"retry_delay_seconds"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for AlertWebhook
func (AlertWebhook) TableName() string {
	return "alert_webhooks"
}

// WebhookDeliveryLog records one delivery attempt outcome per webhook.
type WebhookDeliveryLog struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	WebhookID      int       `gorm:"index;not null" json:"webhook_id"`
	ScanResultID   *int64    `gorm:"index" json:"scan_result_id,omitempty"`
	TriggeredAt    time.Time `gorm:"index;not null" json:"triggered_at"`
	Status         string    `gorm:"size:20;not null" json:"status"`
	HTTPStatusCode *int      `json:"http_status_code,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	RetryAttempt   int       `json:"retry_attempt"`
}

// TableName specifies the table name for WebhookDeliveryLog
func (WebhookDeliveryLog) TableName() string {
	return "webhook_delivery_logs"
}
