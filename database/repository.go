package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"divergence-radar/detector"
)

// ScanRepository handles database operations for scan results and webhooks
type ScanRepository struct {
	db *Database
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db *Database) *ScanRepository {
	return &ScanRepository{db: db}
}

// InitSchema performs auto-migration for all scanner tables
func (r *ScanRepository) InitSchema() error {
	fmt.Println("🔄 Starting database schema initialization...")

	if err := r.db.db.AutoMigrate(
		&ScanResult{},
		&AlertWebhook{},
		&WebhookDeliveryLog{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}

	fmt.Println("✅ Database schema initialized")
	return nil
}

// SaveResult persists a detector result and returns the stored row.
func (r *ScanRepository) SaveResult(result *detector.Result, scannedAt time.Time) (*ScanResult, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scan payload: %w", err)
	}

	row := &ScanResult{
		Symbol:         result.Symbol,
		ScannedAt:      scannedAt,
		Detected:       result.Detected,
		ZoneCount:      len(result.Zones),
		ProximityLevel: result.Proximity.Level,
		ScanDays:       result.ScanDays,
		Status:         result.Status,
		Reason:         result.Reason,
		Payload:        string(payload),
	}
	if result.Best != nil {
		row.BestScore = result.Best.Score
	}

	if err := r.db.db.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to save scan result: %w", err)
	}
	return row, nil
}

// LatestResult returns the most recent scan row for a symbol, or nil when
// the symbol has never been scanned.
func (r *ScanRepository) LatestResult(symbol string) (*ScanResult, error) {
	var row ScanResult
	err := r.db.db.Where("symbol = ?", symbol).
		Order("scanned_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListResults returns recent scan rows, optionally filtered by symbol and
// detection flag.
func (r *ScanRepository) ListResults(symbol string, detectedOnly bool, limit int) ([]ScanResult, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := r.db.db.Order("scanned_at DESC").Limit(limit)
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if detectedOnly {
		query = query.Where("detected = ?", true)
	}

	var rows []ScanResult
	err := query.Find(&rows).Error
	return rows, err
}

// DecodePayload unmarshals the stored detector result.
func (row *ScanResult) DecodePayload() (*detector.Result, error) {
	var result detector.Result
	if err := json.Unmarshal([]byte(row.Payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode scan payload: %w", err)
	}
	return &result, nil
}

// GetActiveWebhooks retrieves all active webhooks
func (r *ScanRepository) GetActiveWebhooks() ([]AlertWebhook, error) {
	var webhooks []AlertWebhook
	err := r.db.db.Where("is_active = ?", true).Find(&webhooks).Error
	return webhooks, err
}

// GetWebhooks retrieves all webhooks
func (r *ScanRepository) GetWebhooks() ([]AlertWebhook, error) {
	var webhooks []AlertWebhook
	err := r.db.db.Order("id ASC").Find(&webhooks).Error
	return webhooks, err
}

// GetWebhookByID retrieves a webhook by ID
func (r *ScanRepository) GetWebhookByID(id int) (*AlertWebhook, error) {
	var webhook AlertWebhook
	err := r.db.db.First(&webhook, id).Error
	if err != nil {
		return nil, err
	}
	return &webhook, nil
}

// SaveWebhook creates or updates a webhook
func (r *ScanRepository) SaveWebhook(webhook *AlertWebhook) error {
	return r.db.db.Save(webhook).Error
}

// DeleteWebhook removes a webhook and its delivery logs
func (r *ScanRepository) DeleteWebhook(id int) error {
	return r.db.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("webhook_id = ?", id).Delete(&WebhookDeliveryLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&AlertWebhook{}, id).Error
	})
}

// SaveDeliveryLog saves a new webhook delivery log
func (r *ScanRepository) SaveDeliveryLog(log *WebhookDeliveryLog) error {
	return r.db.db.Create(log).Error
}
