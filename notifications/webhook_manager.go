package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"divergence-radar/cache"
	"divergence-radar/database"
	"divergence-radar/detector"
)

// WebhookManager handles webhook notifications
type WebhookManager struct {
	repo   *database.ScanRepository
	redis  *cache.RedisClient
	client *http.Client
}

// WebhookPayload represents the JSON payload sent to webhooks
type WebhookPayload struct {
	ScanResultID   int64                      `json:"ScanResultID"`
	Symbol         string                     `json:"Symbol"`
	ScannedAt      time.Time                  `json:"ScannedAt"`
	ProximityLevel string                     `json:"ProximityLevel"`
	CompositeScore int                        `json:"CompositeScore"`
	BestScore      float64                    `json:"BestScore"`
	ZoneCount      int                        `json:"ZoneCount"`
	BestZone       *detector.ZoneSummary      `json:"BestZone,omitempty"`
	Signals        []detector.ProximitySignal `json:"Signals,omitempty"`
	Message        string                     `json:"Message"`
}

// NewWebhookManager creates a new webhook manager
func NewWebhookManager(repo *database.ScanRepository, redis *cache.RedisClient) *WebhookManager {
	return &WebhookManager{
		repo:  repo,
		redis: redis,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendAlert delivers a scan result to every matching webhook
func (wm *WebhookManager) SendAlert(row *database.ScanResult, result *detector.Result) {
	webhooks, err := wm.getActiveWebhooks()
	if err != nil {
		log.Printf("⚠️  Failed to load webhooks: %v", err)
		return
	}

	if len(webhooks) == 0 {
		return
	}

	payload := wm.CreatePayload(row, result)
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Failed to marshal webhook payload: %v", err)
		return
	}

	for _, hook := range webhooks {
		if wm.shouldSend(hook, row) {
			go wm.deliverWebhook(hook, row.ID, payloadBytes)
		}
	}
}

func (wm *WebhookManager) getActiveWebhooks() ([]database.AlertWebhook, error) {
	// Try cache first
	cacheKey := "active_webhooks"
	if wm.redis != nil {
		var cached []database.AlertWebhook
		if err := wm.redis.Get(context.Background(), cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	// Fetch from DB
	webhooks, err := wm.repo.GetActiveWebhooks()
	if err != nil {
		return nil, err
	}

	// Update cache (expire 1 hour)
	if wm.redis != nil {
		_ = wm.redis.Set(context.Background(), cacheKey, webhooks, 1*time.Hour)
	}

	return webhooks, err
}

// CreatePayload generates the webhook payload from a scan result
func (wm *WebhookManager) CreatePayload(row *database.ScanResult, result *detector.Result) WebhookPayload {
	// Example: "📡 BREAKOUT WATCH! BBRI proximity IMMINENT (75 pts) | Best zone 0.68 over 2024-03-04..2024-03-23"
	message := fmt.Sprintf("📡 BREAKOUT WATCH! %s proximity %s (%d pts)",
		row.Symbol,
		strings.ToUpper(result.Proximity.Level),
		result.Proximity.CompositeScore,
	)
	if result.Best != nil {
		message += fmt.Sprintf(" | Best zone %.2f over %s..%s",
			result.Best.Score, result.Best.StartDate, result.Best.EndDate)
	}

	return WebhookPayload{
		ScanResultID:   row.ID,
		Symbol:         row.Symbol,
		ScannedAt:      row.ScannedAt,
		ProximityLevel: result.Proximity.Level,
		CompositeScore: result.Proximity.CompositeScore,
		BestScore:      row.BestScore,
		ZoneCount:      len(result.Zones),
		BestZone:       result.Best,
		Signals:        result.Proximity.Signals,
		Message:        message,
	}
}

func (wm *WebhookManager) shouldSend(hook database.AlertWebhook, row *database.ScanResult) bool {
	// Check proximity level filter
	if hook.Levels != "" && hook.Levels != "null" {
		// Lenient check: matches if the level is present in the string (JSON or CSV)
		if !strings.Contains(hook.Levels, row.ProximityLevel) {
			return false
		}
	}

	// Check symbol filter
	if hook.Symbols != "" && hook.Symbols != "null" {
		if !strings.Contains(hook.Symbols, row.Symbol) {
			return false
		}
	}

	// Check score threshold
	if hook.MinScore != nil && row.BestScore < *hook.MinScore {
		return false
	}

	return true
}

func (wm *WebhookManager) deliverWebhook(hook database.AlertWebhook, resultID int64, payload []byte) {
	maxRetries := hook.RetryCount
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var resp *http.Response
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, _ := http.NewRequest(hook.Method, hook.URL, bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "Divergence-Radar-Alert/1.0")

		log.Printf("🔹 Sending webhook to %s (Attempt %d/%d)", hook.URL, attempt, maxRetries)

		// Auth headers
		if hook.AuthType == "BEARER" {
			req.Header.Set("Authorization", "Bearer "+hook.AuthValue)
		} else if hook.AuthHeader != "" {
			req.Header.Set(hook.AuthHeader, hook.AuthValue)
		}

		resp, err = wm.client.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			wm.logDelivery(hook.ID, resultID, "SUCCESS", resp.StatusCode, "", attempt)
			if resp.Body != nil {
				resp.Body.Close()
			}
			return
		}

		// Wait before retry
		if attempt < maxRetries {
			time.Sleep(time.Duration(hook.RetryDelaySeconds) * time.Second)
		}
	}

	// Failed
	status := "FAILED"
	errMsg := ""
	statusCode := 0
	if err != nil {
		errMsg = err.Error()
	} else if resp != nil {
		statusCode = resp.StatusCode
		resp.Body.Close()
	}

	wm.logDelivery(hook.ID, resultID, status, statusCode, errMsg, maxRetries)
}

func (wm *WebhookManager) logDelivery(webhookID int, resultID int64, status string, code int, err string, attempt int) {
	logEntry := &database.WebhookDeliveryLog{
		WebhookID:    webhookID,
		ScanResultID: &resultID,
		TriggeredAt:  time.Now(),
		Status:       status,
		RetryAttempt: attempt,
	}

	if code != 0 {
		logEntry.HTTPStatusCode = &code
	}
	if err != "" {
		logEntry.ErrorMessage = err
	}

	if dbErr := wm.repo.SaveDeliveryLog(logEntry); dbErr != nil {
		log.Printf("⚠️  Failed to save webhook delivery log: %v", dbErr)
	}
}

// RefreshCache reloads webhook configurations
func (wm *WebhookManager) RefreshCache() {
	if wm.redis != nil {
		_ = wm.redis.Delete(context.Background(), "active_webhooks")
		log.Println("🔄 Webhook cache invalidated")
	}
}
