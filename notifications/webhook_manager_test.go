package notifications

import (
	"strings"
	"testing"
	"time"

	"divergence-radar/database"
	"divergence-radar/detector"
)

func sampleRow() *database.ScanResult {
	return &database.ScanResult{
		ID:             42,
		Symbol:         "BBRI",
		ScannedAt:      time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
		Detected:       true,
		BestScore:      0.68,
		ZoneCount:      2,
		ProximityLevel: detector.LevelImminent,
	}
}

func sampleResult() *detector.Result {
	return &detector.Result{
		Symbol:   "BBRI",
		Detected: true,
		Zones:    make([]detector.Zone, 2),
		Best: &detector.ZoneSummary{
			StartDate:  "2024-03-04",
			EndDate:    "2024-03-23",
			Score:      0.68,
			WindowSize: 20,
		},
		Proximity: detector.ProximityResult{
			Level:          detector.LevelImminent,
			CompositeScore: 75,
			Signals: []detector.ProximitySignal{
				{Type: detector.SignalDeltaAnomaly, Points: 25},
			},
		},
	}
}

func TestCreatePayload(t *testing.T) {
	wm := NewWebhookManager(nil, nil)
	payload := wm.CreatePayload(sampleRow(), sampleResult())

	if payload.ScanResultID != 42 || payload.Symbol != "BBRI" {
		t.Errorf("payload identity mismatch: %+v", payload)
	}
	if payload.ProximityLevel != detector.LevelImminent || payload.CompositeScore != 75 {
		t.Errorf("payload proximity mismatch: %+v", payload)
	}
	if payload.BestZone == nil || payload.BestZone.Score != 0.68 {
		t.Error("payload must carry the best zone summary")
	}
	if !strings.Contains(payload.Message, "BBRI") || !strings.Contains(payload.Message, "IMMINENT") {
		t.Errorf("unexpected message %q", payload.Message)
	}
	if !strings.Contains(payload.Message, "2024-03-04") {
		t.Errorf("message must name the zone range, got %q", payload.Message)
	}
}

func TestShouldSendFilters(t *testing.T) {
	wm := NewWebhookManager(nil, nil)
	row := sampleRow()
	minScore := 0.80

	tests := []struct {
		name string
		hook database.AlertWebhook
		want bool
	}{
		{"no filters", database.AlertWebhook{}, true},
		{"level match", database.AlertWebhook{Levels: "high,imminent"}, true},
		{"level mismatch", database.AlertWebhook{Levels: "elevated"}, false},
		{"symbol match", database.AlertWebhook{Symbols: "BBRI,TLKM"}, true},
		{"symbol mismatch", database.AlertWebhook{Symbols: "ASII"}, false},
		{"score below minimum", database.AlertWebhook{MinScore: &minScore}, false},
		{"null filters", database.AlertWebhook{Levels: "null", Symbols: "null"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wm.shouldSend(tt.hook, row); got != tt.want {
				t.Errorf("shouldSend() = %v, want %v", got, tt.want)
			}
		})
	}
}
