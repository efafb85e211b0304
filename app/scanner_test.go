package app

import (
	"testing"
	"time"

	"divergence-radar/config"
	"divergence-radar/detector"
)

func TestScannerAlertLevel(t *testing.T) {
	s := NewScanner(config.ScannerConfig{AlertLevels: []string{"high", "imminent"}},
		detector.NewDefault(), nil, nil, nil, nil, nil)

	tests := []struct {
		level string
		want  bool
	}{
		{detector.LevelImminent, true},
		{detector.LevelHigh, true},
		{detector.LevelElevated, false},
		{detector.LevelNone, false},
	}
	for _, tt := range tests {
		if got := s.alertLevel(tt.level); got != tt.want {
			t.Errorf("alertLevel(%s) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestScannerWorkersFloor(t *testing.T) {
	s := NewScanner(config.ScannerConfig{Workers: 0},
		detector.NewDefault(), nil, nil, nil, nil, nil)
	if s.workers() != 1 {
		t.Errorf("zero workers must floor to 1, got %d", s.workers())
	}
}

func TestScannerBarCutoff(t *testing.T) {
	s := NewScanner(config.ScannerConfig{},
		detector.NewDefault(), nil, nil, nil, nil, nil)

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	cutoff := s.barCutoff(now)

	wantDays := detector.ScanLookbackDays + detector.PreContextDays
	if got := now.AddDate(0, 0, -wantDays); !cutoff.Equal(got) {
		t.Errorf("expected cutoff %v, got %v", got, cutoff)
	}
}
