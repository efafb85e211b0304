package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"divergence-radar/detector"
)

// Tuning holds detector parameter overrides loaded from a YAML file.
// Zero values fall back to the detector defaults.
type Tuning struct {
	MaxZones         int `yaml:"max_zones"`
	ScanLookbackDays int `yaml:"scan_lookback_days"`
	PreContextDays   int `yaml:"pre_context_days"`
	MinTotalBars     int `yaml:"min_total_bars"`
	MinScanBars      int `yaml:"min_scan_bars"`
	MinScanDays      int `yaml:"min_scan_days"`
}

// LoadTuning reads detector tuning from a YAML file. An empty path or a
// missing file yields the defaults.
func LoadTuning(path string) (detector.Params, error) {
	params := detector.DefaultParams()
	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return params, nil
		}
		return params, fmt.Errorf("read tuning file: %w", err)
	}

	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return params, fmt.Errorf("parse tuning file: %w", err)
	}

	if t.MaxZones > 0 {
		params.MaxZones = t.MaxZones
	}
	if t.ScanLookbackDays > 0 {
		params.ScanLookbackDays = t.ScanLookbackDays
	}
	if t.PreContextDays > 0 {
		params.PreContextDays = t.PreContextDays
	}
	if t.MinTotalBars > 0 {
		params.MinTotalBars = t.MinTotalBars
	}
	if t.MinScanBars > 0 {
		params.MinScanBars = t.MinScanBars
	}
	if t.MinScanDays > 0 {
		params.MinScanDays = t.MinScanDays
	}
	return params, nil
}
