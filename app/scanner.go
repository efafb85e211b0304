package app

import (
	"context"
	"log"
	"sync"
	"time"

	"divergence-radar/cache"
	"divergence-radar/config"
	"divergence-radar/database"
	"divergence-radar/detector"
	"divergence-radar/notifications"
	"divergence-radar/realtime"
)

// BarSource supplies minute bars to the scanner.
type BarSource interface {
	FetchMinuteBars(ctx context.Context, symbol string, since time.Time) ([]detector.MinuteBar, error)
	ActiveSymbols(ctx context.Context, since time.Time) ([]string, error)
}

// Scanner runs the periodic detection sweep over the symbol universe.
type Scanner struct {
	cfg      config.ScannerConfig
	det      *detector.Detector
	bars     BarSource
	repo     *database.ScanRepository
	redis    *cache.RedisClient
	hub      *realtime.Hub
	webhooks *notifications.WebhookManager
	done     chan bool
}

// NewScanner creates a new scanner. redis, hub and webhooks may be nil;
// the corresponding side effects are skipped.
func NewScanner(cfg config.ScannerConfig, det *detector.Detector, bars BarSource,
	repo *database.ScanRepository, redis *cache.RedisClient,
	hub *realtime.Hub, webhooks *notifications.WebhookManager) *Scanner {
	return &Scanner{
		cfg:      cfg,
		det:      det,
		bars:     bars,
		repo:     repo,
		redis:    redis,
		hub:      hub,
		webhooks: webhooks,
		done:     make(chan bool),
	}
}

// Start begins the scan loop
func (s *Scanner) Start() {
	log.Printf("📊 Divergence scanner started (every %d minutes, %d workers)",
		s.cfg.IntervalMinutes, s.workers())

	ticker := time.NewTicker(time.Duration(s.cfg.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run immediately on start
	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-s.done:
			log.Println("📊 Divergence scanner stopped")
			return
		}
	}
}

// Stop gracefully stops the scanner
func (s *Scanner) Stop() {
	close(s.done)
}

func (s *Scanner) workers() int {
	if s.cfg.Workers <= 0 {
		return 1
	}
	return s.cfg.Workers
}

// barCutoff is the oldest bar time a scan can use: the scan lookback plus
// the pre-context window.
func (s *Scanner) barCutoff(now time.Time) time.Time {
	params := s.det.Params()
	return now.AddDate(0, 0, -(params.ScanLookbackDays + params.PreContextDays))
}

// runSweep scans every symbol in the universe with a bounded worker pool.
func (s *Scanner) runSweep(ctx context.Context) {
	start := time.Now()
	cutoff := s.barCutoff(start)

	symbols := s.cfg.Symbols
	if len(symbols) == 0 {
		var err error
		symbols, err = s.bars.ActiveSymbols(ctx, cutoff)
		if err != nil {
			log.Printf("❌ Error listing active symbols: %v", err)
			return
		}
	}
	if len(symbols) == 0 {
		log.Println("⚠️  No symbols to scan")
		return
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	detected := 0

	for w := 0; w < s.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if result := s.scanSymbol(ctx, symbol, cutoff); result != nil && result.Detected {
					mu.Lock()
					detected++
					mu.Unlock()
				}
			}
		}()
	}

	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case <-s.done:
			close(jobs)
			wg.Wait()
			return
		case jobs <- symbol:
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("✅ Sweep complete: %d/%d symbols with accumulation zones in %v",
		detected, len(symbols), time.Since(start).Round(time.Millisecond))
}

// scanSymbol runs the detector for one symbol and fans the result out to
// the store, cache, websocket hub and webhooks.
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, cutoff time.Time) *detector.Result {
	bars, err := s.bars.FetchMinuteBars(ctx, symbol, cutoff)
	if err != nil {
		log.Printf("❌ Error fetching bars for %s: %v", symbol, err)
		return nil
	}

	result := s.det.Detect(symbol, bars)

	row, err := s.repo.SaveResult(result, time.Now())
	if err != nil {
		log.Printf("❌ Error saving scan result for %s: %v", symbol, err)
		return result
	}

	if s.redis != nil {
		if err := s.redis.CacheLatestScan(ctx, symbol, result); err != nil {
			log.Printf("⚠️  Failed to cache scan result for %s: %v", symbol, err)
		}
		_ = s.redis.PublishScanEvent(ctx, result)
	}

	if s.hub != nil {
		s.hub.BroadcastScan(symbol, result)
	}

	if result.Detected {
		log.Printf("📈 %s: %s", symbol, result.Status)
	}

	if s.webhooks != nil && s.alertLevel(result.Proximity.Level) {
		s.webhooks.SendAlert(row, result)
	}

	return result
}

func (s *Scanner) alertLevel(level string) bool {
	for _, l := range s.cfg.AlertLevels {
		if l == level {
			return true
		}
	}
	return false
}
