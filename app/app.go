package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"divergence-radar/api"
	"divergence-radar/cache"
	"divergence-radar/config"
	"divergence-radar/database"
	"divergence-radar/database/bars"
	"divergence-radar/detector"
	"divergence-radar/notifications"
	"divergence-radar/realtime"
)

// App represents the main application
type App struct {
	config         *config.Config
	db             *database.Database
	barStore       *bars.DB
	redis          *cache.RedisClient
	scanRepo       *database.ScanRepository
	webhookManager *notifications.WebhookManager
	hub            *realtime.Hub
	scanner        *Scanner
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Start starts the application
func (a *App) Start() error {
	// 1. Database Connection (result store)
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	// 2. Bar store connection (raw read path)
	barStore, err := bars.NewConnection(bars.Config{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("bar store connection failed: %w", err)
	}
	a.barStore = barStore

	// 3. Redis Connection
	fmt.Println("🧠 Connecting to Redis...")
	redisClient := cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)

	if redisClient == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	} else {
		a.redis = redisClient
	}

	// 4. Initialize schema
	a.scanRepo = database.NewScanRepository(a.db)
	if err := a.scanRepo.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// 5. Webhook manager
	a.webhookManager = notifications.NewWebhookManager(a.scanRepo, a.redis)

	// 6. Realtime hub
	a.hub = realtime.NewHub()
	go a.hub.Run()

	// 7. Detector with optional YAML tuning
	params, err := config.LoadTuning(a.config.TuningFile)
	if err != nil {
		return fmt.Errorf("detector tuning failed: %w", err)
	}
	det := detector.New(params)

	// 8. Scanner loop
	a.scanner = NewScanner(a.config.Scanner, det, a.barStore, a.scanRepo,
		a.redis, a.hub, a.webhookManager)
	go a.scanner.Start()

	// 9. API server
	apiServer := api.NewServer(a.scanRepo, a.webhookManager, a.hub, a.redis)
	go func() {
		if err := apiServer.Start(a.config.APIPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	// 10. Wait for interrupt and perform graceful shutdown
	return a.gracefulShutdown()
}

// gracefulShutdown handles graceful shutdown with timeout
func (a *App) gracefulShutdown() error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	shutdownComplete := make(chan struct{})
	go func() {
		if a.scanner != nil {
			fmt.Println("📊 Stopping scanner...")
			a.scanner.Stop()
		}

		if a.hub != nil {
			fmt.Println("📡 Stopping realtime hub...")
			a.hub.Stop()
		}

		if a.barStore != nil {
			if err := a.barStore.Close(); err != nil {
				log.Printf("Error closing bar store: %v", err)
			}
		}

		if a.db != nil {
			if err := a.db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			} else {
				fmt.Println("✅ Database connection closed")
			}
		}

		if a.redis != nil {
			if err := a.redis.Close(); err != nil {
				log.Printf("Error closing redis: %v", err)
			} else {
				fmt.Println("✅ Redis connection closed")
			}
		}

		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		fmt.Println("✅ Graceful shutdown completed")
		return nil
	case <-time.After(10 * time.Second):
		fmt.Println("⚠️  Shutdown timeout exceeded, forcing exit")
		return fmt.Errorf("shutdown timeout")
	}
}
