package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cafe-ordering/config"
	"github.com/yeremiapane/cafe-ordering/database"
	"github.com/yeremiapane/cafe-ordering/router"
	"github.com/yeremiapane/cafe-ordering/services"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	utils.InitLoggerWithLevel(cfg.LogLevel)

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	if err := database.SeedAdmin(db, cfg.SeedAdmin.Email, cfg.SeedAdmin.Password); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed admin: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()

	var throttle services.RefreshThrottle
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			utils.ErrorLogger.Warnf("Redis unavailable at %s, refresh throttle falls back to memory: %v", cfg.RedisAddr, err)
		} else {
			throttle = services.NewRedisThrottle(rdb, cfg.RefreshCooldown)
			utils.InfoLogger.Printf("Refresh throttle backed by Redis at %s", cfg.RedisAddr)
		}
	}

	deps := router.NewDeps(db, cfg, clock, throttle)

	if cfg.NotifierEnabled {
		sink, closeSink := alertSink(cfg, db)
		defer closeSink()
		notifier := services.NewChangeNotifier(deps.Orders, deps.Calls, sink, clock, services.NotifierConfig{
			Interval:        cfg.NotifierInterval,
			SummaryCooldown: cfg.SummaryCooldown,
		})
		notifier.Start(ctx)
		defer notifier.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	<-ctx.Done()
	utils.InfoLogger.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}

// alertSink logs every alert, stores it for the dashboard and, when brokers
// are configured, publishes it to Kafka. The returned func flushes and closes
// the Kafka writer and must run after the notifier stops.
func alertSink(cfg config.Config, db *gorm.DB) (services.AlertSink, func()) {
	sinks := services.MultiSink{services.LogSink{}, services.NewNotificationSink(db)}
	if len(cfg.KafkaBrokers) == 0 {
		return sinks, func() {}
	}
	writer := services.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaAlertTopic)
	sinks = append(sinks, services.NewKafkaSink(writer))
	utils.InfoLogger.Printf("Publishing alerts to Kafka topic %s", cfg.KafkaAlertTopic)
	return sinks, func() {
		if err := writer.Close(); err != nil {
			utils.ErrorLogger.Printf("Closing Kafka writer: %v", err)
		}
	}
}
