package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"service-attendance/internal/app"
	"service-attendance/internal/cache"
	"service-attendance/internal/config"
	servicemigrations "service-attendance/migrations"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)

	_ = godotenv.Load()
	cfg := config.Load()

	debugEnabled := cfg.DebugEnabled()
	debugf := func(format string, args ...any) {
		if debugEnabled {
			logger.Printf("[DEBUG] "+format, args...)
		}
	}

	debugf("config loaded: http_addr=%s directory_base_url=%s redis_addr=%s live_cache_ttl=%s notice_poll_interval=%s",
		cfg.HTTPAddr,
		cfg.DirectoryBaseURL,
		cfg.RedisAddr,
		cfg.LiveCacheTTL,
		cfg.NoticePollInterval,
	)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logger.Fatalf("failed to connect to database: %v", err)
	}
	debugf("database connection successful")

	if err := servicemigrations.Up(db); err != nil {
		logger.Fatalf("failed to run migrations: %v", err)
	}
	debugf("migrations completed successfully")

	redisCache := cache.New(cfg.RedisAddr)
	defer redisCache.Close()
	if !redisCache.Healthy(context.Background()) {
		logger.Printf("warning: redis not reachable at %s", cfg.RedisAddr)
	}

	application := app.New(db, cfg, redisCache)
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startNoticeLoop(shutdownCtx, application, cfg.NoticePollInterval, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Printf("service-attendance listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http server error: %v", err)
	}
}

func startNoticeLoop(ctx context.Context, application *app.App, interval time.Duration, logger *log.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		if _, err := application.DrainNotices(context.Background()); err != nil {
			logger.Printf("notice drain error: %v", err)
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				drained, err := application.DrainNotices(context.Background())
				if err != nil {
					logger.Printf("notice drain error: %v", err)
					continue
				}
				if drained > 0 {
					logger.Printf("delivered %d timetable notices", drained)
				}
			}
		}
	}()
}
