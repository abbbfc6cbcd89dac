package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/click-relay/internal/capi"
	"github.com/ignite/click-relay/internal/config"
	"github.com/ignite/click-relay/internal/pkg/logger"
	"github.com/ignite/click-relay/internal/relay"
	"github.com/ignite/click-relay/internal/repository/postgres"

	_ "github.com/lib/pq" // PostgreSQL driver
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logger.DEBUG)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("ping database: %v", err)
	}
	pingCancel()

	var client *capi.Client
	if cfg.Meta.Configured() {
		client = capi.NewClient(capi.Config{
			PixelID:       cfg.Meta.PixelID,
			AccessToken:   cfg.Meta.AccessToken,
			TestEventCode: cfg.Meta.TestEventCode,
			BaseURL:       cfg.Meta.GraphBaseURL,
			Version:       cfg.Meta.GraphVersion,
			Timeout:       time.Duration(cfg.Meta.TimeoutSeconds) * time.Second,
		})
	} else {
		log.Println("WARNING: Meta CAPI credentials not configured, conversion dispatch disabled")
	}
	dispatcher := capi.NewDispatcher(client, 10*time.Second)

	filter := relay.NewAbuseFilter(cfg.Abuse.RateLimitWindow(), cfg.Abuse.DedupWindow(), cfg.Abuse.BotPatterns)
	handler := relay.NewHandler(
		postgres.NewVisitRepo(db),
		postgres.NewEventRepo(db),
		dispatcher,
		filter,
		cfg.CORS.AllowedOrigins,
		cfg.Meta.DefaultSourceURL,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		log.Printf("click relay listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down click relay...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	// Let in-flight conversion dispatches finish before exiting.
	if err := dispatcher.Drain(ctx); err != nil {
		log.Printf("conversion dispatch drain: %v", err)
	}
}
