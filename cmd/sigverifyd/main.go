package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-sigverify/internal/api"
	"github.com/0gfoundation/0g-sigverify/internal/auth"
	"github.com/0gfoundation/0g-sigverify/internal/config"
	"github.com/0gfoundation/0g-sigverify/internal/replay"
	"github.com/0gfoundation/0g-sigverify/internal/verifier"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis ─────────────────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("redis ping failed", zap.Error(err))
		}
		defer rdb.Close() //nolint:errcheck
	}

	if cfg.Replay.Enabled && !cfg.Verifier.Strict {
		log.Warn("replay protection without strict mode: a high-s twin of a consumed signature is accepted once more")
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: newRouter(cfg, rdb, log),
	}

	go func() {
		log.Info("HTTP server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("strict", cfg.Verifier.Strict),
			zap.Bool("replay", cfg.Replay.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// newRouter builds the gin engine. rdb may be nil, in which case replay
// protection and the signed-request routes are not mounted.
func newRouter(cfg *config.Config, rdb *redis.Client, log *zap.Logger) *gin.Engine {
	v := verifier.New(
		verifier.WithStrict(cfg.Verifier.Strict),
		verifier.WithMaxMessageSize(cfg.Verifier.MaxMessageSize),
		verifier.WithLogger(log),
	)

	// A nil *replay.Guard stored in the interface would not compare equal to nil.
	var guard api.ReplayGuard
	if cfg.Replay.Enabled && rdb != nil {
		guard = replay.NewGuard(rdb, time.Duration(cfg.Replay.TTLSec)*time.Second)
	}
	h := api.NewHandler(v, guard, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	h.Register(r.Group("/api"))

	if rdb != nil {
		window := time.Duration(cfg.Auth.MaxFutureWindowSec) * time.Second
		h.RegisterAuthed(r.Group("/api", auth.Middleware(v, rdb, window)))
	}
	return r
}
