package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/court-session-api/api/handlers"
	"github.com/linesmerrill/court-session-api/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	conf, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := handlers.App{Config: *conf}
	if err := a.Initialize(ctx); err != nil { //initialize database, relays and router
		zap.S().Fatalw("failed to initialize court-session-api", "error", err)
	}

	// cancelled on shutdown so open sockets and transcriptions unwind
	serveCtx, cancelServe := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", conf.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return serveCtx },
	}

	go func() {
		zap.S().Infow("court-session-api is up and running",
			"port", conf.Port,
			"url", conf.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	zap.S().Info("shutting down court-session-api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	cancelServe()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Warnw("server shutdown incomplete", "error", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		zap.S().Warnw("failed to release resources", "error", err)
	}
	_ = zap.L().Sync()
}
