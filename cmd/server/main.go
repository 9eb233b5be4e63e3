package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grocerymis/internal/config"
	httpapi "grocerymis/internal/http"
	"grocerymis/internal/ledger"
	"grocerymis/internal/logging"
	"grocerymis/internal/sequence"
	"grocerymis/internal/service"
	"grocerymis/internal/session"
	"grocerymis/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	st, err := store.OpenBolt(cfg.Store.Path)
	if err != nil {
		logger.Fatal("store error", zap.Error(err))
	}
	defer st.Close()

	seq := sequence.New(st)
	eng := ledger.New(st, logger)
	svc := service.New(st, seq, eng, logger)
	sessions := session.New(st)
	handler := httpapi.NewHandler(svc, sessions, logger)
	router := httpapi.NewRouter(handler, logger)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Path))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Warn("force close failed", zap.Error(closeErr))
		}
	}
}
