package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sir_venger/upload_lite/internal/app/uploadhttp"
	"github.com/sir_venger/upload_lite/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}
	log := logrus.NewEntry(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, app, err := uploadhttp.NewServer(ctx, cfg, log)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	server := &http.Server{Addr: cfg.ListenAddr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("shutdown error: %v", err)
		}
	}()

	log.WithField("addr", cfg.ListenAddr).
		WithField("gc_ttl_h", cfg.GC.TTLHours).
		WithField("gc_every_min", cfg.GC.IntervalMin).
		Info("UPLOAD listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
		return
	}
	log.Info("UPLOAD stopped")
}
