package main

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sir_venger/upload_lite/internal/config"
	meta "github.com/sir_venger/upload_lite/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	dsn := strings.TrimSpace(cfg.MetaDSN)
	if dsn == "" {
		logrus.Fatal("meta_dsn is not configured")
	}
	if strings.HasPrefix(dsn, "memory://") {
		logrus.Info("memory meta store selected, skipping migrations")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := meta.ApplyMigrations(ctx, dsn); err != nil {
		logrus.Fatal(err)
	}

	logrus.Info("migrations applied")
}
