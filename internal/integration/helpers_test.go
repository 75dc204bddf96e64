package integration

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sir_venger/upload_lite/internal/app/uploadhttp"
	"github.com/sir_venger/upload_lite/internal/config"
)

// startServer поднимает полноценный сервер загрузок поверх временного каталога.
func startServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *uploadhttp.Server, string) {
	t.Helper()

	cfg := config.Default()
	cfg.Upload.Dir = t.TempDir()
	cfg.GC.IntervalMin = 0
	if mutate != nil {
		mutate(cfg)
	}

	h, app, err := uploadhttp.NewServer(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	s := httptest.NewServer(h)
	t.Cleanup(s.Close)

	return s, app, cfg.Upload.Dir
}
