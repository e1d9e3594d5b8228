package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog/storefront/internal/assets"
	"catalog/storefront/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(viper.New(), t.TempDir())
	require.NoError(t, err)
	cfg.Server.Port = 0
	return cfg
}

func TestNewWithMemoryBackend(t *testing.T) {
	app, err := New(memoryConfig(t))
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &assets.MemoryStore{}, app.Assets)
	assert.Nil(t, app.db)
	assert.Nil(t, app.redis)

	rec := httptest.NewRecorder()
	app.Server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunStopsWithContext(t *testing.T) {
	app, err := New(memoryConfig(t))
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.NoError(t, app.Run(ctx))
}
