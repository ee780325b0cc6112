package api

import (
	"context"
	"fmt"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waves-on-map-backend/config"
	"waves-on-map-backend/internal/met"
	"waves-on-map-backend/internal/model"
	"waves-on-map-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeForecastClient serves canned forecasts keyed by coordinates.
type fakeForecastClient struct {
	ocean   map[string]*met.OceanForecast
	weather map[string]*met.LocationForecast
}

func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f/%.4f", lat, lon)
}

func (f *fakeForecastClient) OceanForecast(ctx context.Context, lat, lon float64) (*met.OceanForecast, error) {
	fc, ok := f.ocean[coordKey(lat, lon)]
	if !ok {
		return nil, fmt.Errorf("no ocean forecast for %.4f/%.4f", lat, lon)
	}
	return fc, nil
}

func (f *fakeForecastClient) LocationForecast(ctx context.Context, lat, lon float64) (*met.LocationForecast, error) {
	fc, ok := f.weather[coordKey(lat, lon)]
	if !ok {
		return nil, fmt.Errorf("no weather forecast for %.4f/%.4f", lat, lon)
	}
	return fc, nil
}

func apiTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Poller.Timezone = "UTC"
	cfg.Map.CenterLat = 59.8739721
	cfg.Map.CenterLon = 10.7449325
	return cfg
}

func newAPITestStore(t *testing.T, name string) store.Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&model.Location{}, &model.WaveHighlight{}, &model.WaveHighlightHistory{}, &model.PushSubscription{},
	))
	return store.NewGormStore(db)
}

func newTestRouter(t *testing.T, name string, client *fakeForecastClient, webpushOptions *webpush.Options) (*gin.Engine, store.Store) {
	st := newAPITestStore(t, name)
	if client == nil {
		client = &fakeForecastClient{}
	}
	router := NewRouter(apiTestConfig(), st, client, webpushOptions)
	return router, st
}
