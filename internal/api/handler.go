package api

import (
	"sync"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"waves-on-map-backend/config"
	"waves-on-map-backend/internal/alert"
	"waves-on-map-backend/internal/geo"
	"waves-on-map-backend/internal/store"
	"waves-on-map-backend/internal/timeutil"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	cfg     *config.Config
	store   store.Store
	client  alert.ForecastClient
	webpush *webpush.Options
	zone    *time.Location

	boundaryOnce sync.Once
	boundaries   *geo.FeatureCollection
	boundaryErr  error
}

// NewHandler creates a new API handler.
func NewHandler(cfg *config.Config, s store.Store, client alert.ForecastClient, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		cfg:     cfg,
		store:   s,
		client:  client,
		webpush: webpushOptions,
		zone:    timeutil.LoadZone(cfg.Poller.Timezone),
	}
}
