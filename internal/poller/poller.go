// Package poller periodically refreshes forecasts for all tracked locations
// and persists the per-location wave highlights.
package poller

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"waves-on-map-backend/config"
	"waves-on-map-backend/internal/met"
	"waves-on-map-backend/internal/model"
	"waves-on-map-backend/internal/notification"
	"waves-on-map-backend/internal/store"
)

// Service orchestrates the forecast polling process.
type Service struct {
	cfg        *config.Config
	store      store.Store
	client     *met.Client
	workerPool *notification.WorkerPool
}

// NewService creates and initializes a new poller service.
func NewService(cfg *config.Config, st store.Store) *Service {
	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	return &Service{
		cfg:        cfg,
		store:      st,
		client:     met.NewClient(&cfg.Met),
		workerPool: notification.NewWorkerPool(cfg.WorkerPool.Size, st.DB(), &webpushOptions),
	}
}

// Client exposes the met client so API handlers reuse its response cache.
func (s *Service) Client() *met.Client {
	return s.client
}

// Run starts the polling loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Poller.Enabled {
		log.Println("Poller is disabled. Not starting.")
		return
	}
	log.Println("Starting forecast poller...")

	s.workerPool.Start(ctx)

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.Poller.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Forecast poller shutting down.")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.Poller.Interval)
		}
	}
}

// PollOnce refreshes forecasts for every location and persists the
// highlights. A failed fetch for one location is logged and skipped; existing
// state is never cleared on upstream failure.
func (s *Service) PollOnce(ctx context.Context) {
	log.Println("Executing poll cycle...")
	now := time.Now().UTC()

	locs, err := s.store.ListLocations(ctx, 0)
	if err != nil {
		log.Printf("Error listing locations: %v", err)
		return
	}

	var updates []store.HighlightUpdate
	for _, loc := range locs {
		ocean, err := s.client.OceanForecast(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			log.Printf("Error fetching ocean forecast for %s: %v", loc.Name, err)
			continue
		}
		weather, err := s.client.LocationForecast(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			log.Printf("Error fetching weather forecast for %s: %v", loc.Name, err)
			continue
		}

		hl, ok := ComputeHighlight(ocean.Points, weather.Points)
		if !ok {
			log.Printf("No wave samples for %s, skipping", loc.Name)
			continue
		}
		updates = append(updates, store.HighlightUpdate{Location: loc, Highlight: hl})
	}

	if len(updates) == 0 {
		log.Println("Poll cycle finished: no highlights to persist.")
		return
	}

	notifyIDs, err := s.store.UpdateHighlights(ctx, now, updates, s.threshold)
	if err != nil {
		log.Printf("Error persisting highlights: %v", err)
		return
	}

	if len(notifyIDs) > 0 {
		log.Printf("Dispatching notifications for %d locations", len(notifyIDs))
		for _, id := range notifyIDs {
			s.workerPool.Dispatch(id)
		}
	}

	log.Println("Poll cycle finished.")
}

// threshold is the alert threshold for a location: the global threshold plus
// the location's own offset.
func (s *Service) threshold(loc model.Location) float64 {
	return s.cfg.Alert.WaveThreshold + loc.ExtraThresh
}

// ComputeHighlight picks the wave sample with the greatest height and
// attaches the wind speed of the nearest-in-time weather sample.
func ComputeHighlight(waves []met.WavePoint, weather []met.WeatherPoint) (model.WaveHighlight, bool) {
	if len(waves) == 0 {
		return model.WaveHighlight{}, false
	}

	maxWave := waves[0]
	for _, w := range waves[1:] {
		if w.WaveHeight > maxWave.WaveHeight {
			maxWave = w
		}
	}

	var windSpeed float64 = math.NaN()
	if wp := nearestWeather(weather, maxWave.Time); wp != nil {
		windSpeed = wp.WindSpeed
	}

	return model.WaveHighlight{
		Time:              maxWave.Time,
		WaveHeight:        maxWave.WaveHeight,
		WaveFromDirection: maxWave.WaveFromDirection,
		WaterSpeed:        maxWave.WaterSpeed,
		WaterTemperature:  maxWave.WaterTemperature,
		WaterToDirection:  maxWave.WaterToDirection,
		WindSpeed:         windSpeed,
	}, true
}

func nearestWeather(points []met.WeatherPoint, t time.Time) *met.WeatherPoint {
	var best *met.WeatherPoint
	var bestDiff time.Duration
	for i := range points {
		diff := points[i].Time.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < bestDiff {
			best = &points[i]
			bestDiff = diff
		}
	}
	return best
}
