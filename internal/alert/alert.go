// Package alert scans wave forecasts for threshold exceedances inside the
// configured opening hours and aggregates them into a single email per run.
package alert

import (
	"context"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"time"

	"waves-on-map-backend/config"
	"waves-on-map-backend/internal/met"
	"waves-on-map-backend/internal/model"
	"waves-on-map-backend/internal/store"
	"waves-on-map-backend/internal/timeutil"
)

// ForecastClient is the subset of the met client the alert service uses.
type ForecastClient interface {
	OceanForecast(ctx context.Context, lat, lon float64) (*met.OceanForecast, error)
	LocationForecast(ctx context.Context, lat, lon float64) (*met.LocationForecast, error)
}

// Service runs the wave alert scan.
type Service struct {
	cfg      *config.Config
	store    store.Store
	client   ForecastClient
	mailer   Mailer
	schedule *Schedule
	zone     *time.Location
}

// aggregate holds the exceedance report for one location.
type aggregate struct {
	Name        string
	Lat, Lon    float64
	ExceedCount int
	MaxHeight   float64
	FirstTime   time.Time
	TableText   string
	TableHTML   string
}

// NewService creates the alert service.
func NewService(cfg *config.Config, st store.Store, client ForecastClient, mailer Mailer) *Service {
	return &Service{
		cfg:      cfg,
		store:    st,
		client:   client,
		mailer:   mailer,
		schedule: ParseSchedule(cfg.Alert.OpeningHours),
		zone:     timeutil.LoadZone(cfg.Poller.Timezone),
	}
}

// Run scans every location and sends one aggregated email when any
// exceedances were found. No exceedances means no email.
func (s *Service) Run(ctx context.Context) error {
	locs, err := s.store.ListLocations(ctx, s.cfg.Alert.LimitLocations)
	if err != nil {
		return fmt.Errorf("failed to load locations: %w", err)
	}
	if len(locs) == 0 {
		log.Println("No locations found for alert scan.")
		return nil
	}

	var aggregates []aggregate
	totalExceed := 0
	for _, loc := range locs {
		log.Printf("Alert scan: processing %s (%.3f,%.3f)", loc.Name, loc.Latitude, loc.Longitude)
		agg, err := s.processLocation(ctx, loc)
		if err != nil {
			log.Printf("Error processing %s: %v", loc.Name, err)
			continue
		}
		if agg != nil {
			aggregates = append(aggregates, *agg)
			totalExceed += agg.ExceedCount
		}
	}

	if len(aggregates) == 0 {
		log.Println("No exceedances; no email sent.")
		return nil
	}

	subject, text, htmlBody := s.composeEmail(aggregates, totalExceed)
	return s.mailer.Send(subject, text, htmlBody)
}

// processLocation returns the aggregated exceedance data for a location, or
// nil when nothing exceeded its threshold inside opening hours.
func (s *Service) processLocation(ctx context.Context, loc model.Location) (*aggregate, error) {
	ocean, err := s.client.OceanForecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	weather, err := s.client.LocationForecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}

	threshold := s.cfg.Alert.WaveThreshold + loc.ExtraThresh
	waves := ocean.Points

	var exceedIdx []int
	for i, w := range waves {
		if w.WaveHeight >= threshold && s.schedule.Open(timeutil.ToLocal(w.Time, s.zone)) {
			exceedIdx = append(exceedIdx, i)
		}
	}
	if len(exceedIdx) == 0 {
		return nil, nil
	}

	// Merge ±windowRadius samples around every exceedance so each wave time
	// appears at most once.
	selected := map[int]bool{}
	for _, idx := range exceedIdx {
		for _, j := range windowIndices(idx, len(waves), s.cfg.Alert.WindowRadius) {
			selected[j] = true
		}
	}
	sortedIdx := make([]int, 0, len(selected))
	for j := range selected {
		sortedIdx = append(sortedIdx, j)
	}
	sort.Ints(sortedIdx)

	selectedWaves := make([]met.WavePoint, len(sortedIdx))
	for i, j := range sortedIdx {
		selectedWaves[i] = waves[j]
	}

	// Nearest weather sample per selected wave time, deduplicated by the
	// weather timestamp.
	weatherMap := map[time.Time]met.WeatherPoint{}
	for _, wv := range selectedWaves {
		if wt := nearestWeather(weather.Points, wv.Time); wt != nil {
			if _, seen := weatherMap[wt.Time]; !seen {
				weatherMap[wt.Time] = *wt
			}
		}
	}

	tableText, tableHTML := buildCombinedTable(selectedWaves, weatherMap, threshold, s.zone)

	maxHeight := waves[exceedIdx[0]].WaveHeight
	for _, i := range exceedIdx[1:] {
		if waves[i].WaveHeight > maxHeight {
			maxHeight = waves[i].WaveHeight
		}
	}

	return &aggregate{
		Name:        loc.Name,
		Lat:         loc.Latitude,
		Lon:         loc.Longitude,
		ExceedCount: len(exceedIdx),
		MaxHeight:   maxHeight,
		FirstTime:   waves[exceedIdx[0]].Time,
		TableText:   tableText,
		TableHTML:   tableHTML,
	}, nil
}

func (s *Service) composeEmail(aggregates []aggregate, totalExceed int) (subject, text, htmlBody string) {
	zoneName := s.cfg.Poller.Timezone
	subject = fmt.Sprintf("Wave Alerts · %d location(s) · %d exceedance(s) (>= %.2fm) [%s]",
		len(aggregates), totalExceed, s.cfg.Alert.WaveThreshold, zoneName)

	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].FirstTime.Before(aggregates[j].FirstTime)
	})

	sections := []string{
		fmt.Sprintf("Threshold: %.2f m", s.cfg.Alert.WaveThreshold),
		fmt.Sprintf("Opening hours spec: %s", orNA(s.cfg.Alert.OpeningHours)),
		fmt.Sprintf("Times shown in %s (converted from UTC)", zoneName),
		"",
	}
	htmlSections := []string{
		"<div style='background:#0b141b;padding:16px;font:14px system-ui,Arial,sans-serif;color:#dce8ef'>",
		"<h2 style='margin:0 0 10px;font:600 18px system-ui,Arial,sans-serif;color:#89d2ff'>Wave Alerts</h2>",
		fmt.Sprintf("<p style='margin:0 0 10px;font-size:12px;color:#9fb6c3'>Threshold: %.2f m<br>Opening hours: %s<br>Times in %s</p>",
			s.cfg.Alert.WaveThreshold, html.EscapeString(orNA(s.cfg.Alert.OpeningHours)), zoneName),
	}

	for _, agg := range aggregates {
		firstLocal := timeutil.ToLocal(agg.FirstTime, s.zone)
		sections = append(sections,
			fmt.Sprintf("=== %s (lat=%.4f, lon=%.4f) | exceedances=%d | max=%.2fm | first=%s ===",
				agg.Name, agg.Lat, agg.Lon, agg.ExceedCount, agg.MaxHeight, firstLocal.Format("2006-01-02 15:04")),
			"-- Waves + Weather (collocated) --",
			agg.TableText,
			"",
		)
		htmlSections = append(htmlSections,
			fmt.Sprintf("<h3 style='margin:20px 0 6px;font:600 15px system-ui,Arial,sans-serif;color:#d4f4ff'>%s · exceedances=%d · max=%.2fm · first=%s</h3>",
				html.EscapeString(agg.Name), agg.ExceedCount, agg.MaxHeight, firstLocal.Format("2006-01-02 15:04")),
			agg.TableHTML,
		)
	}
	htmlSections = append(htmlSections,
		"<p style='margin:18px 0 4px;font-size:11px;color:#6e8796'>Data: api.met.no (oceanforecast & locationforecast)</p>",
		"</div>",
	)

	return subject, strings.Join(sections, "\n"), strings.Join(htmlSections, "")
}

// windowIndices returns the index range [center-radius, center+radius]
// clipped to [0, total).
func windowIndices(center, total, radius int) []int {
	start := center - radius
	if start < 0 {
		start = 0
	}
	end := center + radius + 1
	if end > total {
		end = total
	}
	idx := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		idx = append(idx, i)
	}
	return idx
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

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
