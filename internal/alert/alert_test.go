package alert

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"waves-on-map-backend/config"
	"waves-on-map-backend/internal/met"
	"waves-on-map-backend/internal/model"
	"waves-on-map-backend/internal/store"
)

// fakeForecastClient serves canned forecasts and records failures per location.
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

// recordingMailer captures the last email instead of sending it.
type recordingMailer struct {
	sent    int
	subject string
	text    string
	html    string
}

func (m *recordingMailer) Send(subject, textBody, htmlBody string) error {
	m.sent++
	m.subject = subject
	m.text = textBody
	m.html = htmlBody
	return nil
}

func newAlertTestStore(t *testing.T, name string) store.Store {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Location{}, &model.WaveHighlight{}, &model.WaveHighlightHistory{}))
	return store.NewGormStore(db)
}

func alertTestConfig(openingHours string) *config.Config {
	cfg := &config.Config{}
	cfg.Alert.WaveThreshold = 0.5
	cfg.Alert.WindowRadius = 1
	cfg.Alert.OpeningHours = openingHours
	cfg.Poller.Timezone = "UTC"
	return cfg
}

// hourlyWaves builds an hourly wave series starting at base with the given
// heights.
func hourlyWaves(base time.Time, heights ...float64) *met.OceanForecast {
	fc := &met.OceanForecast{UpdatedAt: base}
	for i, h := range heights {
		fc.Points = append(fc.Points, met.WavePoint{
			Time:              base.Add(time.Duration(i) * time.Hour),
			WaveHeight:        h,
			WaveFromDirection: 180,
			WaterTemperature:  14,
		})
	}
	return fc
}

func hourlyWeather(base time.Time, n int) *met.LocationForecast {
	fc := &met.LocationForecast{UpdatedAt: base}
	for i := 0; i < n; i++ {
		fc.Points = append(fc.Points, met.WeatherPoint{
			Time:           base.Add(time.Duration(i) * time.Hour),
			AirTemperature: 17,
			WindSpeed:      5,
			SymbolCode:     "fair_day",
			TimeWindow:     "1h",
		})
	}
	return fc
}

func TestAlertRun(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC) // Wednesday

	t.Run("no exceedances sends no email", func(t *testing.T) {
		st := newAlertTestStore(t, "alert_none")
		loc := model.Location{Name: "Malmøya-nord", Latitude: 59.8740, Longitude: 10.7449}
		require.NoError(t, st.CreateLocation(ctx, &loc))

		client := &fakeForecastClient{
			ocean:   map[string]*met.OceanForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWaves(base, 0.1, 0.2, 0.3)},
			weather: map[string]*met.LocationForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWeather(base, 3)},
		}
		mailer := &recordingMailer{}

		svc := NewService(alertTestConfig(""), st, client, mailer)
		require.NoError(t, svc.Run(ctx))
		assert.Equal(t, 0, mailer.sent)
	})

	t.Run("exceedance sends one aggregated email", func(t *testing.T) {
		st := newAlertTestStore(t, "alert_exceed")
		loc := model.Location{Name: "Malmøya-nord", Latitude: 59.8740, Longitude: 10.7449}
		require.NoError(t, st.CreateLocation(ctx, &loc))

		client := &fakeForecastClient{
			ocean:   map[string]*met.OceanForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWaves(base, 0.1, 0.2, 0.8, 0.3, 0.1)},
			weather: map[string]*met.LocationForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWeather(base, 5)},
		}
		mailer := &recordingMailer{}

		svc := NewService(alertTestConfig(""), st, client, mailer)
		require.NoError(t, svc.Run(ctx))
		require.Equal(t, 1, mailer.sent)

		assert.Equal(t, "Wave Alerts · 1 location(s) · 1 exceedance(s) (>= 0.50m) [UTC]", mailer.subject)
		assert.Contains(t, mailer.text, "Malmøya-nord")
		assert.Contains(t, mailer.text, "max=0.80m")
		assert.Contains(t, mailer.html, "Malmøya-nord")

		// WindowRadius 1 around the single exceedance selects rows 1..3.
		assert.Contains(t, mailer.text, "2026-08-26 11:00")
		assert.Contains(t, mailer.text, "2026-08-26 12:00")
		assert.Contains(t, mailer.text, "2026-08-26 13:00")
		assert.NotContains(t, mailer.text, "2026-08-26 10:00 ")
		assert.NotContains(t, mailer.text, "2026-08-26 14:00")
	})

	t.Run("exceedance outside opening hours is ignored", func(t *testing.T) {
		st := newAlertTestStore(t, "alert_hours")
		loc := model.Location{Name: "Nakkholmen-sør", Latitude: 59.8848, Longitude: 10.6953}
		require.NoError(t, st.CreateLocation(ctx, &loc))

		client := &fakeForecastClient{
			ocean:   map[string]*met.OceanForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWaves(base, 0.9, 0.9)},
			weather: map[string]*met.LocationForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWeather(base, 2)},
		}
		mailer := &recordingMailer{}

		// Waves peak at 10:00-11:00 UTC on a Wednesday; only weekends count.
		svc := NewService(alertTestConfig("Sa-Su 08:00-20:00"), st, client, mailer)
		require.NoError(t, svc.Run(ctx))
		assert.Equal(t, 0, mailer.sent)
	})

	t.Run("per-location offset raises the bar", func(t *testing.T) {
		st := newAlertTestStore(t, "alert_extra")
		loc := model.Location{Name: "Gåsøya-sør", Latitude: 59.8473, Longitude: 10.5795, ExtraThresh: 0.4}
		require.NoError(t, st.CreateLocation(ctx, &loc))

		client := &fakeForecastClient{
			ocean:   map[string]*met.OceanForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWaves(base, 0.8)},
			weather: map[string]*met.LocationForecast{coordKey(loc.Latitude, loc.Longitude): hourlyWeather(base, 1)},
		}
		mailer := &recordingMailer{}

		svc := NewService(alertTestConfig(""), st, client, mailer)
		require.NoError(t, svc.Run(ctx))
		assert.Equal(t, 0, mailer.sent, "0.8m is below the effective 0.9m threshold")
	})

	t.Run("failed fetch for one location does not block the rest", func(t *testing.T) {
		st := newAlertTestStore(t, "alert_partial")
		broken := model.Location{Name: "Broken", Latitude: 1, Longitude: 1}
		good := model.Location{Name: "Hovedøya", Latitude: 59.8940, Longitude: 10.7310}
		require.NoError(t, st.CreateLocation(ctx, &broken))
		require.NoError(t, st.CreateLocation(ctx, &good))

		client := &fakeForecastClient{
			ocean:   map[string]*met.OceanForecast{coordKey(good.Latitude, good.Longitude): hourlyWaves(base, 0.7)},
			weather: map[string]*met.LocationForecast{coordKey(good.Latitude, good.Longitude): hourlyWeather(base, 1)},
		}
		mailer := &recordingMailer{}

		svc := NewService(alertTestConfig(""), st, client, mailer)
		require.NoError(t, svc.Run(ctx))
		require.Equal(t, 1, mailer.sent)
		assert.Contains(t, mailer.text, "Hovedøya")
		assert.NotContains(t, mailer.text, "Broken")
	})
}

func TestWindowIndices(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5}, windowIndices(3, 10, 2))
	assert.Equal(t, []int{0, 1, 2}, windowIndices(0, 10, 2), "clips at the start")
	assert.Equal(t, []int{7, 8, 9}, windowIndices(9, 10, 2), "clips at the end")
	assert.Equal(t, []int{0}, windowIndices(0, 1, 3))
}

func TestBuildCombinedTable(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	waves := []met.WavePoint{
		{Time: base, WaveHeight: 0.3, WaveFromDirection: 180, WaterTemperature: 14.5, WaterSpeed: 0.1},
		{Time: base.Add(time.Hour), WaveHeight: 0.9, WaveFromDirection: 200, WaterTemperature: 14.4, WaterSpeed: 0.2},
	}
	weather := map[time.Time]met.WeatherPoint{
		base: {Time: base, AirTemperature: 18.2, WindSpeed: 4.5, WindFromDirection: 190, SymbolCode: "lightrain", PrecipitationAmount: 0.4},
	}

	text, html := buildCombinedTable(waves, weather, 0.5, time.UTC)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 4, "header, separator and one line per wave")
	assert.Contains(t, lines[2], "2026-08-26 12:00")
	assert.Contains(t, lines[2], "0.30")
	assert.Contains(t, lines[2], "lightrain")
	assert.Contains(t, lines[3], "0.90")

	assert.Contains(t, html, "2026-08-26 13:00")
	assert.Contains(t, html, "font-weight:600", "rows at or above the threshold are highlighted")
}

func TestBuildCombinedTableWithoutWeather(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	waves := []met.WavePoint{{Time: base, WaveHeight: 0.6}}

	text, _ := buildCombinedTable(waves, map[time.Time]met.WeatherPoint{}, 0.5, time.UTC)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "-", "missing weather renders as dashes")
}
