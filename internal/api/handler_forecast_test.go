package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waves-on-map-backend/internal/met"
	"waves-on-map-backend/internal/model"
)

func TestGetForecast(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		router, _ := newTestRouter(t, "fc_badid", nil, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/locations/abc/forecast", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("404 for an unknown location", func(t *testing.T) {
		router, _ := newTestRouter(t, "fc_unknown", nil, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/locations/999/forecast", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("502 when the upstream fetch fails", func(t *testing.T) {
		router, st := newTestRouter(t, "fc_upstream", &fakeForecastClient{}, nil)
		loc := model.Location{Name: "spot", Latitude: 59.9, Longitude: 10.7}
		require.NoError(t, st.DB().Create(&loc).Error)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/locations/%d/forecast", loc.ID), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("returns interleaved rows", func(t *testing.T) {
		client := &fakeForecastClient{
			ocean: map[string]*met.OceanForecast{coordKey(59.9, 10.7): {
				UpdatedAt: base,
				Points: []met.WavePoint{
					{Time: base, WaveHeight: 0.4, WaveFromDirection: 180, WaterTemperature: 14.5},
					{Time: base.Add(time.Hour), WaveHeight: 0.7, WaveFromDirection: 190, WaterTemperature: 14.4},
				},
			}},
			weather: map[string]*met.LocationForecast{coordKey(59.9, 10.7): {
				UpdatedAt: base,
				Points: []met.WeatherPoint{
					{Time: base, AirTemperature: 18.3, WindSpeed: 5.4, SymbolCode: "lightrain", PrecipitationAmount: 0.3},
					{Time: base.Add(48 * time.Hour), AirTemperature: 16.0, WindSpeed: 7.1, PrecipitationAmount: math.NaN()},
				},
			}},
		}
		router, st := newTestRouter(t, "fc_rows", client, nil)
		loc := model.Location{Name: "spot", Latitude: 59.9, Longitude: 10.7}
		require.NoError(t, st.DB().Create(&loc).Error)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", fmt.Sprintf("/api/locations/%d/forecast", loc.ID), nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Location model.Location `json:"location"`
			Updated  time.Time      `json:"updated"`
			Rows     []struct {
				Time           time.Time `json:"time"`
				WaveHeight     *float64  `json:"waveHeight"`
				AirTemperature *float64  `json:"airTemperature"`
				SymbolCode     *string   `json:"symbolCode"`
				Precipitation  *float64  `json:"precipitation"`
			} `json:"rows"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		assert.Equal(t, loc.ID, response.Location.ID)
		assert.Equal(t, base, response.Updated.UTC())
		require.Len(t, response.Rows, 3, "two wave rows plus one unmatched weather row")

		joined := response.Rows[0]
		require.NotNil(t, joined.WaveHeight)
		assert.Equal(t, 0.4, *joined.WaveHeight)
		require.NotNil(t, joined.AirTemperature, "weather within tolerance joins the wave row")
		assert.Equal(t, 18.3, *joined.AirTemperature)
		require.NotNil(t, joined.SymbolCode)
		assert.Equal(t, "lightrain", *joined.SymbolCode)

		waveOnly := response.Rows[1]
		require.NotNil(t, waveOnly.WaveHeight)
		assert.Nil(t, waveOnly.AirTemperature, "no weather sample within tolerance")

		weatherOnly := response.Rows[2]
		assert.Nil(t, weatherOnly.WaveHeight)
		require.NotNil(t, weatherOnly.AirTemperature)
		assert.Equal(t, 16.0, *weatherOnly.AirTemperature)
		assert.Nil(t, weatherOnly.Precipitation, "NaN precipitation serializes as null")
	})
}

func TestInterleave(t *testing.T) {
	base := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	t.Run("each weather sample is used at most once", func(t *testing.T) {
		waves := []met.WavePoint{
			{Time: base, WaveHeight: 0.3},
			{Time: base.Add(10 * time.Minute), WaveHeight: 0.4},
		}
		weather := []met.WeatherPoint{
			{Time: base, AirTemperature: 18, PrecipitationAmount: math.NaN()},
		}

		rows := interleave(waves, weather)
		require.Len(t, rows, 2)
		assert.NotNil(t, rows[0].AirTemperature)
		assert.Nil(t, rows[1].AirTemperature, "the single weather sample was claimed by the first wave")
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Empty(t, interleave(nil, nil))

		rows := interleave(nil, []met.WeatherPoint{{Time: base, AirTemperature: 15, PrecipitationAmount: math.NaN()}})
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].WaveHeight)
	})

	t.Run("leftover weather keeps the series order", func(t *testing.T) {
		weather := []met.WeatherPoint{
			{Time: base, PrecipitationAmount: math.NaN()},
			{Time: base.Add(time.Hour), PrecipitationAmount: math.NaN()},
			{Time: base.Add(2 * time.Hour), PrecipitationAmount: math.NaN()},
		}
		rows := interleave(nil, weather)
		require.Len(t, rows, 3)
		assert.Equal(t, base, rows[0].Time)
		assert.Equal(t, base.Add(2*time.Hour), rows[2].Time)
	})
}
