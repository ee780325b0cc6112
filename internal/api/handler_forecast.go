package api

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"waves-on-map-backend/internal/met"
)

// weatherMatchTolerance bounds how far apart a wave sample and its weather
// sample may be to appear on the same row.
const weatherMatchTolerance = 45 * time.Minute

// forecastRow is one interleaved wave+weather row. Wave fields are nil on
// weather-only rows; weather fields are nil when no sample matched in time.
type forecastRow struct {
	Time              time.Time `json:"time"`
	WaveHeight        *float64  `json:"waveHeight"`
	WaveFromDirection *float64  `json:"waveFromDirection"`
	WaterToDirection  *float64  `json:"waterToDirection"`
	WaterTemperature  *float64  `json:"waterTemperature"`
	WaterSpeed        *float64  `json:"waterSpeed"`

	SymbolCode        *string  `json:"symbolCode"`
	AirTemperature    *float64 `json:"airTemperature"`
	WindSpeed         *float64 `json:"windSpeed"`
	WindFromDirection *float64 `json:"windFromDirection"`
	CloudAreaFraction *float64 `json:"cloudAreaFraction"`
	RelativeHumidity  *float64 `json:"relativeHumidity"`
	Precipitation     *float64 `json:"precipitation"`
}

// GetForecast handles GET /api/locations/{location_id}/forecast. It fetches
// fresh forecasts and interleaves them: each wave sample is joined with the
// nearest unused weather sample within tolerance, and leftover weather-only
// samples are appended.
func (h *Handler) GetForecast(c *gin.Context) {
	locID, err := strconv.ParseInt(c.Param("location_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid location ID"})
		return
	}

	loc, err := h.store.GetLocation(c.Request.Context(), locID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		}
		return
	}

	ocean, err := h.client.OceanForecast(c.Request.Context(), loc.Latitude, loc.Longitude)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Unable to fetch ocean forecast", "details": err.Error()})
		return
	}
	weather, err := h.client.LocationForecast(c.Request.Context(), loc.Latitude, loc.Longitude)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Unable to fetch weather forecast", "details": err.Error()})
		return
	}

	rows := interleave(ocean.Points, weather.Points)

	c.JSON(http.StatusOK, gin.H{
		"location": loc,
		"updated":  ocean.UpdatedAt,
		"rows":     rows,
	})
}

// interleave joins wave samples with their nearest unused weather samples and
// appends the weather samples no wave row claimed.
func interleave(waves []met.WavePoint, weather []met.WeatherPoint) []forecastRow {
	unused := make(map[int]bool, len(weather))
	for i := range weather {
		unused[i] = true
	}

	match := func(t time.Time) *met.WeatherPoint {
		bestIdx := -1
		var bestDiff time.Duration
		for i := range weather {
			if !unused[i] {
				continue
			}
			diff := weather[i].Time.Sub(t)
			if diff < 0 {
				diff = -diff
			}
			if bestIdx < 0 || diff < bestDiff {
				bestIdx = i
				bestDiff = diff
			}
		}
		if bestIdx >= 0 && bestDiff <= weatherMatchTolerance {
			delete(unused, bestIdx)
			return &weather[bestIdx]
		}
		return nil
	}

	rows := make([]forecastRow, 0, len(waves)+len(weather))
	for _, wv := range waves {
		row := forecastRow{
			Time:              wv.Time,
			WaveHeight:        ptr(wv.WaveHeight),
			WaveFromDirection: ptr(wv.WaveFromDirection),
			WaterToDirection:  ptr(wv.WaterToDirection),
			WaterTemperature:  ptr(wv.WaterTemperature),
			WaterSpeed:        ptr(wv.WaterSpeed),
		}
		if wm := match(wv.Time); wm != nil {
			fillWeather(&row, *wm)
		}
		rows = append(rows, row)
	}

	leftovers := make([]int, 0, len(unused))
	for i := range unused {
		leftovers = append(leftovers, i)
	}
	sort.Ints(leftovers)
	for _, i := range leftovers {
		row := forecastRow{Time: weather[i].Time}
		fillWeather(&row, weather[i])
		rows = append(rows, row)
	}

	return rows
}

func fillWeather(row *forecastRow, w met.WeatherPoint) {
	if w.SymbolCode != "" {
		row.SymbolCode = &w.SymbolCode
	}
	row.AirTemperature = ptr(w.AirTemperature)
	row.WindSpeed = ptr(w.WindSpeed)
	row.WindFromDirection = ptr(w.WindFromDirection)
	row.CloudAreaFraction = ptr(w.CloudAreaFraction)
	row.RelativeHumidity = ptr(w.RelativeHumidity)
	if !math.IsNaN(w.PrecipitationAmount) {
		row.Precipitation = ptr(w.PrecipitationAmount)
	}
}

func ptr(v float64) *float64 {
	return &v
}
