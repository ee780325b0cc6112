package met

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Geometry is the GeoJSON point the forecast applies to. For coastal requests
// the API snaps to the nearest ocean point, so this may differ from the
// requested coordinates.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// WavePoint is one flattened entry of an oceanforecast timeseries.
type WavePoint struct {
	Time              time.Time
	WaveHeight        float64
	WaveFromDirection float64
	WaterSpeed        float64
	WaterTemperature  float64
	WaterToDirection  float64
}

// WeatherPoint is one flattened entry of a locationforecast timeseries.
// PrecipitationAmount is NaN when the entry carries no precipitation details;
// SymbolCode is empty when no next_*_hours block is present.
type WeatherPoint struct {
	Time                  time.Time
	AirPressureAtSeaLevel float64
	AirTemperature        float64
	CloudAreaFraction     float64
	RelativeHumidity      float64
	WindFromDirection     float64
	WindSpeed             float64
	PrecipitationAmount   float64
	SymbolCode            string
	TimeWindow            string // "1h", "6h" or "12h"
}

// OceanForecast is a parsed oceanforecast response.
type OceanForecast struct {
	Geometry  Geometry
	UpdatedAt time.Time
	Points    []WavePoint
}

// LocationForecast is a parsed locationforecast response.
type LocationForecast struct {
	Geometry  Geometry
	UpdatedAt time.Time
	Points    []WeatherPoint
}

// forecastEnvelope mirrors the MET Forecast GeoJSON wire format shared by
// oceanforecast and locationforecast.
type forecastEnvelope struct {
	Type       string   `json:"type"`
	Geometry   Geometry `json:"geometry"`
	Properties struct {
		Meta struct {
			UpdatedAt time.Time `json:"updated_at"`
		} `json:"meta"`
		Timeseries []timeseriesEntry `json:"timeseries"`
	} `json:"properties"`
}

type timeseriesEntry struct {
	Time time.Time `json:"time"`
	Data struct {
		Instant struct {
			Details map[string]float64 `json:"details"`
		} `json:"instant"`
		Next1Hours  *nextHours `json:"next_1_hours"`
		Next6Hours  *nextHours `json:"next_6_hours"`
		Next12Hours *nextHours `json:"next_12_hours"`
	} `json:"data"`
}

type nextHours struct {
	Summary struct {
		SymbolCode string `json:"symbol_code"`
	} `json:"summary"`
	Details map[string]float64 `json:"details"`
}

func parseOceanForecast(body []byte) (*OceanForecast, error) {
	var env forecastEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oceanforecast response: %w", err)
	}

	fc := &OceanForecast{
		Geometry:  env.Geometry,
		UpdatedAt: env.Properties.Meta.UpdatedAt,
		Points:    make([]WavePoint, 0, len(env.Properties.Timeseries)),
	}
	for _, ts := range env.Properties.Timeseries {
		d := ts.Data.Instant.Details
		if _, ok := d["sea_surface_wave_height"]; !ok {
			return nil, fmt.Errorf("oceanforecast entry at %s has no sea_surface_wave_height", ts.Time.Format(time.RFC3339))
		}
		fc.Points = append(fc.Points, WavePoint{
			Time:              ts.Time,
			WaveHeight:        d["sea_surface_wave_height"],
			WaveFromDirection: d["sea_surface_wave_from_direction"],
			WaterSpeed:        d["sea_water_speed"],
			WaterTemperature:  d["sea_water_temperature"],
			WaterToDirection:  d["sea_water_to_direction"],
		})
	}
	return fc, nil
}

func parseLocationForecast(body []byte) (*LocationForecast, error) {
	var env forecastEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal locationforecast response: %w", err)
	}

	fc := &LocationForecast{
		Geometry:  env.Geometry,
		UpdatedAt: env.Properties.Meta.UpdatedAt,
		Points:    make([]WeatherPoint, 0, len(env.Properties.Timeseries)),
	}
	for _, ts := range env.Properties.Timeseries {
		d := ts.Data.Instant.Details
		if _, ok := d["air_temperature"]; !ok {
			return nil, fmt.Errorf("locationforecast entry at %s has no air_temperature", ts.Time.Format(time.RFC3339))
		}

		p := WeatherPoint{
			Time:                  ts.Time,
			AirPressureAtSeaLevel: d["air_pressure_at_sea_level"],
			AirTemperature:        d["air_temperature"],
			CloudAreaFraction:     d["cloud_area_fraction"],
			RelativeHumidity:      d["relative_humidity"],
			WindFromDirection:     d["wind_from_direction"],
			WindSpeed:             d["wind_speed"],
			PrecipitationAmount:   math.NaN(),
		}

		var next *nextHours
		switch {
		case ts.Data.Next1Hours != nil:
			next, p.TimeWindow = ts.Data.Next1Hours, "1h"
		case ts.Data.Next6Hours != nil:
			next, p.TimeWindow = ts.Data.Next6Hours, "6h"
		case ts.Data.Next12Hours != nil:
			next, p.TimeWindow = ts.Data.Next12Hours, "12h"
		}
		if next != nil {
			p.SymbolCode = next.Summary.SymbolCode
			if amt, ok := next.Details["precipitation_amount"]; ok {
				p.PrecipitationAmount = amt
			}
		}
		fc.Points = append(fc.Points, p)
	}
	return fc, nil
}
