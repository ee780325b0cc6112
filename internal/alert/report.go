package alert

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"waves-on-map-backend/internal/met"
	"waves-on-map-backend/internal/timeutil"
)

// buildCombinedTable renders the selected wave samples collocated with their
// nearest weather samples, once as a plaintext table for the text/plain email
// part and once as an inline-CSS HTML table for mail clients. HTML rows at or
// above the threshold are highlighted.
func buildCombinedTable(waves []met.WavePoint, weather map[time.Time]met.WeatherPoint, threshold float64, zone *time.Location) (string, string) {
	textLines := []string{
		"Time | H(m) | From° | To° | WaterT°C | Current m/s | Sym | AirT°C | Wind m/s | WindFrom° | Cloud% | RH% | Precip mm",
		"-----|------|-------|-----|----------|-------------|-----|--------|----------|-----------|--------|-----|----------",
	}

	htmlParts := []string{
		"<table cellpadding='0' cellspacing='0' border='0' style='border-collapse:collapse;width:100%;max-width:980px;font:12px/1.35 system-ui,Arial,sans-serif;border:1px solid #1d2731;background:#0f1a22;'>",
		"<thead><tr style='background:#16232d;color:#f2f8fc;'>" +
			"<th style='padding:6px 8px;text-align:left;'>Time</th>" +
			"<th style='padding:6px 8px;text-align:right;'>H(m)</th>" +
			"<th style='padding:6px 8px;text-align:right;'>From°</th>" +
			"<th style='padding:6px 8px;text-align:right;'>To°</th>" +
			"<th style='padding:6px 8px;text-align:right;'>WaterT°C</th>" +
			"<th style='padding:6px 8px;text-align:right;'>Current</th>" +
			"<th style='padding:6px 8px;text-align:center;'>Sym</th>" +
			"<th style='padding:6px 8px;text-align:right;'>AirT°C</th>" +
			"<th style='padding:6px 8px;text-align:right;'>Wind</th>" +
			"<th style='padding:6px 8px;text-align:right;'>WindFrom°</th>" +
			"<th style='padding:6px 8px;text-align:right;'>Cloud%</th>" +
			"<th style='padding:6px 8px;text-align:right;'>RH%</th>" +
			"<th style='padding:6px 8px;text-align:right;'>Precip</th>" +
			"</tr></thead><tbody>",
	}

	for idx, wv := range waves {
		wt := nearestInMap(weather, wv.Time)
		ldt := timeutil.ToLocal(wv.Time, zone)

		textLines = append(textLines, fmt.Sprintf(
			"%s | %.2f | %.0f | %.0f | %.1f | %.2f | %3s | %6s | %8s | %9s | %6s | %3s | %9s",
			ldt.Format("2006-01-02 15:04"),
			wv.WaveHeight,
			wv.WaveFromDirection,
			wv.WaterToDirection,
			wv.WaterTemperature,
			wv.WaterSpeed,
			symbolOrDash(wt),
			weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.1f", w.AirTemperature) }),
			weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.1f", w.WindSpeed) }),
			weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.0f", w.WindFromDirection) }),
			weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.0f", w.CloudAreaFraction) }),
			weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.0f", w.RelativeHumidity) }),
			weatherCell(wt, func(w met.WeatherPoint) string { return fmtPrecip(w.PrecipitationAmount) }),
		))

		zebra := "#121e27"
		if idx%2 != 0 {
			zebra = "#0f1a22"
		}
		rowStyle := fmt.Sprintf("background:%s;", zebra)
		if wv.WaveHeight >= threshold {
			rowStyle = "background:#1f2f3a;font-weight:600;"
		}

		row := "<tr style='" + rowStyle + "'>" +
			td(ldt.Format("2006-01-02 15:04"), "left") +
			td(fmt.Sprintf("%.2f", wv.WaveHeight), "right") +
			td(fmt.Sprintf("%.0f", wv.WaveFromDirection), "right") +
			td(fmt.Sprintf("%.0f", wv.WaterToDirection), "right") +
			td(fmt.Sprintf("%.1f", wv.WaterTemperature), "right") +
			td(fmt.Sprintf("%.2f", wv.WaterSpeed), "right") +
			td(symbolOrDash(wt), "center") +
			td(weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.1f", w.AirTemperature) }), "right") +
			td(weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.1f", w.WindSpeed) }), "right") +
			td(weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.0f", w.WindFromDirection) }), "right") +
			td(weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.0f", w.CloudAreaFraction) }), "right") +
			td(weatherCell(wt, func(w met.WeatherPoint) string { return fmt.Sprintf("%.0f", w.RelativeHumidity) }), "right") +
			td(weatherCell(wt, func(w met.WeatherPoint) string { return fmtPrecip(w.PrecipitationAmount) }), "right") +
			"</tr>"
		htmlParts = append(htmlParts, row)
	}

	htmlParts = append(htmlParts, "</tbody></table>")
	return strings.Join(textLines, "\n"), strings.Join(htmlParts, "")
}

func td(val, align string) string {
	return fmt.Sprintf(
		"<td style='padding:5px 8px;text-align:%s;border-bottom:1px solid #1d2731;color:#e6edf3;white-space:nowrap;'>%s</td>",
		align, html.EscapeString(val),
	)
}

func nearestInMap(weather map[time.Time]met.WeatherPoint, t time.Time) *met.WeatherPoint {
	var best *met.WeatherPoint
	var bestDiff time.Duration
	for wt := range weather {
		diff := wt.Sub(t)
		if diff < 0 {
			diff = -diff
		}
		if best == nil || diff < bestDiff {
			w := weather[wt]
			best = &w
			bestDiff = diff
		}
	}
	return best
}

func symbolOrDash(wt *met.WeatherPoint) string {
	if wt == nil || wt.SymbolCode == "" {
		return "-"
	}
	return wt.SymbolCode
}

func weatherCell(wt *met.WeatherPoint, format func(met.WeatherPoint) string) string {
	if wt == nil {
		return "-"
	}
	return format(*wt)
}

func fmtPrecip(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
