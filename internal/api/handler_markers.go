package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"waves-on-map-backend/internal/colormap"
	"waves-on-map-backend/internal/geo"
	"waves-on-map-backend/internal/model"
)

var errNoWaveData = errors.New("no wave data for location")

// GetMarkers handles GET /api/markers: a GeoJSON feature collection with one
// point feature per location, carrying everything the frontend needs to draw
// the arrow badge (rotation, height, wind, color).
func (h *Handler) GetMarkers(c *gin.Context) {
	locs, err := h.store.ListLocations(c.Request.Context(), 0)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve locations"})
		return
	}
	highlights, err := h.store.CurrentHighlights(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve highlights"})
		return
	}

	// Colors scale from zero to the largest current highlight.
	var maxHeight float64
	for _, hl := range highlights {
		if hl.WaveHeight > maxHeight {
			maxHeight = hl.WaveHeight
		}
	}
	if maxHeight == 0 {
		maxHeight = 1
	}

	fc := geo.NewFeatureCollection()
	for _, loc := range locs {
		hl, ok := highlights[loc.ID]
		if !ok {
			continue
		}
		fc.Features = append(fc.Features, buildMarker(loc, hl, maxHeight))
	}

	c.JSON(http.StatusOK, gin.H{
		"center":  []float64{h.cfg.Map.CenterLon, h.cfg.Map.CenterLat},
		"markers": fc,
	})
}

func buildMarker(loc model.Location, hl model.WaveHighlight, maxHeight float64) geo.Feature {
	rotation := float64(int(180+hl.WaveFromDirection) % 360)
	props := map[string]any{
		"locationId": loc.ID,
		"name":       loc.Name,
		"rotation":   rotation,
		"waveHeight": hl.WaveHeight,
		"waveTime":   hl.Time,
		"windSpeed":  nanToPtr(hl.WindSpeed),
		"color":      colormap.ValueToHex(hl.WaveHeight, 0, maxHeight),
		"details":    fmt.Sprintf("/api/locations/%d/forecast", loc.ID),
	}
	return geo.PointFeature(loc.Longitude, loc.Latitude, props)
}
