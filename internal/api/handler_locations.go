package api

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"waves-on-map-backend/internal/model"
	"waves-on-map-backend/internal/poller"
)

// highlightResponse is the JSON shape of a location's current highlight.
type highlightResponse struct {
	Time              time.Time `json:"time"`
	ObservedAt        time.Time `json:"observedAt"`
	WaveHeight        float64   `json:"waveHeight"`
	WaveFromDirection float64   `json:"waveFromDirection"`
	Rotation          float64   `json:"rotation"`
	WaterSpeed        float64   `json:"waterSpeed"`
	WaterTemperature  float64   `json:"waterTemperature"`
	WaterToDirection  float64   `json:"waterToDirection"`
	WindSpeed         *float64  `json:"windSpeed"`
}

type locationResponse struct {
	model.Location
	Highlight *highlightResponse `json:"highlight"`
}

// ListLocations handles GET /api/locations.
func (h *Handler) ListLocations(c *gin.Context) {
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

	response := make([]locationResponse, 0, len(locs))
	for _, loc := range locs {
		resp := locationResponse{Location: loc}
		if hl, ok := highlights[loc.ID]; ok {
			resp.Highlight = toHighlightResponse(hl)
		}
		response = append(response, resp)
	}
	c.JSON(http.StatusOK, response)
}

type createLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Name      string   `json:"name" binding:"required"`
}

// CreateLocation handles POST /api/locations: a user right-clicked the map
// and named a new spot to track.
func (h *Handler) CreateLocation(c *gin.Context) {
	var req createLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location name cannot be empty"})
		return
	}
	lat, lon := *req.Latitude, *req.Longitude
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Coordinates out of range"})
		return
	}

	loc := model.Location{Name: name, Latitude: lat, Longitude: lon}
	if err := h.store.CreateLocation(c.Request.Context(), &loc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Build a marker payload for immediate client insertion. Best effort: the
	// location is created even when the forecast fetch fails.
	var marker any
	if feature, err := h.markerFeature(c, loc); err == nil {
		marker = feature
	}

	c.JSON(http.StatusCreated, gin.H{
		"location": loc,
		"marker":   marker,
	})
}

func (h *Handler) markerFeature(c *gin.Context, loc model.Location) (any, error) {
	ocean, err := h.client.OceanForecast(c.Request.Context(), loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	weather, err := h.client.LocationForecast(c.Request.Context(), loc.Latitude, loc.Longitude)
	if err != nil {
		return nil, err
	}
	hl, ok := poller.ComputeHighlight(ocean.Points, weather.Points)
	if !ok {
		return nil, errNoWaveData
	}
	hl.LocationID = loc.ID
	return buildMarker(loc, hl, hl.WaveHeight), nil
}

func toHighlightResponse(hl model.WaveHighlight) *highlightResponse {
	return &highlightResponse{
		Time:              hl.Time,
		ObservedAt:        hl.ObservedAt,
		WaveHeight:        hl.WaveHeight,
		WaveFromDirection: hl.WaveFromDirection,
		Rotation:          math.Mod(180+hl.WaveFromDirection, 360),
		WaterSpeed:        hl.WaterSpeed,
		WaterTemperature:  hl.WaterTemperature,
		WaterToDirection:  hl.WaterToDirection,
		WindSpeed:         nanToPtr(hl.WindSpeed),
	}
}

// nanToPtr turns NaN into a JSON null.
func nanToPtr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
