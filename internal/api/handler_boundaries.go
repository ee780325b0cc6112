package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"waves-on-map-backend/internal/geo"
)

// GetBoundaries handles GET /api/boundaries: the coastline/municipality
// overlay decoded from the configured topojson asset. The file is read once
// and kept in memory.
func (h *Handler) GetBoundaries(c *gin.Context) {
	if h.cfg.Map.BoundaryPath == "" {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No boundary file configured"})
		return
	}

	h.boundaryOnce.Do(func() {
		topo, err := geo.LoadTopoJSON(h.cfg.Map.BoundaryPath)
		if err != nil {
			h.boundaryErr = err
			return
		}
		h.boundaries, h.boundaryErr = topo.ToGeoJSON(h.cfg.Map.BoundaryObject)
	})

	if h.boundaryErr != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": h.boundaryErr.Error()})
		return
	}
	c.JSON(http.StatusOK, h.boundaries)
}
