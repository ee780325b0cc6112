package store

import (
	"waves-on-map-backend/internal/model"
)

// HighlightUpdate pairs a location with the freshly computed forecast
// highlight the poller wants to persist for it.
type HighlightUpdate struct {
	Location  model.Location
	Highlight model.WaveHighlight
}

// defaultLocations seed the locations table on first start.
var defaultLocations = []model.Location{
	{Latitude: 59.873972, Longitude: 10.74493, Name: "Malmøya-nord", ExtraThresh: 0.0},
	{Latitude: 59.859773, Longitude: 10.75167, Name: "Malmøya-sør", ExtraThresh: 0.0},
	{Latitude: 59.884846, Longitude: 10.69528, Name: "Nakkholmen-sør", ExtraThresh: 0.0},
	{Latitude: 59.847316, Longitude: 10.57949, Name: "Gåsøya-sør", ExtraThresh: 0.4},
}
