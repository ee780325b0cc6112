// Package geo handles the GeoJSON structures served to the map frontend and
// decoding of topojson boundary assets.
package geo

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single geographic feature with geometry and properties.
type Feature struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Geometry   Geometry       `json:"geometry"`
}

// Geometry holds a GeoJSON geometry. Coordinates nesting depends on Type:
// Point []float64, LineString/MultiPoint [][]float64, Polygon/MultiLineString
// [][][]float64, MultiPolygon [][][][]float64.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// NewFeatureCollection returns an empty collection ready for appending.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}

// PointFeature builds a point feature. GeoJSON orders coordinates lon, lat.
func PointFeature(lon, lat float64, props map[string]any) Feature {
	if props == nil {
		props = map[string]any{}
	}
	return Feature{
		Type:       "Feature",
		Properties: props,
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: []float64{lon, lat},
		},
	}
}
