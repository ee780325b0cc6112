package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quantized is a minimal quantized topology: two arcs forming a square, with
// delta-encoded positions and a 0.001 scale.
const quantized = `{
	"type": "Topology",
	"transform": {"scale": [0.001, 0.001], "translate": [10.0, 59.0]},
	"objects": {
		"boundary": {
			"type": "Polygon",
			"arcs": [[0, 1]],
			"properties": {"name": "Indre Oslofjord"}
		}
	},
	"arcs": [
		[[0, 0], [1000, 0], [0, 1000]],
		[[1000, 1000], [-1000, 0], [0, -1000]]
	]
}`

const unquantized = `{
	"type": "Topology",
	"objects": {
		"line": {"type": "LineString", "arcs": [0]},
		"spot": {"type": "Point", "coordinates": [10.5, 59.5], "id": 7}
	},
	"arcs": [
		[[10.0, 59.0], [10.1, 59.1], [10.2, 59.2]]
	]
}`

func TestDecodeTopoJSON(t *testing.T) {
	t.Run("rejects non-topology documents", func(t *testing.T) {
		_, err := DecodeTopoJSON([]byte(`{"type": "FeatureCollection"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a topojson document")
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := DecodeTopoJSON([]byte(`{`))
		assert.Error(t, err)
	})

	t.Run("decodes quantized arcs", func(t *testing.T) {
		topo, err := DecodeTopoJSON([]byte(quantized))
		require.NoError(t, err)

		fc, err := topo.ToGeoJSON("boundary")
		require.NoError(t, err)
		require.Len(t, fc.Features, 1)

		f := fc.Features[0]
		assert.Equal(t, "Polygon", f.Geometry.Type)
		assert.Equal(t, "Indre Oslofjord", f.Properties["name"])

		rings := f.Geometry.Coordinates.([][][]float64)
		require.Len(t, rings, 1)
		ring := rings[0]

		// Two 3-point arcs share one junction point: 5 points, closed ring.
		require.Len(t, ring, 5)
		assert.Equal(t, []float64{10.0, 59.0}, ring[0])
		assert.InDelta(t, 11.0, ring[1][0], 1e-9)
		assert.InDelta(t, 59.0, ring[1][1], 1e-9)
		assert.Equal(t, ring[0], ring[4], "ring closes on its start point")
	})
}

func TestToGeoJSON(t *testing.T) {
	topo, err := DecodeTopoJSON([]byte(unquantized))
	require.NoError(t, err)

	t.Run("empty name needs a single object", func(t *testing.T) {
		_, err := topo.ToGeoJSON("")
		assert.Error(t, err, "two objects, the name is ambiguous")
	})

	t.Run("unknown object name", func(t *testing.T) {
		_, err := topo.ToGeoJSON("nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no object "nope"`)
	})

	t.Run("linestring without transform keeps raw coordinates", func(t *testing.T) {
		fc, err := topo.ToGeoJSON("line")
		require.NoError(t, err)
		require.Len(t, fc.Features, 1)

		line := fc.Features[0].Geometry.Coordinates.([][]float64)
		require.Len(t, line, 3)
		assert.Equal(t, []float64{10.0, 59.0}, line[0])
		assert.Equal(t, []float64{10.2, 59.2}, line[2])
	})

	t.Run("point id lands in properties", func(t *testing.T) {
		fc, err := topo.ToGeoJSON("spot")
		require.NoError(t, err)
		require.Len(t, fc.Features, 1)

		f := fc.Features[0]
		assert.Equal(t, "Point", f.Geometry.Type)
		assert.Equal(t, []float64{10.5, 59.5}, f.Geometry.Coordinates)
		assert.Equal(t, float64(7), f.Properties["id"])
	})
}

func TestStitchReversedArc(t *testing.T) {
	doc := `{
		"type": "Topology",
		"objects": {"l": {"type": "LineString", "arcs": [0, -1]}},
		"arcs": [[[0.0, 0.0], [1.0, 1.0], [2.0, 2.0]]]
	}`
	topo, err := DecodeTopoJSON([]byte(doc))
	require.NoError(t, err)

	fc, err := topo.ToGeoJSON("l")
	require.NoError(t, err)

	// Arc 0 forward then reversed: junction point deduplicated.
	line := fc.Features[0].Geometry.Coordinates.([][]float64)
	require.Len(t, line, 5)
	assert.Equal(t, []float64{2.0, 2.0}, line[2])
	assert.Equal(t, []float64{0.0, 0.0}, line[4])
}

func TestSingleObjectDefaultName(t *testing.T) {
	doc := `{
		"type": "Topology",
		"objects": {"only": {"type": "Point", "coordinates": [1.0, 2.0]}},
		"arcs": []
	}`
	topo, err := DecodeTopoJSON([]byte(doc))
	require.NoError(t, err)

	fc, err := topo.ToGeoJSON("")
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
}

func TestPointFeature(t *testing.T) {
	f := PointFeature(10.74, 59.87, map[string]any{"name": "spot"})
	assert.Equal(t, "Feature", f.Type)
	assert.Equal(t, "Point", f.Geometry.Type)
	assert.Equal(t, []float64{10.74, 59.87}, f.Geometry.Coordinates)
	assert.Equal(t, "spot", f.Properties["name"])

	f = PointFeature(0, 0, nil)
	assert.NotNil(t, f.Properties, "nil props become an empty map")
}
