package geo

import (
	"encoding/json"
	"fmt"
	"os"
)

// Topology is a parsed topojson document. Arcs of a quantized topology are
// delta-encoded integer positions that require the transform to decode.
type Topology struct {
	Type      string                  `json:"type"`
	Transform *Transform              `json:"transform"`
	Objects   map[string]*topoElement `json:"objects"`
	Arcs      [][][]float64           `json:"arcs"`

	decodedArcs [][][]float64
}

// Transform holds the quantization parameters of a topology.
type Transform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

// topoElement is a topojson geometry object, possibly a GeometryCollection.
type topoElement struct {
	Type        string          `json:"type"`
	ID          any             `json:"id"`
	Properties  map[string]any  `json:"properties"`
	Coordinates json.RawMessage `json:"coordinates"`
	Arcs        json.RawMessage `json:"arcs"`
	Geometries  []*topoElement  `json:"geometries"`
}

// DecodeTopoJSON parses a topojson document and decodes its arcs.
func DecodeTopoJSON(data []byte) (*Topology, error) {
	var topo Topology
	if err := json.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topojson: %w", err)
	}
	if topo.Type != "Topology" {
		return nil, fmt.Errorf("not a topojson document: type %q", topo.Type)
	}
	topo.decodeArcs()
	return &topo, nil
}

// LoadTopoJSON reads and decodes a topojson file.
func LoadTopoJSON(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boundary file: %w", err)
	}
	return DecodeTopoJSON(data)
}

// decodeArcs expands the delta-encoded, quantized arc positions into
// absolute lon/lat coordinates.
func (t *Topology) decodeArcs() {
	t.decodedArcs = make([][][]float64, len(t.Arcs))
	for i, arc := range t.Arcs {
		decoded := make([][]float64, len(arc))
		var x, y float64
		for j, pos := range arc {
			if t.Transform != nil {
				x += pos[0]
				y += pos[1]
				decoded[j] = []float64{
					x*t.Transform.Scale[0] + t.Transform.Translate[0],
					y*t.Transform.Scale[1] + t.Transform.Translate[1],
				}
			} else {
				decoded[j] = []float64{pos[0], pos[1]}
			}
		}
		t.decodedArcs[i] = decoded
	}
}

// transformPoint applies the quantization transform to a raw point.
func (t *Topology) transformPoint(p []float64) []float64 {
	if t.Transform == nil || len(p) < 2 {
		return p
	}
	return []float64{
		p[0]*t.Transform.Scale[0] + t.Transform.Translate[0],
		p[1]*t.Transform.Scale[1] + t.Transform.Translate[1],
	}
}

// stitch joins the referenced arcs into one linestring. A negative index ~i
// references arcs[i] reversed. The shared junction point between consecutive
// arcs appears once.
func (t *Topology) stitch(indexes []int) [][]float64 {
	var line [][]float64
	for _, idx := range indexes {
		var arc [][]float64
		if idx >= 0 {
			arc = t.decodedArcs[idx]
		} else {
			src := t.decodedArcs[^idx]
			arc = make([][]float64, len(src))
			for i := range src {
				arc[i] = src[len(src)-1-i]
			}
		}
		if len(line) > 0 && len(arc) > 0 {
			arc = arc[1:]
		}
		line = append(line, arc...)
	}
	return line
}

// ObjectNames lists the named objects in the topology.
func (t *Topology) ObjectNames() []string {
	names := make([]string, 0, len(t.Objects))
	for name := range t.Objects {
		names = append(names, name)
	}
	return names
}

// ToGeoJSON converts the named object to a GeoJSON feature collection.
// An empty name is accepted when the topology has exactly one object.
func (t *Topology) ToGeoJSON(name string) (*FeatureCollection, error) {
	if name == "" {
		if len(t.Objects) != 1 {
			return nil, fmt.Errorf("topology has %d objects, an object name is required", len(t.Objects))
		}
		for only := range t.Objects {
			name = only
		}
	}
	obj, ok := t.Objects[name]
	if !ok {
		return nil, fmt.Errorf("topology has no object %q (available: %v)", name, t.ObjectNames())
	}

	fc := NewFeatureCollection()
	elems := []*topoElement{obj}
	if obj.Type == "GeometryCollection" {
		elems = obj.Geometries
	}
	for _, el := range elems {
		geom, err := t.elementGeometry(el)
		if err != nil {
			return nil, err
		}
		props := el.Properties
		if props == nil {
			props = map[string]any{}
		}
		if el.ID != nil {
			props["id"] = el.ID
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Properties: props,
			Geometry:   geom,
		})
	}
	return fc, nil
}

func (t *Topology) elementGeometry(el *topoElement) (Geometry, error) {
	switch el.Type {
	case "Point":
		var p []float64
		if err := json.Unmarshal(el.Coordinates, &p); err != nil {
			return Geometry{}, fmt.Errorf("bad Point coordinates: %w", err)
		}
		return Geometry{Type: "Point", Coordinates: t.transformPoint(p)}, nil

	case "MultiPoint":
		var ps [][]float64
		if err := json.Unmarshal(el.Coordinates, &ps); err != nil {
			return Geometry{}, fmt.Errorf("bad MultiPoint coordinates: %w", err)
		}
		out := make([][]float64, len(ps))
		for i, p := range ps {
			out[i] = t.transformPoint(p)
		}
		return Geometry{Type: "MultiPoint", Coordinates: out}, nil

	case "LineString":
		var idx []int
		if err := json.Unmarshal(el.Arcs, &idx); err != nil {
			return Geometry{}, fmt.Errorf("bad LineString arcs: %w", err)
		}
		return Geometry{Type: "LineString", Coordinates: t.stitch(idx)}, nil

	case "MultiLineString":
		var idx [][]int
		if err := json.Unmarshal(el.Arcs, &idx); err != nil {
			return Geometry{}, fmt.Errorf("bad MultiLineString arcs: %w", err)
		}
		lines := make([][][]float64, len(idx))
		for i, l := range idx {
			lines[i] = t.stitch(l)
		}
		return Geometry{Type: "MultiLineString", Coordinates: lines}, nil

	case "Polygon":
		var idx [][]int
		if err := json.Unmarshal(el.Arcs, &idx); err != nil {
			return Geometry{}, fmt.Errorf("bad Polygon arcs: %w", err)
		}
		rings := make([][][]float64, len(idx))
		for i, r := range idx {
			rings[i] = t.stitch(r)
		}
		return Geometry{Type: "Polygon", Coordinates: rings}, nil

	case "MultiPolygon":
		var idx [][][]int
		if err := json.Unmarshal(el.Arcs, &idx); err != nil {
			return Geometry{}, fmt.Errorf("bad MultiPolygon arcs: %w", err)
		}
		polys := make([][][][]float64, len(idx))
		for i, poly := range idx {
			rings := make([][][]float64, len(poly))
			for j, r := range poly {
				rings[j] = t.stitch(r)
			}
			polys[i] = rings
		}
		return Geometry{Type: "MultiPolygon", Coordinates: polys}, nil

	default:
		return Geometry{}, fmt.Errorf("unsupported topojson geometry type %q", el.Type)
	}
}
