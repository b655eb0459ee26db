// Package geometry converts between in-memory geometry values, the
// PostGIS column encoding (EWKB, SRID 4326) and the GeoJSON structures
// handed to API consumers.
package geometry

import (
	"database/sql/driver"
	"fmt"

	"github.com/kanootoko/urban-api/internal/apperr"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// SRID is fixed for every stored geometry. Not configurable per call.
const SRID = 4326

// Geometry is a spatial value restricted to the variants the registry
// accepts: Point, LineString, Polygon and MultiPolygon. The zero value
// maps to SQL NULL.
type Geometry struct {
	geom orb.Geometry
}

func supported(g orb.Geometry) bool {
	switch g.(type) {
	case orb.Point, orb.LineString, orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}

// New wraps an orb geometry, rejecting unsupported variants before they
// can reach storage.
func New(g orb.Geometry) (Geometry, error) {
	if g == nil {
		return Geometry{}, apperr.InvalidInput{Reason: "geometry is empty"}
	}
	if !supported(g) {
		return Geometry{}, apperr.InvalidInput{Reason: fmt.Sprintf("unsupported geometry type %q", g.GeoJSONType())}
	}
	return Geometry{geom: g}, nil
}

// FromGeoJSON converts a parsed GeoJSON geometry.
func FromGeoJSON(g *geojson.Geometry) (Geometry, error) {
	if g == nil {
		return Geometry{}, apperr.InvalidInput{Reason: "geometry is empty"}
	}
	return New(g.Geometry())
}

func (g Geometry) IsZero() bool {
	return g.geom == nil
}

// IsPoint reports whether the value is a Point. Centre points are
// required to be points.
func (g Geometry) IsPoint() bool {
	_, ok := g.geom.(orb.Point)
	return ok
}

// Orb exposes the underlying value for spatial computations.
func (g Geometry) Orb() orb.Geometry {
	return g.geom
}

// GeoJSON returns the structured output form (type discriminator plus
// nested coordinate arrays) so callers can embed it in a larger result
// without double-encoding.
func (g Geometry) GeoJSON() *geojson.Geometry {
	if g.geom == nil {
		return nil
	}
	return geojson.NewGeometry(g.geom)
}

// Centroid returns the planar centroid as a Point geometry. Used when a
// centre point was not supplied on creation.
func (g Geometry) Centroid() Geometry {
	if g.geom == nil {
		return Geometry{}
	}
	c, _ := planar.CentroidArea(g.geom)
	return Geometry{geom: c}
}

// Value encodes the geometry as EWKB with the fixed SRID.
func (g Geometry) Value() (driver.Value, error) {
	if g.geom == nil {
		return nil, nil
	}
	return ewkb.Value(g.geom, SRID).Value()
}

// Scan decodes a PostGIS column (EWKB, raw or hex-encoded). Decoding is
// lossless at stored float64 precision.
func (g *Geometry) Scan(src interface{}) error {
	if src == nil {
		g.geom = nil
		return nil
	}
	scanner := ewkb.Scanner(nil)
	if err := scanner.Scan(src); err != nil {
		return fmt.Errorf("scan geometry: %w", err)
	}
	geom := scanner.Geometry
	if !supported(geom) {
		return apperr.InvalidInput{Reason: fmt.Sprintf("unsupported stored geometry type %q", geom.GeoJSONType())}
	}
	g.geom = geom
	return nil
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.geom == nil {
		return []byte("null"), nil
	}
	return geojson.NewGeometry(g.geom).MarshalJSON()
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.geom = nil
		return nil
	}
	parsed, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return apperr.InvalidInput{Reason: "invalid geometry: " + err.Error()}
	}
	decoded, err := FromGeoJSON(parsed)
	if err != nil {
		return err
	}
	*g = decoded
	return nil
}
