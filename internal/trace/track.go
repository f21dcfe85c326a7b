package trace

import (
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tphakala/drivesense/internal/motion"
)

// TrackPoint is one accepted fix with the speed estimate after it.
type TrackPoint struct {
	Fix   motion.Fix
	Speed float64
}

// Track collects accepted fixes for GeoJSON export. Observe matches
// location.FixObserver.
type Track struct {
	mu     sync.Mutex
	points []TrackPoint
}

// Observe appends a point.
func (t *Track) Observe(fix motion.Fix, speed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.points = append(t.points, TrackPoint{Fix: fix, Speed: speed})
}

// Points returns a copy of the collected points.
func (t *Track) Points() []TrackPoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]TrackPoint(nil), t.points...)
}

// FeatureCollection renders the track as a LineString plus one Point per fix
// carrying its timestamp and speed estimate.
func (t *Track) FeatureCollection() *geojson.FeatureCollection {
	points := t.Points()
	fc := geojson.NewFeatureCollection()

	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, orb.Point{p.Fix.Longitude, p.Fix.Latitude})
	}
	if len(line) >= 2 {
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "track"
		fc.Append(f)
	}

	for _, p := range points {
		f := geojson.NewFeature(orb.Point{p.Fix.Longitude, p.Fix.Latitude})
		f.Properties["time"] = p.Fix.Timestamp.Format(time.RFC3339Nano)
		f.Properties["speed_mps"] = p.Speed
		if p.Fix.Speed != nil {
			f.Properties["reported_speed_mps"] = *p.Fix.Speed
		}
		if p.Fix.HorizontalAccuracy != nil {
			f.Properties["accuracy_m"] = *p.Fix.HorizontalAccuracy
		}
		fc.Append(f)
	}
	return fc
}

// MarshalGeoJSON encodes the feature collection.
func (t *Track) MarshalGeoJSON() ([]byte, error) {
	return t.FeatureCollection().MarshalJSON()
}
