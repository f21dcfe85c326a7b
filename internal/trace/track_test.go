package trace

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/drivesense/internal/motion"
)

func TestTrackFeatureCollection(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var track Track
	track.Observe(motion.Fix{Latitude: 60.17, Longitude: 24.94, Timestamp: t0, Speed: motion.Float(9.5), HorizontalAccuracy: motion.Float(4)}, 9.2)
	track.Observe(motion.Fix{Latitude: 60.171, Longitude: 24.941, Timestamp: t0.Add(time.Second)}, 9.4)

	fc := track.FeatureCollection()
	require.Len(t, fc.Features, 3)

	line, ok := fc.Features[0].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{24.94, 60.17}, {24.941, 60.171}}, line)

	first := fc.Features[1]
	assert.Equal(t, orb.Point{24.94, 60.17}, first.Geometry)
	assert.InDelta(t, 9.2, first.Properties["speed_mps"], 1e-12)
	assert.InDelta(t, 9.5, first.Properties["reported_speed_mps"], 1e-12)
	assert.Equal(t, "2026-03-01T08:00:00Z", first.Properties["time"])
	assert.NotContains(t, fc.Features[2].Properties, "accuracy_m")

	data, err := track.MarshalGeoJSON()
	require.NoError(t, err)
	var decoded struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded.Type)
	assert.Equal(t, "LineString", decoded.Features[0].Geometry.Type)
	assert.Equal(t, "Point", decoded.Features[1].Geometry.Type)
}

func TestTrackSinglePointHasNoLine(t *testing.T) {
	t.Parallel()

	var track Track
	track.Observe(motion.Fix{Latitude: 1, Longitude: 2}, 0)
	fc := track.FeatureCollection()
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.Point{2, 1}, fc.Features[0].Geometry)
	assert.Len(t, track.Points(), 1)
}
