package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		MaxTracks:           8,
		MinIouForMatch:      0.3,
		StaleTrackTimeoutMs: 1500,
	}
}

func box(left, top, right, bottom float64) DetectionBox {
	return DetectionBox{Left: left, Top: top, Right: right, Bottom: bottom}
}

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b DetectionBox
		want float64
	}{
		{"identical", box(0, 0, 0.5, 0.5), box(0, 0, 0.5, 0.5), 1.0},
		{"disjoint", box(0, 0, 0.2, 0.2), box(0.5, 0.5, 0.7, 0.7), 0.0},
		{"touching_edges", box(0, 0, 0.5, 0.5), box(0.5, 0, 1, 0.5), 0.0},
		{"half_overlap", box(0, 0, 0.4, 0.4), box(0.2, 0, 0.6, 0.4), 1.0 / 3.0},
		{"contained", box(0, 0, 1, 1), box(0.25, 0.25, 0.75, 0.75), 0.25},
		{"degenerate", box(0.5, 0.5, 0.5, 0.5), box(0, 0, 1, 1), 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, IoU(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, IoU(tt.b, tt.a), 1e-9)
		})
	}
}

func TestUpdateAssignsUniqueMonotonicIDs(t *testing.T) {
	tr := New(testConfig())

	tracks := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0, 0, 0.2, 0.2)},
		{Label: "chair", Score: 0.8, Box: box(0.5, 0.5, 0.7, 0.7)},
	}, 1000)

	require.Len(t, tracks, 2)
	assert.Equal(t, int64(1), tracks[0].TrackID)
	assert.Equal(t, int64(2), tracks[1].TrackID)

	// A fresh non-overlapping detection opens a new ID; old IDs are not reused.
	tr.Reset()
	tracks = tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0, 0, 0.2, 0.2)},
	}, 2000)
	require.Len(t, tracks, 1)
	assert.Equal(t, int64(3), tracks[0].TrackID)
}

func TestUpdateKeepsIdentityAcrossFrames(t *testing.T) {
	tr := New(testConfig())

	first := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 1000)
	require.Len(t, first, 1)
	id := first[0].TrackID

	// Slight drift keeps IoU above the floor.
	second := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.85, Box: box(0.12, 0.1, 0.32, 0.3)},
	}, 1100)
	require.Len(t, second, 1)
	assert.Equal(t, id, second[0].TrackID)
	assert.Equal(t, 0.85, second[0].Score)
	assert.Equal(t, int64(1100), second[0].LastSeenAtMs)
}

func TestUpdateLabelGate(t *testing.T) {
	tr := New(testConfig())

	first := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 1000)
	require.Len(t, first, 1)

	// Same box, different label: must not adopt the person track.
	second := tr.Update([]DetectedObject{
		{Label: "chair", Score: 0.9, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 1100)
	require.Len(t, second, 2)
	labels := map[string]bool{}
	for _, tk := range second {
		labels[tk.Label] = true
	}
	assert.True(t, labels["person"])
	assert.True(t, labels["chair"])
}

func TestUpdateCarriesOverMissedTracks(t *testing.T) {
	tr := New(testConfig())

	first := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 1000)
	id := first[0].TrackID

	// Detector misses for one frame within the stale window.
	gap := tr.Update(nil, 1500)
	require.Len(t, gap, 1)
	assert.Equal(t, id, gap[0].TrackID)
	assert.Equal(t, int64(1000), gap[0].LastSeenAtMs)

	// Reappearing detection re-adopts the carried identity.
	back := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.8, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 2000)
	require.Len(t, back, 1)
	assert.Equal(t, id, back[0].TrackID)
}

func TestUpdateDropsStaleTracks(t *testing.T) {
	tr := New(testConfig())

	tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 1000)

	// Beyond the 1500ms stale timeout the track is evicted.
	tracks := tr.Update(nil, 2600)
	assert.Empty(t, tracks)
}

func TestUpdateCapsTrackCount(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTracks = 2
	tr := New(cfg)

	tracks := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0, 0, 0.1, 0.1)},
		{Label: "person", Score: 0.8, Box: box(0.2, 0, 0.3, 0.1)},
		{Label: "person", Score: 0.7, Box: box(0.4, 0, 0.5, 0.1)},
	}, 1000)

	require.Len(t, tracks, 2)
	// The strongest detections win the capacity.
	assert.Equal(t, 0.9, tracks[0].Score)
	assert.Equal(t, 0.8, tracks[1].Score)
}

func TestUpdatePrefersHighestIoUMatch(t *testing.T) {
	tr := New(testConfig())

	first := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0.0, 0.0, 0.2, 0.2)},
		{Label: "person", Score: 0.8, Box: box(0.3, 0.0, 0.5, 0.2)},
	}, 1000)
	require.Len(t, first, 2)
	leftID := first[0].TrackID

	// One detection overlapping the left track far more than the right one.
	second := tr.Update([]DetectedObject{
		{Label: "person", Score: 0.95, Box: box(0.02, 0.0, 0.22, 0.2)},
	}, 1100)
	require.Len(t, second, 2)
	assert.Equal(t, leftID, second[0].TrackID)
	assert.Equal(t, 0.95, second[0].Score)
}

func TestSnapshotReturnsCopy(t *testing.T) {
	tr := New(testConfig())
	tr.Update([]DetectedObject{
		{Label: "person", Score: 0.9, Box: box(0.1, 0.1, 0.3, 0.3)},
	}, 1000)

	snap := tr.Snapshot()
	require.Len(t, snap, 1)
	snap[0].Label = "mutated"

	again := tr.Snapshot()
	assert.Equal(t, "person", again[0].Label)
}

func TestDetectionBoxHelpers(t *testing.T) {
	b := box(0.2, 0.4, 0.6, 0.8)
	assert.InDelta(t, 0.16, b.Area(), 1e-9)
	x, y := b.Center()
	assert.InDelta(t, 0.4, x, 1e-9)
	assert.InDelta(t, 0.6, y, 1e-9)
	assert.Equal(t, 0.0, box(0.5, 0.5, 0.4, 0.6).Area())
}
