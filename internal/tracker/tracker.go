// Package tracker maintains persistent identities for independently-detected
// bounding boxes across video frames, using greedy IoU matching with
// staleness eviction.
package tracker

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/echosight/echosight-go/internal/logging"
)

// DetectionBox is a normalized axis-aligned bounding box with coordinates
// in [0,1], Right > Left and Bottom > Top.
type DetectionBox struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Area returns the box area, treating degenerate boxes as zero.
func (b DetectionBox) Area() float64 {
	w := b.Right - b.Left
	h := b.Bottom - b.Top
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the box center point.
func (b DetectionBox) Center() (x, y float64) {
	return (b.Left + b.Right) / 2, (b.Top + b.Bottom) / 2
}

// IoU computes the intersection-over-union of two boxes. Non-overlapping or
// degenerate boxes score zero.
func IoU(a, b DetectionBox) float64 {
	interLeft := max(a.Left, b.Left)
	interTop := max(a.Top, b.Top)
	interRight := min(a.Right, b.Right)
	interBottom := min(a.Bottom, b.Bottom)

	if interRight <= interLeft || interBottom <= interTop {
		return 0
	}
	inter := (interRight - interLeft) * (interBottom - interTop)

	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// DetectedObject is one detector output for a single frame.
type DetectedObject struct {
	Label string
	Score float64
	Box   DetectionBox
}

// TrackedObject is a detection with a persistent identity. Owned exclusively
// by the tracker; callers receive copies.
type TrackedObject struct {
	TrackID      int64
	Label        string
	Score        float64
	Box          DetectionBox
	LastSeenAtMs int64
}

// Config holds the tracker tuning parameters.
type Config struct {
	MaxTracks           int
	MinIouForMatch      float64
	StaleTrackTimeoutMs int64
}

// Tracker associates per-frame detections with persistent track identities.
// Safe for concurrent use; Update is called from the frame-processing loop
// while Snapshot is read by the scene loop.
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	tracks []TrackedObject
	nextID int64
	log    *slog.Logger
}

// New creates a tracker. Track IDs start at 1 and are never reused.
func New(cfg Config) *Tracker {
	return &Tracker{
		cfg:    cfg,
		nextID: 1,
		log:    logging.ForService("tracker"),
	}
}

// Update ingests one frame of detections at the given wall-clock time and
// returns the resulting live track set, sorted by descending score.
//
// Tracks unseen for longer than the stale timeout are dropped first. Each
// detection, in descending score order, is greedily matched to the
// highest-IoU unconsumed track with the same label and IoU at or above the
// match floor. Unmatched detections open new tracks while capacity remains.
// Fresh-but-unmatched tracks carry over unchanged, preserving identity
// through brief detector misses.
func (t *Tracker) Update(detections []DetectedObject, nowMs int64) []TrackedObject {
	t.mu.Lock()
	defer t.mu.Unlock()

	// 1. Drop stale tracks.
	live := t.tracks[:0]
	for _, tr := range t.tracks {
		if nowMs-tr.LastSeenAtMs <= t.cfg.StaleTrackTimeoutMs {
			live = append(live, tr)
		}
	}
	t.tracks = live

	// 2. Process detections in descending score order.
	sorted := make([]DetectedObject, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	consumed := make(map[int64]bool, len(t.tracks))
	next := make([]TrackedObject, 0, t.cfg.MaxTracks)

	for _, det := range sorted {
		bestIdx := -1
		bestIoU := 0.0
		for i := range t.tracks {
			tr := &t.tracks[i]
			if consumed[tr.TrackID] || tr.Label != det.Label {
				continue
			}
			iou := IoU(tr.Box, det.Box)
			if iou >= t.cfg.MinIouForMatch && iou > bestIoU {
				bestIoU = iou
				bestIdx = i
			}
		}

		if bestIdx >= 0 {
			tr := t.tracks[bestIdx]
			tr.Score = det.Score
			tr.Box = det.Box
			tr.LastSeenAtMs = nowMs
			consumed[tr.TrackID] = true
			next = append(next, tr)
			continue
		}

		if len(next) < t.cfg.MaxTracks {
			id := t.nextID
			t.nextID++
			next = append(next, TrackedObject{
				TrackID:      id,
				Label:        det.Label,
				Score:        det.Score,
				Box:          det.Box,
				LastSeenAtMs: nowMs,
			})
			t.log.Debug("opened track", "track_id", id, "label", det.Label, "score", det.Score)
		}
	}

	// 4. Carry over untouched fresh tracks with their last known state.
	for _, tr := range t.tracks {
		if !consumed[tr.TrackID] {
			next = append(next, tr)
		}
	}

	// 5. Keep the strongest maxTracks tracks.
	sort.SliceStable(next, func(i, j int) bool { return next[i].Score > next[j].Score })
	if len(next) > t.cfg.MaxTracks {
		next = next[:t.cfg.MaxTracks]
	}

	t.tracks = next
	return t.snapshotLocked()
}

// Snapshot returns a copy of the current live track set.
func (t *Tracker) Snapshot() []TrackedObject {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Reset drops all live tracks. Allocated IDs are not reused.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracks = nil
}

func (t *Tracker) snapshotLocked() []TrackedObject {
	out := make([]TrackedObject, len(t.tracks))
	copy(out, t.tracks)
	return out
}
