// Package orchestrator drives the recurring scene cycle: it ranks tracked
// objects, builds a scene cue plan, interleaves north and landmark cues
// under cooldown policies, and sequences spatial cue playback left to right.
package orchestrator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/echosight/echosight-go/internal/command"
	"github.com/echosight/echosight-go/internal/dsp"
	"github.com/echosight/echosight-go/internal/geo"
	"github.com/echosight/echosight-go/internal/hrir"
	"github.com/echosight/echosight-go/internal/landmark"
	"github.com/echosight/echosight-go/internal/logging"
	"github.com/echosight/echosight-go/internal/observability/metrics"
	"github.com/echosight/echosight-go/internal/sonify"
	"github.com/echosight/echosight-go/internal/tracker"
)

// CuePlayer is the audio engine boundary: render and play one spatial cue,
// reporting its rendered duration (zero for a failed cue).
type CuePlayer interface {
	PlayCue(assetPath, label string, azimuthDeg, elevationDeg float64) time.Duration
	Stop()
}

// HeadingProvider reports the user's current heading in degrees. ok is
// false when no reliable heading is available; cue paths treat that as a
// silent skip.
type HeadingProvider interface {
	Heading() (degrees float64, ok bool)
}

// LocationProvider reports a best-effort current location.
type LocationProvider interface {
	Location() (lat, lon, accuracyM float64, ok bool)
}

// Config holds the orchestrator tuning.
type Config struct {
	RefreshRateHz    float64
	ConfidenceFloor  float64
	HorizontalFOVDeg float64
	VerticalFOVDeg   float64

	SonifyEnabled    bool
	OnlyClass        string
	NorthCue         bool
	NorthCooldown    time.Duration
	LandmarkCue      bool
	LandmarkCooldown time.Duration

	NorthAssetPath    string
	LandmarkAssetPath string
}

// Orchestrator ties the tracker, ranking policy, scheduler and audio engine
// together. The frame-processing entry point and the scene loop are
// independently paced and share state through snapshot reads.
type Orchestrator struct {
	cfg       Config
	tracks    *tracker.Tracker
	profiles  *sonify.Profiles
	scheduler *sonify.Scheduler
	player    CuePlayer
	store     *landmark.Store
	heading   HeadingProvider
	location  LocationProvider
	metrics   *metrics.SonifyMetrics
	log       *slog.Logger

	mu              sync.Mutex
	sonifyEnabled   bool
	northEnabled    bool
	landmarkEnabled bool
	onlyClass       string
	pingName        string
	lastNorthCue    time.Time
	lastLandmarkCue time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an orchestrator. m may be nil.
func New(cfg Config, tracks *tracker.Tracker, profiles *sonify.Profiles, scheduler *sonify.Scheduler,
	player CuePlayer, store *landmark.Store, heading HeadingProvider, location LocationProvider,
	m *metrics.SonifyMetrics) *Orchestrator {
	return &Orchestrator{
		cfg:             cfg,
		tracks:          tracks,
		profiles:        profiles,
		scheduler:       scheduler,
		player:          player,
		store:           store,
		heading:         heading,
		location:        location,
		metrics:         m,
		log:             logging.ForService("orchestrator"),
		sonifyEnabled:   cfg.SonifyEnabled,
		northEnabled:    cfg.NorthCue,
		landmarkEnabled: cfg.LandmarkCue,
		onlyClass:       sonify.NormalizeLabel(cfg.OnlyClass),
	}
}

// OnFrame ingests one frame of detections from the detector boundary. It
// never blocks on cue playback. Returns the updated live track set.
func (o *Orchestrator) OnFrame(detections []tracker.DetectedObject, now time.Time) []tracker.TrackedObject {
	return o.tracks.Update(detections, now.UnixMilli())
}

// Start launches the scene loop.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	go o.run(ctx)
}

// Stop cancels the scene loop, waits for it to exit, releases the active
// audio playback and clears per-track state.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
		<-o.done
	}
	o.player.Stop()
	o.tracks.Reset()
}

// Apply reacts to one voice command.
func (o *Orchestrator) Apply(cmd command.Command) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch c := cmd.(type) {
	case command.TrackObject:
		o.onlyClass = sonify.NormalizeLabel(c.Label)
		o.log.Info("tracking restricted to class", "class", o.onlyClass)
	case command.RestrictClass:
		o.onlyClass = sonify.NormalizeLabel(c.Label)
		if o.onlyClass == "" {
			o.log.Info("class restriction cleared")
		}
	case command.SaveLandmark:
		o.saveLandmarkLocked(c.Name)
	case command.ForgetLandmark:
		outcome := o.store.Forget(c.Name)
		o.log.Info("forget landmark", "name", c.Name, "outcome", outcome)
	case command.PingLandmark:
		o.pingName = c.Name
	case command.ToggleNorthCue:
		o.northEnabled = c.Enabled
	case command.ToggleSonification:
		o.sonifyEnabled = c.Enabled
	default:
		o.log.Warn("unhandled command", "command", cmd)
	}
}

// saveLandmarkLocked stores the current location under a name. Location
// unavailability is a silent no-op.
func (o *Orchestrator) saveLandmarkLocked(name string) {
	lat, lon, accuracy, ok := o.location.Location()
	if !ok {
		o.log.Debug("save landmark skipped, no location", "name", name)
		return
	}
	outcome := o.store.Save(name, lat, lon, accuracy, time.Now())
	o.log.Info("save landmark", "name", name, "outcome", outcome)
}

func (o *Orchestrator) run(ctx context.Context) {
	defer close(o.done)

	windowMs := sonify.SceneWindowMs(o.cfg.RefreshRateHz)
	window := time.Duration(windowMs) * time.Millisecond
	o.log.Info("scene loop started", "window_ms", windowMs)

	for {
		cycleStart := time.Now()
		o.runSceneCycle(ctx)

		// Sleep out whatever remains of the window.
		remaining := window - time.Since(cycleStart)
		if remaining > 0 {
			if !sleepCtx(ctx, remaining) {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

/// runSceneCycle executes one scene window: plan object cues, interleave
// north/landmark cues when nothing competes, then emit object cues ordered
// left to right.
func (o *Orchestrator) runSceneCycle(ctx context.Context) {
	o.mu.Lock()
	sonifyEnabled := o.sonifyEnabled
	northEnabled := o.northEnabled
	landmarkEnabled := o.landmarkEnabled
	onlyClass := o.onlyClass
	pingName := o.pingName
	o.mu.Unlock()

	tracks := o.tracks.Snapshot()
	if onlyClass != "" {
		filtered := tracks[:0]
		for _, tr := range tracks {
			if sonify.NormalizeLabel(tr.Label) == onlyClass {
				filtered = append(filtered, tr)
			}
		}
		tracks = filtered
	}

	var plan sonify.SceneCuePlan
	if sonifyEnabled {
		ranked := sonify.Rank(tracks, o.profiles, o.cfg.ConfidenceFloor)
		plan = o.scheduler.BuildScenePlan(ranked, o.cfg.RefreshRateHz)
	} else {
		plan.SceneWindowMs = sonify.SceneWindowMs(o.cfg.RefreshRateHz)
	}
	o.metrics.RecordScenePlan(len(plan.Entries))

	uncontested := len(plan.Entries) == 0 || !sonifyEnabled

	if northEnabled && uncontested {
		if !o.emitNorthCue(ctx) {
			return
		}
	}

	if pingName != "" {
		if !o.emitLandmarkCue(ctx, pingName, true) {
			return
		}
	} else if landmarkEnabled && uncontested {
		if !o.emitLandmarkCue(ctx, "", false) {
			return
		}
	}

	o.emitObjectCues(ctx, plan)
}

// emitNorthCue plays the magnetic-north marker at azimuth -heading when its
// cooldown has elapsed. Returns false when the context was cancelled.
func (o *Orchestrator) emitNorthCue(ctx context.Context) bool {
	o.mu.Lock()
	ready := time.Since(o.lastNorthCue) >= o.cfg.NorthCooldown
	o.mu.Unlock()
	if !ready {
		return true
	}

	headingDeg, ok := o.heading.Heading()
	if !ok {
		return true
	}

	azimuth := hrir.NormalizeSigned180(-headingDeg)
	duration := o.player.PlayCue(o.cfg.NorthAssetPath, "north", azimuth, 0)
	o.metrics.RecordCuePlayed("north", duration.Milliseconds())
	o.log.Debug("north cue", "azimuth", azimuth, "duration_ms", duration.Milliseconds())

	o.mu.Lock()
	o.lastNorthCue = time.Now()
	o.mu.Unlock()

	return sleepCtx(ctx, duration)
}

// emitLandmarkCue plays a cue toward a saved landmark: the named one for a
// ping, otherwise the nearest. forced pings bypass the cooldown and stay
// pending through a sensor outage. Returns false when the context was
// cancelled.
func (o *Orchestrator) emitLandmarkCue(ctx context.Context, name string, forced bool) bool {
	if !forced {
		o.mu.Lock()
		ready := time.Since(o.lastLandmarkCue) >= o.cfg.LandmarkCooldown
		o.mu.Unlock()
		if !ready {
			return true
		}
	}

	lat, lon, _, ok := o.location.Location()
	if !ok {
		return true
	}
	headingDeg, ok := o.heading.Heading()
	if !ok {
		return true
	}

	if forced {
		// Both sensors answered; the ping is consumed from here on, even
		// when the name turns out unknown.
		o.mu.Lock()
		if o.pingName == name {
			o.pingName = ""
		}
		o.mu.Unlock()
	}

	var target landmark.Landmark
	var found bool
	if name != "" {
		target, found = o.store.Get(name)
	} else {
		target, found = o.store.Nearest(lat, lon)
	}
	if !found {
		return true
	}

	distance, bearing := geo.DistanceAndBearing(lat, lon, target.Lat, target.Lon)
	azimuth := hrir.NormalizeSigned180(bearing - headingDeg)

	duration := o.player.PlayCue(o.cfg.LandmarkAssetPath, "landmark", azimuth, 0)
	o.metrics.RecordCuePlayed("landmark", duration.Milliseconds())
	o.log.Debug("landmark cue",
		"name", target.Name,
		"distance_m", distance,
		"azimuth", azimuth,
		"duration_ms", duration.Milliseconds())

	o.mu.Lock()
	o.lastLandmarkCue = time.Now()
	o.mu.Unlock()

	return sleepCtx(ctx, duration)
}

// emitObjectCues plays the plan's entries ordered by each track's current
// horizontal azimuth, left to right, waiting out each cue plus the
// inter-cue gap (skipped after the last entry).
func (o *Orchestrator) emitObjectCues(ctx context.Context, plan sonify.SceneCuePlan) {
	entries := make([]sonify.SceneCueEntry, len(plan.Entries))
	copy(entries, plan.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return o.boxAzimuth(entries[i].Candidate.Box) < o.boxAzimuth(entries[j].Candidate.Box)
	})

	headingDeg, headingOK := o.heading.Heading()

	for i, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		azimuth := o.boxAzimuth(entry.Candidate.Box)
		elevation := o.boxElevation(entry.Candidate.Box)

		if headingOK {
			o.log.Debug("object cue",
				"track_id", entry.Candidate.TrackID,
				"label", entry.Candidate.Label,
				"world_bearing", hrir.NormalizeSigned180(headingDeg+azimuth))
		}

		duration := o.player.PlayCue(entry.Candidate.SoundAssetPath, entry.Candidate.Label, azimuth, elevation)
		o.metrics.RecordCuePlayed("object", duration.Milliseconds())

		wait := duration
		if i < len(entries)-1 {
			wait += time.Duration(plan.InterCueGapMs) * time.Millisecond
		}
		if wait > 0 && !sleepCtx(ctx, wait) {
			return
		}
	}
}

// boxAzimuth maps a box's horizontal center offset onto a heading-relative
// azimuth using the camera's horizontal field of view.
func (o *Orchestrator) boxAzimuth(box tracker.DetectionBox) float64 {
	cx, _ := box.Center()
	return (cx - 0.5) * o.cfg.HorizontalFOVDeg
}

// boxElevation maps a box's vertical center offset onto an elevation angle,
// clamped to +/-45 degrees. Screen y grows downward.
func (o *Orchestrator) boxElevation(box tracker.DetectionBox) float64 {
	_, cy := box.Center()
	return dsp.Clamp((0.5-cy)*o.cfg.VerticalFOVDeg, -45, 45)
}

// sleepCtx waits for d or until the context is cancelled; false on cancel.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
