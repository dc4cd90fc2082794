package spatial

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/echosight/echosight-go/internal/dsp"
	"github.com/echosight/echosight-go/internal/hrir"
	"github.com/echosight/echosight-go/internal/logging"
	"github.com/echosight/echosight-go/internal/observability/metrics"
	"github.com/echosight/echosight-go/internal/sonify"
)

// Target sample rate bounds for cue rendering.
const (
	minTargetRateHz = 8000
	maxTargetRateHz = 96000
)

// Config holds the engine's output-routing behavior.
type Config struct {
	PreferWireless bool
	RebindCooldown time.Duration
}

// Engine renders mono sound assets into spatialized stereo cues and plays
// them through the output sink. The HRIR database is optional; without it
// cues fall back to the stereo pan law.
type Engine struct {
	db       *hrir.Database
	profiles *sonify.Profiles
	sink     Sink
	metrics  *metrics.SonifyMetrics
	cfg      Config
	log      *slog.Logger

	pcmCache *gocache.Cache

	traceMu   sync.Mutex
	lastTrace string

	routeMu       sync.Mutex
	route         RouteState
	lastRebind    time.Time
	routeListener func(RouteState)
	activePCM     []byte
	activeRate    int
	activeUntil   time.Time
}

// RouteState is the engine's view of the active output route.
type RouteState struct {
	DeviceID string
	Name     string
	Wireless bool
}

// NewEngine creates the binaural engine. db may be nil (pan-law fallback),
// m may be nil (metrics disabled).
func NewEngine(db *hrir.Database, profiles *sonify.Profiles, sink Sink, m *metrics.SonifyMetrics, cfg Config) *Engine {
	if cfg.RebindCooldown <= 0 {
		cfg.RebindCooldown = 250 * time.Millisecond
	}
	e := &Engine{
		db:       db,
		profiles: profiles,
		sink:     sink,
		metrics:  m,
		cfg:      cfg,
		log:      logging.ForService("spatial"),
		pcmCache: gocache.New(gocache.NoExpiration, 0),
	}

	e.route = e.evaluateRoute()
	sink.SetRouteChangeListener(e.onRouteChange)
	return e
}

// PlayCue renders and plays one spatial cue and returns its rendered
// duration, or zero when any stage failed. The per-stage outcome is kept as
// the latest debug trace.
func (e *Engine) PlayCue(assetPath, label string, azimuthDeg, elevationDeg float64) time.Duration {
	var trace []string
	defer func() { e.setTrace(trace) }()

	profile := e.profiles.Get(label)

	pcm, err := e.cachedDecode(assetPath)
	if err != nil {
		trace = append(trace, fmt.Sprintf("decode %s: %v", assetPath, err))
		e.metrics.RecordDecodeError()
		e.metrics.RecordCueFailure("decode")
		e.log.Warn("asset decode failed", "asset", assetPath, "error", err)
		return 0
	}
	trace = append(trace, fmt.Sprintf("decode %s: %d samples at %d Hz", assetPath, len(pcm.Samples), pcm.SampleRateHz))

	targetRate := e.targetRate(pcm.SampleRateHz, profile.PlaybackRateScale)
	mono := dsp.Resample(pcm.Samples, pcm.SampleRateHz, targetRate)
	trace = append(trace, fmt.Sprintf("resample: %d samples at %d Hz", len(mono), targetRate))

	shaped := dsp.ShapeTilt(mono, profile.TiltEQ, profile.Gain)

	var left, right []float64
	if entry := e.db.Nearest(azimuthDeg, elevationDeg); entry != nil {
		left = dsp.Convolve(shaped, entry.Left)
		right = dsp.Convolve(shaped, entry.Right)
		dsp.NormalizePair(left, right)
		trace = append(trace, fmt.Sprintf("hrir: matched az=%.1f el=%.1f", entry.AzimuthDeg, entry.ElevationDeg))
	} else {
		lg, rg := dsp.PanGains(azimuthDeg, elevationDeg)
		left = make([]float64, len(shaped))
		right = make([]float64, len(shaped))
		for i, s := range shaped {
			left[i] = s * lg
			right[i] = s * rg
		}
		trace = append(trace, fmt.Sprintf("pan: l=%.3f r=%.3f", lg, rg))
		e.metrics.RecordHRIRFallback()
	}

	stereo := dsp.InterleaveS16LE(left, right)

	deviceID := e.preferredDeviceID()
	if err := e.sink.Play(stereo, targetRate, deviceID); err != nil {
		trace = append(trace, fmt.Sprintf("play: %v", err))
		e.metrics.RecordCueFailure("play")
		e.log.Warn("cue playback failed", "asset", assetPath, "device_id", deviceID, "error", err)
		return 0
	}

	frames := len(stereo) / 4
	durationMs := int64(frames) * 1000 / int64(targetRate)
	if durationMs < 1 {
		durationMs = 1
	}

	e.routeMu.Lock()
	e.activePCM = stereo
	e.activeRate = targetRate
	e.activeUntil = time.Now().Add(time.Duration(durationMs) * time.Millisecond)
	e.routeMu.Unlock()
	trace = append(trace, fmt.Sprintf("play: ok, %d frames, %d ms", frames, durationMs))
	return time.Duration(durationMs) * time.Millisecond
}

// ProbeDuration reports the rendered duration an asset would have for the
// given class label, without playing it. Used by the scene scheduler.
func (e *Engine) ProbeDuration(assetPath, label string) (time.Duration, error) {
	pcm, err := e.cachedDecode(assetPath)
	if err != nil {
		return 0, err
	}

	profile := e.profiles.Get(label)
	targetRate := e.targetRate(pcm.SampleRateHz, profile.PlaybackRateScale)

	frames := len(dsp.Resample(pcm.Samples, pcm.SampleRateHz, targetRate))
	if e.db != nil && e.db.TapCount > 0 {
		frames += e.db.TapCount - 1
	}

	durationMs := int64(frames) * 1000 / int64(targetRate)
	if durationMs < 1 {
		durationMs = 1
	}
	return time.Duration(durationMs) * time.Millisecond, nil
}

// Stop halts any in-flight cue playback.
func (e *Engine) Stop() {
	e.sink.Stop()
	e.routeMu.Lock()
	e.activePCM = nil
	e.routeMu.Unlock()
}

// LastTrace returns the per-stage diagnostic of the most recent cue.
func (e *Engine) LastTrace() string {
	e.traceMu.Lock()
	defer e.traceMu.Unlock()
	return e.lastTrace
}

// SetRouteListener registers the callback notified when the output route
// actually changes.
func (e *Engine) SetRouteListener(fn func(RouteState)) {
	e.routeMu.Lock()
	defer e.routeMu.Unlock()
	e.routeListener = fn
}

// Route returns the engine's current output route.
func (e *Engine) Route() RouteState {
	e.routeMu.Lock()
	defer e.routeMu.Unlock()
	return e.route
}

// Close stops playback, clears the decode cache and releases the sink.
func (e *Engine) Close() error {
	e.Stop()
	e.pcmCache.Flush()
	return e.sink.Close()
}

func (e *Engine) setTrace(stages []string) {
	e.traceMu.Lock()
	e.lastTrace = strings.Join(stages, "; ")
	e.traceMu.Unlock()
}

// targetRate derives the rendering sample rate: HRIR database rate when
// available (source rate otherwise) scaled by the class playback rate,
// clamped to [8000, 96000] Hz.
func (e *Engine) targetRate(sourceRate int, playbackRateScale float64) int {
	base := sourceRate
	if e.db != nil && e.db.SampleRateHz > 0 {
		base = e.db.SampleRateHz
	}
	rate := int(dsp.Clamp(float64(base)*playbackRateScale, minTargetRateHz, maxTargetRateHz))
	return rate
}

func (e *Engine) cachedDecode(assetPath string) (*MonoPCM, error) {
	if cached, ok := e.pcmCache.Get(assetPath); ok {
		return cached.(*MonoPCM), nil
	}
	pcm, err := decodeWAV(assetPath)
	if err != nil {
		return nil, err
	}
	e.pcmCache.Set(assetPath, pcm, gocache.NoExpiration)
	return pcm, nil
}
