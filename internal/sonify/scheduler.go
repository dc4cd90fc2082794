package sonify

import (
	"log/slog"
	"math"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/echosight/echosight-go/internal/dsp"
	"github.com/echosight/echosight-go/internal/logging"
)

// Refresh rate bounds for the scene window. 0.3 Hz gives the longest usable
// window (~3.3s), 3 Hz the shortest (~333ms).
const (
	minRefreshRateHz = 0.3
	maxRefreshRateHz = 3.0
)

// SceneWindowMs converts a cue refresh rate into the per-cycle time budget
// in milliseconds: 1000 / clamp(rate, 0.3, 3.0), floored, minimum 1.
func SceneWindowMs(refreshRateHz float64) int64 {
	rate := dsp.Clamp(refreshRateHz, minRefreshRateHz, maxRefreshRateHz)
	ms := int64(math.Floor(1000.0 / rate))
	if ms < 1 {
		ms = 1
	}
	return ms
}

// SceneCueEntry is one admitted cue with its resolved playback duration.
type SceneCueEntry struct {
	Candidate  RankedCandidate
	DurationMs int64
}

// SceneCuePlan is the read-only result of one scheduling cycle.
type SceneCuePlan struct {
	Entries                []SceneCueEntry
	SceneWindowMs          int64
	MaxCommunicableObjects int
	InterCueGapMs          int64
}

// DurationResolver reports the playback duration of a sound asset. The
// scheduler treats a failure as "use the fallback default".
type DurationResolver func(assetPath string) (time.Duration, error)

// Scheduler fits ranked cue candidates into the scene window budget.
type Scheduler struct {
	interCueGapMs     int64
	defaultDurationMs int64
	resolve           DurationResolver
	durations         *gocache.Cache
	log               *slog.Logger
}

// NewScheduler creates a scene cue scheduler. Resolved asset durations are
// cached without expiry; the asset set is small and fixed.
func NewScheduler(interCueGapMs, defaultDurationMs int64, resolve DurationResolver) *Scheduler {
	return &Scheduler{
		interCueGapMs:     interCueGapMs,
		defaultDurationMs: defaultDurationMs,
		resolve:           resolve,
		durations:         gocache.New(gocache.NoExpiration, 0),
		log:               logging.ForService("scheduler"),
	}
}

// BuildScenePlan walks ranked candidates in order, admitting each one whose
// duration plus inter-cue gap (applied after the first entry) still fits the
// window. Candidates that do not fit are skipped, not aborted, so shorter
// lower-ranked cues can still be admitted. If not even the top candidate
// fits alone, it is force-admitted so a non-empty scene always yields at
// least one cue.
func (s *Scheduler) BuildScenePlan(ranked []RankedCandidate, refreshRateHz float64) SceneCuePlan {
	windowMs := SceneWindowMs(refreshRateHz)
	plan := SceneCuePlan{
		SceneWindowMs: windowMs,
		InterCueGapMs: s.interCueGapMs,
	}

	consumed := int64(0)
	for i := range ranked {
		durationMs := s.assetDurationMs(ranked[i].SoundAssetPath)

		increment := durationMs
		if len(plan.Entries) > 0 {
			increment += s.interCueGapMs
		}

		if consumed+increment > windowMs {
			continue
		}
		consumed += increment
		plan.Entries = append(plan.Entries, SceneCueEntry{Candidate: ranked[i], DurationMs: durationMs})
	}

	if len(plan.Entries) == 0 && len(ranked) > 0 {
		durationMs := s.assetDurationMs(ranked[0].SoundAssetPath)
		plan.Entries = append(plan.Entries, SceneCueEntry{Candidate: ranked[0], DurationMs: durationMs})
		s.log.Debug("forced single cue over budget",
			"asset", ranked[0].SoundAssetPath,
			"duration_ms", durationMs,
			"window_ms", windowMs)
	}

	plan.MaxCommunicableObjects = len(plan.Entries)
	return plan
}

// assetDurationMs resolves and caches the playback duration of an asset,
// falling back to the configured default when probing fails.
func (s *Scheduler) assetDurationMs(assetPath string) int64 {
	if cached, ok := s.durations.Get(assetPath); ok {
		return cached.(int64)
	}

	durationMs := s.defaultDurationMs
	if s.resolve != nil {
		if d, err := s.resolve(assetPath); err == nil && d > 0 {
			durationMs = d.Milliseconds()
			if durationMs < 1 {
				durationMs = 1
			}
		} else if err != nil {
			s.log.Debug("duration probe failed, using default",
				"asset", assetPath, "default_ms", s.defaultDurationMs, "error", err)
		}
	}

	s.durations.Set(assetPath, durationMs, gocache.NoExpiration)
	return durationMs
}
