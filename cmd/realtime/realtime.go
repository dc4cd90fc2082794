// Package realtime implements the live pipeline command: tracker, ranking,
// scheduler, binaural engine and scene loop wired together.
package realtime

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/echosight/echosight-go/internal/conf"
	"github.com/echosight/echosight-go/internal/hrir"
	"github.com/echosight/echosight-go/internal/landmark"
	"github.com/echosight/echosight-go/internal/logging"
	"github.com/echosight/echosight-go/internal/observability/metrics"
	"github.com/echosight/echosight-go/internal/orchestrator"
	"github.com/echosight/echosight-go/internal/sonify"
	"github.com/echosight/echosight-go/internal/spatial"
	"github.com/echosight/echosight-go/internal/tracker"
)

// Command returns the realtime subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "realtime",
		Short: "Run the spatial audio cue pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(settings)
		},
	}
}

// unavailable is the placeholder heading/location source used until a
// platform sensor integration is attached; every cue opportunity that needs
// it is silently skipped.
type unavailable struct{}

func (unavailable) Heading() (float64, bool) { return 0, false }

func (unavailable) Location() (float64, float64, float64, bool) { return 0, 0, 0, false }

func run(settings *conf.Settings) error {
	log := logging.ForService("realtime")

	if settings.Main.LogPath != "" {
		fileLog, closeLog, err := logging.NewFileLogger(settings.Main.LogPath, "realtime", slog.LevelInfo)
		if err != nil {
			log.Warn("file logging disabled", "path", settings.Main.LogPath, "error", err)
		} else {
			log = fileLog
			defer closeLog() //nolint:errcheck // shutdown path
		}
	}

	db := loadHRIR(settings)

	sink, err := spatial.NewMalgoSink()
	if err != nil {
		return err
	}

	m, err := metrics.NewSonifyMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	profiles := sonify.NewProfiles(settings.Sonify.AssetRoot)
	engine := spatial.NewEngine(db, profiles, sink, m, spatial.Config{
		PreferWireless: settings.Audio.PreferWireless,
		RebindCooldown: time.Duration(settings.Audio.RebindCooldownMs) * time.Millisecond,
	})
	defer engine.Close() //nolint:errcheck // shutdown path

	scheduler := sonify.NewScheduler(
		settings.Sonify.InterCueGapMs,
		settings.Sonify.DefaultCueDurationMs,
		func(assetPath string) (time.Duration, error) {
			label := strings.TrimSuffix(filepath.Base(assetPath), filepath.Ext(assetPath))
			return engine.ProbeDuration(assetPath, label)
		},
	)

	tracks := tracker.New(tracker.Config{
		MaxTracks:           settings.Tracker.MaxTracks,
		MinIouForMatch:      settings.Tracker.MinIouForMatch,
		StaleTrackTimeoutMs: settings.Tracker.StaleTrackTimeoutMs,
	})

	store, err := landmark.NewStore(settings.Landmarks.Path)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Config{
		RefreshRateHz:     settings.Sonify.RefreshRateHz,
		ConfidenceFloor:   settings.Sonify.ConfidenceFloor,
		HorizontalFOVDeg:  horizontalFOV(settings.Scene.VerticalFOVDeg),
		VerticalFOVDeg:    settings.Scene.VerticalFOVDeg,
		SonifyEnabled:     settings.Sonify.Enabled,
		OnlyClass:         settings.Sonify.OnlyClass,
		NorthCue:          settings.Scene.NorthCue,
		NorthCooldown:     time.Duration(settings.Scene.NorthCooldownMs) * time.Millisecond,
		LandmarkCue:       settings.Scene.LandmarkCue,
		LandmarkCooldown:  time.Duration(settings.Scene.LandmarkCooldownMs) * time.Millisecond,
		NorthAssetPath:    filepath.Join(settings.Sonify.AssetRoot, "north.wav"),
		LandmarkAssetPath: filepath.Join(settings.Sonify.AssetRoot, "landmark.wav"),
	}, tracks, profiles, scheduler, engine, store, unavailable{}, unavailable{}, m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orch.Start(ctx)
	log.Info("pipeline started",
		"hrir_entries", hrirEntryCount(db),
		"scene_window_ms", sonify.SceneWindowMs(settings.Sonify.RefreshRateHz))

	// Detector and sensor feeds attach through orch.OnFrame and the
	// heading/location providers; the camera transport itself lives in the
	// platform layer.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	orch.Stop()
	return nil
}

// loadHRIR loads the configured HRIR database, preferring the SOFA source
// when one is set. A failed load is a degraded mode, not a startup failure:
// the engine falls back to the stereo pan law.
func loadHRIR(settings *conf.Settings) *hrir.Database {
	log := logging.ForService("realtime")

	if settings.Audio.SOFAPath != "" {
		db, err := hrir.LoadSOFA(settings.Audio.SOFAPath, settings.Audio.MaxSOFABytes)
		if err == nil {
			return db
		}
		log.Warn("SOFA load failed", "path", settings.Audio.SOFAPath, "error", err)
	}

	db, err := hrir.LoadCompact(settings.Audio.HRIRPath)
	if err != nil {
		log.Warn("compact HRIR load failed, using stereo pan fallback",
			"path", settings.Audio.HRIRPath, "error", err)
		return nil
	}
	return db
}

func hrirEntryCount(db *hrir.Database) int {
	if db == nil {
		return 0
	}
	return len(db.Entries)
}

// horizontalFOV derives the horizontal field of view from the vertical one
// assuming the reference camera's 4:3 sensor.
func horizontalFOV(verticalFOVDeg float64) float64 {
	return verticalFOVDeg * 4.0 / 3.0
}
