package conf

import (
	"github.com/echosight/echosight-go/internal/errors"
)

// ValidateSettings checks the loaded settings for values the pipeline cannot
// run with. Out-of-range but recoverable values (e.g. refresh rate) are left
// alone since the scheduler clamps them at use.
func ValidateSettings(settings *Settings) error {
	if settings.Tracker.MaxTracks <= 0 {
		return errors.Newf("tracker.maxtracks must be positive, got %d", settings.Tracker.MaxTracks).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "tracker.maxtracks").
			Build()
	}

	if settings.Tracker.MinIouForMatch <= 0 || settings.Tracker.MinIouForMatch > 1 {
		return errors.Newf("tracker.miniouformatch must be in (0,1], got %f", settings.Tracker.MinIouForMatch).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "tracker.miniouformatch").
			Build()
	}

	if settings.Tracker.StaleTrackTimeoutMs <= 0 {
		return errors.Newf("tracker.staletracktimeoutms must be positive, got %d", settings.Tracker.StaleTrackTimeoutMs).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "tracker.staletracktimeoutms").
			Build()
	}

	if settings.Sonify.InterCueGapMs < 0 {
		return errors.Newf("sonify.intercuegapms must not be negative, got %d", settings.Sonify.InterCueGapMs).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "sonify.intercuegapms").
			Build()
	}

	if settings.Sonify.ConfidenceFloor < 0 || settings.Sonify.ConfidenceFloor >= 1 {
		return errors.Newf("sonify.confidencefloor must be in [0,1), got %f", settings.Sonify.ConfidenceFloor).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "sonify.confidencefloor").
			Build()
	}

	if settings.Audio.MaxSOFABytes <= 0 {
		return errors.Newf("audio.maxsofabytes must be positive, got %d", settings.Audio.MaxSOFABytes).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "audio.maxsofabytes").
			Build()
	}

	if settings.Scene.VerticalFOVDeg <= 0 || settings.Scene.VerticalFOVDeg > 180 {
		return errors.Newf("scene.verticalfovdeg must be in (0,180], got %f", settings.Scene.VerticalFOVDeg).
			Component("conf").
			Category(errors.CategoryValidation).
			Context("parameter", "scene.verticalfovdeg").
			Build()
	}

	return nil
}
