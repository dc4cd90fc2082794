package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echosight/echosight-go/internal/errors"
)

func validSettings() *Settings {
	return &Settings{
		Tracker: TrackerSettings{
			MaxTracks:           8,
			MinIouForMatch:      0.3,
			StaleTrackTimeoutMs: 1500,
		},
		Sonify: SonifySettings{
			InterCueGapMs:   120,
			ConfidenceFloor: 0.35,
		},
		Audio: AudioSettings{
			MaxSOFABytes: 64 << 20,
		},
		Scene: SceneSettings{
			VerticalFOVDeg: 60,
		},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateSettings(validSettings()))
	})

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero_max_tracks", func(s *Settings) { s.Tracker.MaxTracks = 0 }},
		{"negative_min_iou", func(s *Settings) { s.Tracker.MinIouForMatch = -0.1 }},
		{"min_iou_above_one", func(s *Settings) { s.Tracker.MinIouForMatch = 1.5 }},
		{"zero_stale_timeout", func(s *Settings) { s.Tracker.StaleTrackTimeoutMs = 0 }},
		{"negative_gap", func(s *Settings) { s.Sonify.InterCueGapMs = -1 }},
		{"confidence_floor_at_one", func(s *Settings) { s.Sonify.ConfidenceFloor = 1.0 }},
		{"zero_sofa_cap", func(s *Settings) { s.Audio.MaxSOFABytes = 0 }},
		{"zero_vertical_fov", func(s *Settings) { s.Scene.VerticalFOVDeg = 0 }},
		{"oversized_vertical_fov", func(s *Settings) { s.Scene.VerticalFOVDeg = 181 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}
