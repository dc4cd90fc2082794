// Package conf handles loading and validation of echosight settings from
// config.yaml and environment overrides.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/spf13/viper"
)

// TrackerSettings controls multi-object track identity continuity.
type TrackerSettings struct {
	MaxTracks           int     `yaml:"maxtracks"`
	MinIouForMatch      float64 `yaml:"miniouformatch"`
	StaleTrackTimeoutMs int64   `yaml:"staletracktimeoutms"`
}

// SonifySettings controls ranking and scene cue scheduling.
type SonifySettings struct {
	Enabled              bool    `yaml:"enabled"`
	RefreshRateHz        float64 `yaml:"refreshratehz"`
	InterCueGapMs        int64   `yaml:"intercuegapms"`
	ConfidenceFloor      float64 `yaml:"confidencefloor"`
	DefaultCueDurationMs int64   `yaml:"defaultcuedurationms"`
	AssetRoot            string  `yaml:"assetroot"`
	OnlyClass            string  `yaml:"onlyclass"`
}

// AudioSettings controls the binaural engine and output routing.
type AudioSettings struct {
	HRIRPath         string `yaml:"hrirpath"`
	SOFAPath         string `yaml:"sofapath"`
	MaxSOFABytes     int64  `yaml:"maxsofabytes"`
	PreferWireless   bool   `yaml:"preferwireless"`
	RebindCooldownMs int64  `yaml:"rebindcooldownms"`
}

// SceneSettings controls the orchestrator's periodic cue loop.
type SceneSettings struct {
	NorthCue           bool    `yaml:"northcue"`
	NorthCooldownMs    int64   `yaml:"northcooldownms"`
	LandmarkCue        bool    `yaml:"landmarkcue"`
	LandmarkCooldownMs int64   `yaml:"landmarkcooldownms"`
	VerticalFOVDeg     float64 `yaml:"verticalfovdeg"`
}

// LandmarkSettings controls the saved-landmark store.
type LandmarkSettings struct {
	Path string `yaml:"path"`
}

// Settings is the root configuration for echosight.
type Settings struct {
	Debug bool `yaml:"debug"`

	Main struct {
		Name    string `yaml:"name"`
		LogPath string `yaml:"logpath"`
	} `yaml:"main"`

	Tracker   TrackerSettings  `yaml:"tracker"`
	Sonify    SonifySettings   `yaml:"sonify"`
	Audio     AudioSettings    `yaml:"audio"`
	Scene     SceneSettings    `yaml:"scene"`
	Landmarks LandmarkSettings `yaml:"landmarks"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// Setting returns the most recently loaded settings instance, or nil when
// Load has not been called.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Missing config file is fine, defaults carry the pipeline.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the list of configuration directories
// searched for config.yaml, based on OS conventions. If a config.yaml is
// found in one of the paths, only that path is returned.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "echosight-go"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "echosight-go"),
			"/etc/echosight-go",
		}
	}

	for _, path := range configPaths {
		configFile := filepath.Join(path, "config.yaml")
		if _, err := os.Stat(configFile); err == nil {
			return []string{path}, nil
		}
	}

	return configPaths, nil
}
