package conf

import "github.com/spf13/viper"

// setDefaultConfig registers the default value for every configuration
// parameter. Values follow the tuning of the reference hardware build.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main
	viper.SetDefault("main.name", "EchoSight")
	viper.SetDefault("main.logpath", "logs/echosight.log")

	// Object tracker
	viper.SetDefault("tracker.maxtracks", 8)
	viper.SetDefault("tracker.miniouformatch", 0.3)
	viper.SetDefault("tracker.staletracktimeoutms", 1500)

	// Sonification and scheduling
	viper.SetDefault("sonify.enabled", true)
	viper.SetDefault("sonify.refreshratehz", 1.0)
	viper.SetDefault("sonify.intercuegapms", 120)
	viper.SetDefault("sonify.confidencefloor", 0.35)
	viper.SetDefault("sonify.defaultcuedurationms", 400)
	viper.SetDefault("sonify.assetroot", "assets/sounds")
	viper.SetDefault("sonify.onlyclass", "")

	// Binaural audio engine
	viper.SetDefault("audio.hrirpath", "assets/hrir/hrir.bin")
	viper.SetDefault("audio.sofapath", "")
	viper.SetDefault("audio.maxsofabytes", 64*1024*1024)
	viper.SetDefault("audio.preferwireless", true)
	viper.SetDefault("audio.rebindcooldownms", 250)

	// Scene loop
	viper.SetDefault("scene.northcue", true)
	viper.SetDefault("scene.northcooldownms", 7000)
	viper.SetDefault("scene.landmarkcue", true)
	viper.SetDefault("scene.landmarkcooldownms", 10000)
	viper.SetDefault("scene.verticalfovdeg", 60.0)

	// Landmark store
	viper.SetDefault("landmarks.path", "landmarks.yaml")
}
