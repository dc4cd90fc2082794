// Package cmd assembles the echosight command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/echosight/echosight-go/cmd/hrir"
	"github.com/echosight/echosight-go/cmd/realtime"
	"github.com/echosight/echosight-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echosight",
		Short: "EchoSight-Go spatial audio navigation CLI",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		realtime.Command(settings),
		hrir.Command(settings),
	)

	return rootCmd
}

// setupFlags defines flags global to the command line interface, bound
// through viper so config.yaml values remain the fallback.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().Float64Var(&settings.Sonify.RefreshRateHz, "refreshrate", viper.GetFloat64("sonify.refreshratehz"), "Scene refresh rate in Hz, clamped to 0.3-3.0")
	rootCmd.PersistentFlags().StringVar(&settings.Sonify.AssetRoot, "assetroot", viper.GetString("sonify.assetroot"), "Directory holding the mono cue sound assets")
	rootCmd.PersistentFlags().StringVar(&settings.Audio.HRIRPath, "hrir", viper.GetString("audio.hrirpath"), "Path to the compact HRIR binary database")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(fmt.Errorf("error binding flags: %w", err))
	}
}
