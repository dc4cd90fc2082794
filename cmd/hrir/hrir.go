// Package hrir implements the HRIR database tooling subcommands: inspecting
// compact binaries and converting SOFA measurement files into the compact
// on-device format.
package hrir

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/echosight/echosight-go/internal/conf"
	hrirdb "github.com/echosight/echosight-go/internal/hrir"
)

// Command returns the hrir subcommand group.
func Command(settings *conf.Settings) *cobra.Command {
	hrirCmd := &cobra.Command{
		Use:   "hrir",
		Short: "Inspect and convert HRIR databases",
	}
	hrirCmd.AddCommand(infoCommand(), convertCommand(settings))
	return hrirCmd
}

func infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [hrir.bin]",
		Short: "Print a summary of a compact HRIR binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := hrirdb.LoadCompact(args[0])
			if err != nil {
				return err
			}

			fmt.Printf("file:        %s\n", args[0])
			fmt.Printf("sample rate: %d Hz\n", db.SampleRateHz)
			fmt.Printf("taps:        %d per ear\n", db.TapCount)
			fmt.Printf("entries:     %d\n", len(db.Entries))

			minAz, maxAz := db.Entries[0].AzimuthDeg, db.Entries[0].AzimuthDeg
			minEl, maxEl := db.Entries[0].ElevationDeg, db.Entries[0].ElevationDeg
			for _, e := range db.Entries[1:] {
				minAz = min(minAz, e.AzimuthDeg)
				maxAz = max(maxAz, e.AzimuthDeg)
				minEl = min(minEl, e.ElevationDeg)
				maxEl = max(maxEl, e.ElevationDeg)
			}
			fmt.Printf("azimuth:     %.1f to %.1f deg\n", minAz, maxAz)
			fmt.Printf("elevation:   %.1f to %.1f deg\n", minEl, maxEl)
			return nil
		},
	}
}

// convertMeta is the JSON metadata printed after a conversion.
type convertMeta struct {
	Input              string  `json:"input"`
	Output             string  `json:"output"`
	SourceSampleRateHz int     `json:"source_sample_rate_hz"`
	TargetSampleRateHz int     `json:"target_sample_rate_hz"`
	SourceEntries      int     `json:"source_entries"`
	TapCount           int     `json:"tap_count"`
	EntryCount         int     `json:"entry_count"`
	AzStepDeg          float64 `json:"az_step_deg"`
	ElStepDeg          float64 `json:"el_step_deg"`
	OutputBytes        int64   `json:"output_bytes"`
}

func convertCommand(settings *conf.Settings) *cobra.Command {
	opts := hrirdb.DefaultConvertOptions()
	var sofaPath, outPath string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a SOFA HRIR file into the compact binary format",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := hrirdb.LoadSOFA(sofaPath, settings.Audio.MaxSOFABytes)
			if err != nil {
				return err
			}

			compact, err := hrirdb.Convert(src, opts)
			if err != nil {
				return err
			}

			if err := hrirdb.WriteCompact(outPath, compact); err != nil {
				return err
			}

			info, err := os.Stat(outPath)
			if err != nil {
				return err
			}

			meta := convertMeta{
				Input:              sofaPath,
				Output:             outPath,
				SourceSampleRateHz: src.SampleRateHz,
				TargetSampleRateHz: compact.SampleRateHz,
				SourceEntries:      len(src.Entries),
				TapCount:           compact.TapCount,
				EntryCount:         len(compact.Entries),
				AzStepDeg:          opts.AzStepDeg,
				ElStepDeg:          opts.ElStepDeg,
				OutputBytes:        info.Size(),
			}
			encoded, err := json.MarshalIndent(meta, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&sofaPath, "sofa", "", "Input SOFA path")
	cmd.Flags().StringVar(&outPath, "out", "", "Output .bin path")
	cmd.Flags().IntVar(&opts.TargetSampleRateHz, "target-sr", opts.TargetSampleRateHz, "Target sample rate")
	cmd.Flags().IntVar(&opts.TapCount, "taps", opts.TapCount, "FIR taps per ear")
	cmd.Flags().Float64Var(&opts.AzStepDeg, "az-step", opts.AzStepDeg, "Azimuth bin step in degrees")
	cmd.Flags().Float64Var(&opts.ElStepDeg, "el-step", opts.ElStepDeg, "Elevation bin step in degrees")
	_ = cmd.MarkFlagRequired("sofa")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
