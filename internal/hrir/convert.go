package hrir

import (
	"math"
	"sort"

	"github.com/echosight/echosight-go/internal/dsp"
	"github.com/echosight/echosight-go/internal/errors"
)

// ConvertOptions controls downsampling of a measurement database into the
// compact on-device form.
type ConvertOptions struct {
	TargetSampleRateHz int
	TapCount           int
	AzStepDeg          float64
	ElStepDeg          float64
}

// DefaultConvertOptions matches the reference device build: 24 kHz, 192 taps,
// 3 degree grid.
func DefaultConvertOptions() ConvertOptions {
	return ConvertOptions{
		TargetSampleRateHz: 24000,
		TapCount:           192,
		AzStepDeg:          3.0,
		ElStepDeg:          3.0,
	}
}

type binKey struct {
	az int
	el int
}

// Convert reduces a loaded measurement database to the compact grid: one
// entry per azimuth/elevation bin (first measurement wins), impulse
// responses resampled to the target rate, truncated or zero-padded to the
// tap count, and peak-normalized per pair when over full scale.
func Convert(src *Database, opts ConvertOptions) (*Database, error) {
	if src == nil || len(src.Entries) == 0 {
		return nil, errors.Newf("no HRIR entries to convert").
			Component("hrir").
			Category(errors.CategoryValidation).
			Build()
	}
	if opts.TargetSampleRateHz <= 0 || opts.TapCount <= 0 || opts.AzStepDeg <= 0 || opts.ElStepDeg <= 0 {
		return nil, errors.Newf("invalid convert options %+v", opts).
			Component("hrir").
			Category(errors.CategoryValidation).
			Build()
	}

	binned := make(map[binKey]*Entry)
	for i := range src.Entries {
		e := &src.Entries[i]
		key := binKey{
			az: int(math.Round(NormalizeSigned180(e.AzimuthDeg) / opts.AzStepDeg)),
			el: int(math.Round(e.ElevationDeg / opts.ElStepDeg)),
		}
		if _, seen := binned[key]; seen {
			continue
		}
		binned[key] = e
	}

	keys := make([]binKey, 0, len(binned))
	for k := range binned {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].az != keys[j].az {
			return keys[i].az < keys[j].az
		}
		return keys[i].el < keys[j].el
	})

	out := &Database{
		SampleRateHz: opts.TargetSampleRateHz,
		TapCount:     opts.TapCount,
		Entries:      make([]Entry, 0, len(keys)),
	}
	for _, k := range keys {
		e := binned[k]
		left := fitTaps(dsp.Resample(e.Left, src.SampleRateHz, opts.TargetSampleRateHz), opts.TapCount)
		right := fitTaps(dsp.Resample(e.Right, src.SampleRateHz, opts.TargetSampleRateHz), opts.TapCount)
		dsp.NormalizePair(left, right)

		out.Entries = append(out.Entries, Entry{
			AzimuthDeg:   e.AzimuthDeg,
			ElevationDeg: e.ElevationDeg,
			Left:         left,
			Right:        right,
		})
	}

	return out, nil
}

// fitTaps truncates or zero-pads samples to exactly n taps.
func fitTaps(samples []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, samples)
	return out
}
