// Package dsp implements the signal processing primitives of the binaural
// cue pipeline: linear resampling, tilt/gain shaping, direct convolution,
// the stereo pan law fallback and PCM interleaving.
package dsp

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Resample converts samples from srcRate to dstRate using linear
// interpolation at fractional source positions. Returns the input unchanged
// when the rates match or the input is empty.
func Resample(samples []float64, srcRate, dstRate int) []float64 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(dstRate) / float64(srcRate)
	outLen := int(math.Round(float64(len(samples)) * ratio))
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float64, outLen)
	if outLen == 1 {
		out[0] = samples[0]
		return out
	}

	// Map output indices onto [0, len-1] of the source.
	step := float64(len(samples)-1) / float64(outLen-1)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// ShapeTilt applies the per-class timbre shaping: a one-pole high-pass
// difference mixed back into the dry signal scaled by tiltEQ, the result
// scaled by gain and hard-clamped to [-1,1]. The input slice is not modified.
func ShapeTilt(samples []float64, tiltEQ, gain float64) []float64 {
	out := make([]float64, len(samples))
	prev := 0.0
	for i, s := range samples {
		shaped := (s + tiltEQ*(s-prev)) * gain
		out[i] = Clamp(shaped, -1, 1)
		prev = s
	}
	return out
}

// Convolve computes the direct convolution of signal with ir. Output length
// is len(signal)+len(ir)-1. Either input empty yields nil.
func Convolve(signal, ir []float64) []float64 {
	if len(signal) == 0 || len(ir) == 0 {
		return nil
	}
	out := make([]float64, len(signal)+len(ir)-1)
	for i, s := range signal {
		if s == 0 {
			continue
		}
		for j, h := range ir {
			out[i+j] += s * h
		}
	}
	return out
}

// PeakPair returns the largest absolute sample value across both channels.
func PeakPair(left, right []float64) float64 {
	var peak float64
	if len(left) > 0 {
		peak = floats.Norm(left, math.Inf(1))
	}
	if len(right) > 0 {
		peak = math.Max(peak, floats.Norm(right, math.Inf(1)))
	}
	return peak
}

// NormalizePair scales both channels down in place when their combined peak
// magnitude exceeds 1.0. Signals already within range are left untouched.
func NormalizePair(left, right []float64) {
	peak := PeakPair(left, right)
	if peak <= 1.0 || peak == 0 {
		return
	}
	scale := 1.0 / peak
	floats.Scale(scale, left)
	floats.Scale(scale, right)
}

// PanGains computes the stereo pan law gains used when no HRIR is available:
// pan = clamp(az/90, -1, 1), angle = (pan+1)*pi/4, left = cos, right = sin,
// with up to 10% attenuation at +/-90 degrees elevation.
func PanGains(azimuthDeg, elevationDeg float64) (left, right float64) {
	pan := Clamp(azimuthDeg/90.0, -1, 1)
	angle := (pan + 1) * math.Pi / 4
	left = math.Cos(angle)
	right = math.Sin(angle)

	elev := math.Min(math.Abs(elevationDeg), 90.0)
	atten := 1.0 - 0.1*(elev/90.0)
	return left * atten, right * atten
}

// InterleaveS16LE interleaves left/right float channels into 16-bit
// little-endian stereo PCM, clamping samples to the int16 range. Channels of
// unequal length are zero-padded to the longer one.
func InterleaveS16LE(left, right []float64) []byte {
	frames := max(len(left), len(right))
	out := make([]byte, frames*4)
	for i := range frames {
		var l, r float64
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		binary.LittleEndian.PutUint16(out[i*4:], uint16(sampleToS16(l)))
		binary.LittleEndian.PutUint16(out[i*4+2:], uint16(sampleToS16(r)))
	}
	return out
}

func sampleToS16(s float64) int16 {
	v := math.Round(Clamp(s, -1, 1) * 32767.0)
	return int16(v)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
