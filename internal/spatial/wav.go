// Package spatial implements the binaural spatial audio engine: WAV asset
// decoding, resampling and tilt shaping, HRIR convolution with stereo-pan
// fallback, PCM interleaving and playback through the output sink with
// live route adaptation.
package spatial

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/echosight/echosight-go/internal/errors"
)

// MonoPCM is a decoded sound asset: mono float samples in [-1,1] at the
// container's sample rate. Immutable once decoded.
type MonoPCM struct {
	SampleRateHz int
	Samples      []float64
}

// DurationMs returns the playback duration at the source rate, minimum 1ms
// for non-empty audio.
func (p *MonoPCM) DurationMs() int64 {
	if p == nil || len(p.Samples) == 0 || p.SampleRateHz <= 0 {
		return 0
	}
	ms := int64(len(p.Samples)) * 1000 / int64(p.SampleRateHz)
	if ms < 1 {
		ms = 1
	}
	return ms
}

// pcm16Divisor converts signed 16-bit integer samples to [-1,1] floats.
const pcm16Divisor = 32768.0

// decodeWAV parses a PCM16 WAVE file into mono samples. Uncompressed
// integer PCM only, 16-bit, 1 or 2 channels; stereo is downmixed by
// averaging. Malformed input yields an error, never a panic.
func decodeWAV(path string) (*MonoPCM, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("spatial").
			Category(errors.CategoryFileIO).
			Context("operation", "open_asset").
			Context("path", path).
			Build()
	}
	defer file.Close() //nolint:errcheck // read-only file

	decoder := wav.NewDecoder(file)
	decoder.ReadInfo()

	if !decoder.IsValidFile() {
		return nil, errors.Newf("invalid WAV file format").
			Component("spatial").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if decoder.WavAudioFormat != 1 {
		return nil, errors.Newf("unsupported WAV audio format %d, want uncompressed PCM", decoder.WavAudioFormat).
			Component("spatial").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if decoder.BitDepth != 16 {
		return nil, errors.Newf("unsupported bit depth: %d", decoder.BitDepth).
			Component("spatial").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}
	if decoder.NumChans != 1 && decoder.NumChans != 2 {
		return nil, errors.Newf("unsupported number of channels: %d", decoder.NumChans).
			Component("spatial").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	channels := int(decoder.NumChans)
	sampleRate := int(decoder.SampleRate)

	var samples []float64
	buf := &audio.IntBuffer{
		Data:   make([]int, 8192),
		Format: &audio.Format{SampleRate: sampleRate, NumChannels: channels},
	}
	for {
		n, err := decoder.PCMBuffer(buf)
		if err != nil {
			return nil, errors.New(err).
				Component("spatial").
				Category(errors.CategoryFileParsing).
				Context("operation", "read_pcm").
				Context("path", path).
				Build()
		}
		if n == 0 {
			break
		}

		data := buf.Data[:n]
		if channels == 1 {
			for _, s := range data {
				samples = append(samples, float64(s)/pcm16Divisor)
			}
			continue
		}
		// Stereo downmix by averaging channel pairs.
		for i := 0; i+1 < len(data); i += 2 {
			l := float64(data[i]) / pcm16Divisor
			r := float64(data[i+1]) / pcm16Divisor
			samples = append(samples, (l+r)/2)
		}
	}

	if sampleRate <= 0 {
		return nil, errors.Newf("invalid sample rate %d", sampleRate).
			Component("spatial").
			Category(errors.CategoryFileParsing).
			Context("path", path).
			Build()
	}

	return &MonoPCM{SampleRateHz: sampleRate, Samples: samples}, nil
}
