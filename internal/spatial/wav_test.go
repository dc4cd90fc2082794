package spatial

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestWAV encodes int16 PCM frames into a WAV file and returns its path.
func writeTestWAV(t *testing.T, name string, sampleRate, channels, audioFormat int, data []int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	out, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(out, sampleRate, 16, channels, audioFormat)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: sampleRate, NumChannels: channels},
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, out.Close())
	return path
}

func TestDecodeWAV(t *testing.T) {
	t.Run("mono_pcm16", func(t *testing.T) {
		data := make([]int, 100)
		for i := range data {
			data[i] = 16384 // 0.5 full scale
		}
		path := writeTestWAV(t, "mono.wav", 16000, 1, 1, data)

		pcm, err := decodeWAV(path)
		require.NoError(t, err)
		assert.Equal(t, 16000, pcm.SampleRateHz)
		require.Len(t, pcm.Samples, 100)
		assert.InDelta(t, 0.5, pcm.Samples[0], 1e-9)
		assert.InDelta(t, 0.5, pcm.Samples[99], 1e-9)
	})

	t.Run("stereo_downmixes_by_averaging", func(t *testing.T) {
		// Left at full scale, right silent, 10 frames.
		data := make([]int, 20)
		for i := 0; i < len(data); i += 2 {
			data[i] = 32767
		}
		path := writeTestWAV(t, "stereo.wav", 24000, 2, 1, data)

		pcm, err := decodeWAV(path)
		require.NoError(t, err)
		assert.Equal(t, 24000, pcm.SampleRateHz)
		require.Len(t, pcm.Samples, 10)
		assert.InDelta(t, 32767.0/32768.0/2, pcm.Samples[0], 1e-9)
	})

	t.Run("rejects_non_pcm_format", func(t *testing.T) {
		path := writeTestWAV(t, "float.wav", 16000, 1, 3, []int{0, 0, 0, 0})

		_, err := decodeWAV(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported WAV audio format")
	})

	t.Run("rejects_garbage_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "garbage.wav")
		require.NoError(t, os.WriteFile(path, []byte("not a riff container"), 0o644))

		_, err := decodeWAV(path)
		assert.Error(t, err)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := decodeWAV(filepath.Join(t.TempDir(), "nope.wav"))
		assert.Error(t, err)
	})
}

func TestMonoPCMDurationMs(t *testing.T) {
	tests := []struct {
		name string
		pcm  *MonoPCM
		want int64
	}{
		{"nil", nil, 0},
		{"empty", &MonoPCM{SampleRateHz: 16000}, 0},
		{"hundred_ms", &MonoPCM{SampleRateHz: 16000, Samples: make([]float64, 1600)}, 100},
		{"sub_millisecond_rounds_up", &MonoPCM{SampleRateHz: 48000, Samples: make([]float64, 10)}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pcm.DurationMs())
		})
	}
}

func TestLooksWireless(t *testing.T) {
	assert.True(t, looksWireless("WH-1000XM4 Bluetooth"))
	assert.True(t, looksWireless("AirPods Pro"))
	assert.True(t, looksWireless("USB Wireless Headset"))
	assert.False(t, looksWireless("Built-in Speakers"))
	assert.False(t, looksWireless("HDMI Output"))
}
