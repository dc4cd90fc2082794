package spatial

import (
	"runtime"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/echosight/echosight-go/internal/errors"
)

// Device describes one playback output device.
type Device struct {
	ID       string
	Name     string
	Wireless bool
	Default  bool
}

// Sink is the audio output boundary: it accepts interleaved 16-bit stereo
// PCM at a given sample rate, optionally bound to a specific output device,
// and surfaces device-change notifications from the platform.
type Sink interface {
	// Play starts asynchronous playback of the buffer, interrupting any
	// still-playing cue. deviceID may be empty for the default device.
	Play(pcm []byte, sampleRateHz int, deviceID string) error
	// Stop halts and releases the active playback, discarding queued audio.
	Stop()
	// Devices enumerates the available playback devices.
	Devices() ([]Device, error)
	// SetRouteChangeListener registers the callback invoked when the
	// platform reports an output-device change.
	SetRouteChangeListener(func())
	Close() error
}

// wirelessNameHints marks devices treated as wireless outputs.
var wirelessNameHints = []string{"bluetooth", "bt", "airpods", "wireless", "headset", "hands-free"}

func looksWireless(name string) bool {
	lower := strings.ToLower(name)
	for _, hint := range wirelessNameHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// MalgoSink plays PCM buffers through the platform audio backend via malgo.
type MalgoSink struct {
	mu       sync.Mutex
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	cancel   chan struct{}
	byID     map[string]malgo.DeviceInfo
	listener func()
}

// NewMalgoSink initializes the platform audio backend.
func NewMalgoSink() (*MalgoSink, error) {
	backend, err := backendForPlatform()
	if err != nil {
		return nil, err
	}

	ctx, err := malgo.InitContext([]malgo.Backend{backend}, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, errors.New(err).
			Component("spatial").
			Category(errors.CategoryAudioOutput).
			Context("operation", "init_context").
			Context("backend", runtime.GOOS).
			Build()
	}

	return &MalgoSink{
		ctx:  ctx,
		byID: make(map[string]malgo.DeviceInfo),
	}, nil
}

func backendForPlatform() (malgo.Backend, error) {
	switch runtime.GOOS {
	case "linux":
		return malgo.BackendAlsa, nil
	case "windows":
		return malgo.BackendWasapi, nil
	case "darwin":
		return malgo.BackendCoreaudio, nil
	default:
		return malgo.BackendNull, errors.Newf("unsupported operating system %s", runtime.GOOS).
			Component("spatial").
			Category(errors.CategoryAudioOutput).
			Context("os", runtime.GOOS).
			Build()
	}
}

// Devices enumerates playback devices and refreshes the ID lookup used by
// Play.
func (s *MalgoSink) Devices() ([]Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos, err := s.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, errors.New(err).
			Component("spatial").
			Category(errors.CategoryAudioOutput).
			Context("operation", "enumerate_devices").
			Build()
	}

	devices := make([]Device, 0, len(infos))
	byID := make(map[string]malgo.DeviceInfo, len(infos))
	for i := range infos {
		id := infos[i].ID.String()
		byID[id] = infos[i]
		devices = append(devices, Device{
			ID:       id,
			Name:     infos[i].Name(),
			Wireless: looksWireless(infos[i].Name()),
			Default:  infos[i].IsDefault == 1,
		})
	}
	s.byID = byID
	return devices, nil
}

// Play starts asynchronous playback of an interleaved 16-bit stereo buffer.
// Any still-playing cue is stopped first; overlapping cues are not
// supported.
func (s *MalgoSink) Play(pcm []byte, sampleRateHz int, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = 2
	deviceConfig.SampleRate = uint32(sampleRateHz)
	deviceConfig.Alsa.NoMMap = 1

	if deviceID != "" {
		if info, ok := s.byID[deviceID]; ok {
			deviceConfig.Playback.DeviceID = info.ID.Pointer()
		}
	}

	onSamples, drained := playbackFeeder(pcm)

	device, err := malgo.InitDevice(s.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return errors.New(err).
			Component("spatial").
			Category(errors.CategoryAudioOutput).
			Context("operation", "init_device").
			Context("device_id", deviceID).
			Build()
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return errors.New(err).
			Component("spatial").
			Category(errors.CategoryAudioOutput).
			Context("operation", "start_device").
			Context("device_id", deviceID).
			Build()
	}

	cancel := make(chan struct{})
	s.device = device
	s.cancel = cancel

	// Release the device once the buffer has drained so a quiet scene does
	// not hold the output open.
	go func() {
		select {
		case <-drained:
		case <-cancel:
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.device == device {
			s.device = nil
			device.Uninit()
			if s.cancel == cancel {
				s.cancel = nil
			}
		}
	}()
	return nil
}

// playbackFeeder returns a device data callback streaming pcm, plus a channel
// closed one callback period after the buffer is exhausted so the device gets
// a tail of silence to drain before release.
func playbackFeeder(pcm []byte) (func(pOutput, pInput []byte, frameCount uint32), <-chan struct{}) {
	var offset int
	var once sync.Once
	drained := make(chan struct{})

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		n := copy(pOutput, pcm[min(offset, len(pcm)):])
		offset += n
		for i := n; i < len(pOutput); i++ {
			pOutput[i] = 0
		}
		if n == 0 {
			once.Do(func() { close(drained) })
		}
	}
	return onSamples, drained
}

// Stop halts and releases the active playback.
func (s *MalgoSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *MalgoSink) stopLocked() {
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
	if s.device != nil {
		s.device.Uninit()
		s.device = nil
	}
}

// SetRouteChangeListener registers the callback for output-device changes.
func (s *MalgoSink) SetRouteChangeListener(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// NotifyRouteChange is the entry point for platform device-change events;
// the embedding layer calls it when the output route may have moved.
func (s *MalgoSink) NotifyRouteChange() {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Close stops playback and releases the backend context.
func (s *MalgoSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	if s.ctx != nil {
		err := s.ctx.Uninit()
		s.ctx.Free()
		s.ctx = nil
		return err
	}
	return nil
}
