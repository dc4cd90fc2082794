// Package sonify turns tracked objects into a prioritized, time-budgeted
// plan of audio cues: per-class sonification profiles, the ranking policy
// and the scene cue scheduler.
package sonify

import (
	"path/filepath"
	"strings"
	"sync"
)

// Profile holds the per-class playback shaping parameters used by the
// binaural engine.
type Profile struct {
	Gain              float64
	PlaybackRateScale float64
	TiltEQ            float64
}

// defaultProfile applies to classes without an explicit entry.
var defaultProfile = Profile{Gain: 0.8, PlaybackRateScale: 1.0, TiltEQ: 0.0}

func defaultProfileTable() map[string]Profile {
	return map[string]Profile{
		"person":     {Gain: 1.0, PlaybackRateScale: 1.0, TiltEQ: 0.0},
		"door":       {Gain: 0.9, PlaybackRateScale: 0.9, TiltEQ: 0.1},
		"chair":      {Gain: 0.8, PlaybackRateScale: 1.1, TiltEQ: 0.2},
		"table":      {Gain: 0.8, PlaybackRateScale: 0.95, TiltEQ: 0.15},
		"cup":        {Gain: 0.7, PlaybackRateScale: 1.25, TiltEQ: 0.3},
		"cell_phone": {Gain: 0.7, PlaybackRateScale: 1.2, TiltEQ: 0.25},
	}
}

// Profiles is the process-wide sonification profile table: defaults plus
// user overrides behind a single synchronization point. Created at pipeline
// startup and passed by handle to the engine and orchestrator.
type Profiles struct {
	mu        sync.RWMutex
	table     map[string]Profile
	assetRoot string
}

// NewProfiles creates a profile store with built-in defaults. assetRoot is
// the directory holding the per-class mono cue assets.
func NewProfiles(assetRoot string) *Profiles {
	return &Profiles{
		table:     defaultProfileTable(),
		assetRoot: assetRoot,
	}
}

// NormalizeLabel canonicalizes a detector class label: trimmed, lowercased,
// spaces collapsed to underscores.
func NormalizeLabel(label string) string {
	norm := strings.ToLower(strings.TrimSpace(label))
	return strings.Join(strings.Fields(norm), "_")
}

// Get returns the profile for a class label, falling back to the default
// profile for unknown classes.
func (p *Profiles) Get(label string) Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if prof, ok := p.table[NormalizeLabel(label)]; ok {
		return prof
	}
	return defaultProfile
}

// Set installs a user override for a class label.
func (p *Profiles) Set(label string, prof Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table[NormalizeLabel(label)] = prof
}

// Reset restores the built-in defaults, discarding all overrides.
func (p *Profiles) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.table = defaultProfileTable()
}

// AssetPath resolves the mono sound asset for a class label. Classes without
// a dedicated asset share the generic object cue.
func (p *Profiles) AssetPath(label string) string {
	norm := NormalizeLabel(label)
	p.mu.RLock()
	_, known := p.table[norm]
	root := p.assetRoot
	p.mu.RUnlock()

	if !known {
		return filepath.Join(root, "object.wav")
	}
	return filepath.Join(root, norm+".wav")
}
