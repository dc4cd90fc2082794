// Package landmark persists user-saved GPS landmarks and answers
// nearest-landmark queries for the cue orchestrator.
package landmark

import (
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/echosight/echosight-go/internal/geo"
	"github.com/echosight/echosight-go/internal/logging"
)

// Landmark is one saved location.
type Landmark struct {
	Name      string    `yaml:"name"`
	Lat       float64   `yaml:"lat"`
	Lon       float64   `yaml:"lon"`
	Accuracy  float64   `yaml:"accuracy"`
	CreatedAt time.Time `yaml:"createdat"`
}

// SaveOutcome is the typed result of a save operation.
type SaveOutcome int

const (
	SaveCreated SaveOutcome = iota
	SaveAlreadyExists
	SaveInvalidName
)

// ForgetOutcome is the typed result of a forget operation.
type ForgetOutcome int

const (
	ForgetDone ForgetOutcome = iota
	ForgetNotFound
	ForgetInvalidName
)

// Store keeps landmarks keyed by case-insensitive trimmed name, optionally
// persisted to a YAML file. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byKey map[string]Landmark
	path  string
	log   *slog.Logger
}

// NewStore creates a landmark store. When path is non-empty an existing
// YAML file is loaded and every mutation is written back.
func NewStore(path string) (*Store, error) {
	s := &Store{
		byKey: make(map[string]Landmark),
		path:  path,
		log:   logging.ForService("landmark"),
	}

	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}

	var loaded []Landmark
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, err
	}
	for _, lm := range loaded {
		if key, ok := nameKey(lm.Name); ok {
			s.byKey[key] = lm
		}
	}
	return s, nil
}

// nameKey canonicalizes a landmark name; ok is false for blank names.
func nameKey(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	return key, key != ""
}

// Save stores a new landmark. Existing names are not overwritten.
func (s *Store) Save(name string, lat, lon, accuracy float64, now time.Time) SaveOutcome {
	key, ok := nameKey(name)
	if !ok {
		return SaveInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[key]; exists {
		return SaveAlreadyExists
	}

	s.byKey[key] = Landmark{
		Name:      strings.TrimSpace(name),
		Lat:       lat,
		Lon:       lon,
		Accuracy:  accuracy,
		CreatedAt: now,
	}
	s.persistLocked()
	return SaveCreated
}

// Forget removes a landmark by name.
func (s *Store) Forget(name string) ForgetOutcome {
	key, ok := nameKey(name)
	if !ok {
		return ForgetInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byKey[key]; !exists {
		return ForgetNotFound
	}
	delete(s.byKey, key)
	s.persistLocked()
	return ForgetDone
}

// Get looks up a landmark by name.
func (s *Store) Get(name string) (Landmark, bool) {
	key, ok := nameKey(name)
	if !ok {
		return Landmark{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	lm, exists := s.byKey[key]
	return lm, exists
}

// All returns the landmarks sorted by name.
func (s *Store) All() []Landmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Landmark, 0, len(s.byKey))
	for _, lm := range s.byKey {
		out = append(out, lm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Nearest returns the landmark closest to the given position by
// great-circle distance.
func (s *Store) Nearest(lat, lon float64) (Landmark, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best Landmark
	bestDist := -1.0
	for _, lm := range s.byKey {
		dist, _ := geo.DistanceAndBearing(lat, lon, lm.Lat, lm.Lon)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = lm
		}
	}
	return best, bestDist >= 0
}

// persistLocked writes the store to its YAML file; failures are logged and
// the in-memory state stays authoritative.
func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}

	all := make([]Landmark, 0, len(s.byKey))
	for _, lm := range s.byKey {
		all = append(all, lm)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	data, err := yaml.Marshal(all)
	if err != nil {
		s.log.Error("failed to marshal landmarks", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.log.Error("failed to persist landmarks", "path", s.path, "error", err)
	}
}
