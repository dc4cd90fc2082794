package sonify

import (
	"math"
	"sort"

	"github.com/echosight/echosight-go/internal/dsp"
	"github.com/echosight/echosight-go/internal/tracker"
)

// Ranking weights. Class identity dominates, then apparent size, then how
// centered the object is, then raw detector confidence.
const (
	weightClassPriority   = 0.50
	weightArea            = 0.25
	weightCenterProximity = 0.15
	weightScore           = 0.10
)

// classPriority is the fixed per-class relevance for navigation. Unknown
// classes score near zero so they only surface in empty scenes.
var classPriority = map[string]float64{
	"person":     1.00,
	"door":       0.85,
	"chair":      0.60,
	"table":      0.55,
	"cell_phone": 0.50,
	"cup":        0.45,
}

const unknownClassPriority = 0.05

// RankedCandidate is one scored cue candidate for the current scene cycle.
type RankedCandidate struct {
	TrackID        int64
	Label          string // normalized
	SoundAssetPath string
	Score          float64
	Box            tracker.DetectionBox
	Rank           float64
}

// Rank scores tracked objects for cue relevance and returns them sorted by
// descending rank. Tracks at or below the confidence floor are dropped.
// Ties keep input order (stable sort).
func Rank(tracked []tracker.TrackedObject, profiles *Profiles, confidenceFloor float64) []RankedCandidate {
	candidates := make([]RankedCandidate, 0, len(tracked))
	for _, tr := range tracked {
		if tr.Score <= confidenceFloor {
			continue
		}

		label := NormalizeLabel(tr.Label)
		priority, known := classPriority[label]
		if !known {
			priority = unknownClassPriority
		}

		areaNorm := dsp.Clamp(tr.Box.Area(), 0, 1)

		cx, cy := tr.Box.Center()
		proximity := dsp.Clamp(1-(math.Abs(cx-0.5)+math.Abs(cy-0.5)), 0, 1)

		rank := weightClassPriority*priority +
			weightArea*areaNorm +
			weightCenterProximity*proximity +
			weightScore*tr.Score

		candidates = append(candidates, RankedCandidate{
			TrackID:        tr.TrackID,
			Label:          label,
			SoundAssetPath: profiles.AssetPath(tr.Label),
			Score:          tr.Score,
			Box:            tr.Box,
			Rank:           rank,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Rank > candidates[j].Rank
	})
	return candidates
}
