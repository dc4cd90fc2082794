// Package detect defines the object-detector boundary. The neural network
// inference itself lives outside this module; echosight only consumes
// labeled, scored, normalized boxes.
package detect

import (
	"github.com/echosight/echosight-go/internal/tracker"
)

// Frame is one raw planar YUV image from the camera boundary.
type Frame struct {
	YUV    []byte
	Width  int
	Height int
}

// Valid reports whether the frame dimensions are usable. Non-positive
// dimensions short-circuit the frame to an empty detection set rather than
// reaching the detector.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.YUV) > 0
}

// Detector produces labeled detections for a camera frame.
type Detector interface {
	Detect(frame Frame) []tracker.DetectedObject
}

// Null is a detector that never detects anything. It stands in where no
// platform inference backend is wired.
type Null struct{}

// Detect implements Detector.
func (Null) Detect(Frame) []tracker.DetectedObject { return nil }

// Run feeds one frame through a detector with defensive validation.
func Run(d Detector, frame Frame) []tracker.DetectedObject {
	if d == nil || !frame.Valid() {
		return nil
	}
	return d.Detect(frame)
}
