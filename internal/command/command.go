// Package command defines the abstract voice-command set the orchestrator
// reacts to. Commands arrive pre-parsed from the speech layer; this package
// only models them as a closed sum type for exhaustive matching.
package command

// Command is the closed interface over all voice commands.
type Command interface {
	isCommand()
}

// TrackObject restricts object sonification to tracks of one class.
type TrackObject struct {
	Label string
}

// SaveLandmark stores the current location under a name.
type SaveLandmark struct {
	Name string
}

// ForgetLandmark removes a saved landmark.
type ForgetLandmark struct {
	Name string
}

// PingLandmark requests an immediate cue toward a saved landmark.
type PingLandmark struct {
	Name string
}

// RestrictClass limits cues to a single class; an empty label clears the
// restriction.
type RestrictClass struct {
	Label string
}

// ToggleNorthCue enables or disables the periodic north cue.
type ToggleNorthCue struct {
	Enabled bool
}

// ToggleSonification enables or disables object sonification globally.
type ToggleSonification struct {
	Enabled bool
}

func (TrackObject) isCommand()        {}
func (SaveLandmark) isCommand()       {}
func (ForgetLandmark) isCommand()     {}
func (PingLandmark) isCommand()       {}
func (RestrictClass) isCommand()      {}
func (ToggleNorthCue) isCommand()     {}
func (ToggleSonification) isCommand() {}
