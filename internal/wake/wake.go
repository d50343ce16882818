// Package wake gates the pipeline on the wake phrase. The capture loop feeds
// every frame to a Detector; a non-nil TriggerEvent opens command listening.
package wake

import "time"

// TriggerEvent reports one detection of the wake phrase.
type TriggerEvent struct {
	// Phrase is the configured wake phrase that matched.
	Phrase string

	// Source names the detector that raised the trigger ("keyword", "manual").
	Source string

	// At is the detection time, used by the orchestrator's cooldown.
	At time.Time
}

// Detector consumes capture frames and reports wake-phrase hits. Feed must
// never block: detectors that need heavy analysis run it off the capture
// goroutine and surface the result on a later Feed call. A detector raises at
// most one trigger per spoken wake phrase; residual double-fires are absorbed
// by the orchestrator's cooldown window.
type Detector interface {
	Feed(frame []int16) *TriggerEvent
}
