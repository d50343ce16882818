// Package segment turns a triggered frame stream into one utterance using
// energy-based silence detection.
package segment

import (
	"time"

	"jarvis/pkg/audioconv"
)

// Config holds the segmentation tunables. Thresholds are externally
// configurable because they trade responsiveness against truncation.
type Config struct {
	// SampleRate of incoming frames, Hz.
	SampleRate int

	// SilenceThreshold is the RMS amplitude (int16 domain) below which a
	// frame counts as silence.
	SilenceThreshold float64

	// SilenceDuration of consecutive sub-threshold audio that ends the
	// utterance.
	SilenceDuration time.Duration

	// MaxWait bounds how long to wait for speech to start before giving up
	// with NoSpeech.
	MaxWait time.Duration

	// MaxUtterance forces completion even without trailing silence.
	MaxUtterance time.Duration
}

// EventKind classifies what a Feed call produced.
type EventKind int

const (
	// None: still waiting or still capturing.
	None EventKind = iota

	// NoSpeech: nothing exceeded the threshold within MaxWait. A normal
	// outcome, not an error; no utterance was produced.
	NoSpeech

	// Complete: the utterance is finalized and carried in Event.PCM.
	Complete
)

// Event is the outcome of feeding one frame.
type Event struct {
	Kind EventKind

	// PCM holds the finalized utterance for Complete events, including the
	// trailing silence run. Ownership passes to the caller.
	PCM []int16
}

type phase int

const (
	awaitingSpeech phase = iota
	capturing
)

// Segmenter is the two-state utterance machine: AwaitingSpeech until a frame
// exceeds the silence threshold, then Capturing until the silence run or the
// hard cap completes the utterance. Reset (or any terminal event) returns it
// to AwaitingSpeech. Not safe for concurrent use; it lives on the capture
// goroutine.
type Segmenter struct {
	cfg Config

	phase    phase
	buf      []int16
	waited   time.Duration
	silent   time.Duration
	captured time.Duration
}

// New returns a Segmenter in AwaitingSpeech.
func New(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg}
}

// Reset discards any partial capture and returns to AwaitingSpeech.
func (s *Segmenter) Reset() {
	s.phase = awaitingSpeech
	s.buf = nil
	s.waited = 0
	s.silent = 0
	s.captured = 0
}

// Feed processes one frame and reports whether the utterance advanced,
// timed out, or completed. After NoSpeech or Complete the segmenter is
// already reset for the next trigger.
func (s *Segmenter) Feed(frame []int16) Event {
	d := time.Duration(len(frame)) * time.Second / time.Duration(s.cfg.SampleRate)
	rms := audioconv.RMS16(frame)

	switch s.phase {
	case awaitingSpeech:
		if rms > s.cfg.SilenceThreshold {
			s.phase = capturing
			s.buf = append(s.buf, frame...)
			s.captured = d
			return Event{Kind: None}
		}
		s.waited += d
		if s.waited >= s.cfg.MaxWait {
			s.Reset()
			return Event{Kind: NoSpeech}
		}
		return Event{Kind: None}

	case capturing:
		s.buf = append(s.buf, frame...)
		s.captured += d

		if rms > s.cfg.SilenceThreshold {
			s.silent = 0
		} else {
			s.silent += d
			if s.silent >= s.cfg.SilenceDuration {
				return s.finish()
			}
		}
		if s.captured >= s.cfg.MaxUtterance {
			return s.finish()
		}
		return Event{Kind: None}
	}
	return Event{Kind: None}
}

func (s *Segmenter) finish() Event {
	pcm := s.buf
	s.Reset()
	return Event{Kind: Complete, PCM: pcm}
}
