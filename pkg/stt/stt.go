// Package stt abstracts speech-to-text behind a single-utterance Transcriber
// interface and provides the whisper.cpp adapter.
package stt

import "context"

// Transcriber converts one utterance of 16 kHz mono float32 PCM into text.
// onPartial, when non-nil, is invoked with each intermediate hypothesis; the
// returned string is the final hypothesis, which may be empty when nothing
// was recognised. An error means the backend failed and the utterance is
// lost, but the transcriber remains usable.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32, onPartial func(text string)) (string, error)
}
