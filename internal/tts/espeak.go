// Package tts speaks short feedback lines through espeak-ng. Synthesis is
// synchronous: Speak returns once playback has finished, so callers that
// must not block run it off the hot path.
package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *lang)
{
	if (!text)
	{ return -1; }

	espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0);
	espeak_VOICE specs = { .languages = lang };
	espeak_SetVoiceByProperties(&specs);

	espeak_Synth(text, 500, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Engine wraps espeak-ng with a fixed voice.
type Engine struct {
	voice string
}

// NewEngine selects the voice by language code. Empty means "en".
func NewEngine(voice string) *Engine {
	if voice == "" {
		voice = "en"
	}
	return &Engine{voice: voice}
}

// Speak synthesizes and plays text, blocking until done.
func (e *Engine) Speak(text string) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	cvoice := C.CString(e.voice)
	defer C.free(unsafe.Pointer(cvoice))

	rc := C.espeak_say(ctext, cvoice)
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}
