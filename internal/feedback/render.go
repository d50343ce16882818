package feedback

import (
	"log/slog"
)

// Speaker voices one line of feedback. Satisfied by tts.Engine.
type Speaker interface {
	Speak(text string) error
}

// Chimer plays the wake acknowledgement sound.
type Chimer interface {
	Play()
}

// Renderer turns events into console lines and, when configured, a chime
// and spoken responses. Runs on the queue worker, so it may block freely.
type Renderer struct {
	log     *slog.Logger
	speaker Speaker
	chime   Chimer
}

// NewRenderer builds a renderer. speaker and chime may be nil to disable
// speech or the chime.
func NewRenderer(log *slog.Logger, speaker Speaker, chime Chimer) *Renderer {
	return &Renderer{log: log, speaker: speaker, chime: chime}
}

// Render handles one event.
func (r *Renderer) Render(ev Event) {
	switch ev.Kind {
	case Triggered:
		r.log.Info("listening")
		if r.chime != nil {
			r.chime.Play()
		}
		r.say("Yes?")
	case PartialTranscript:
		r.log.Info("hearing", "text", ev.Text)
	case NoSpeechDetected:
		r.log.Info("heard nothing")
	case RecognitionFailed:
		r.log.Warn("could not transcribe", "err", ev.Text)
		r.say("Sorry, say that again?")
	case CommandUnknown:
		r.log.Info("no matching command", "heard", ev.Text)
		r.say("Huh?")
	case DispatchSucceeded:
		r.log.Info("command sent", "command", ev.Text, "song", ev.Song)
		r.say(ackLine(ev))
	case DispatchFailed:
		r.log.Error("command failed", "command", ev.Text)
		r.say("That didn't work.")
	}
}

func (r *Renderer) say(line string) {
	if r.speaker == nil || line == "" {
		return
	}
	if err := r.speaker.Speak(line); err != nil {
		r.log.Warn("speech failed", "err", err)
	}
}

func ackLine(ev Event) string {
	switch ev.Text {
	case "play":
		if ev.Song != "" {
			return "Playing " + ev.Song
		}
		return "Playing."
	case "pause":
		return "Paused."
	case "resume":
		return "Resuming."
	case "next":
		return "Skipping."
	case "clear":
		return "Queue cleared."
	case "stop":
		return "Stopping."
	case "now-playing":
		return ""
	}
	return "Done."
}
