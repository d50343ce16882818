package wake

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"jarvis/internal/audio"
	"jarvis/pkg/audioconv"
	"jarvis/pkg/stt"
)

// KeywordConfig tunes the keyword detector.
type KeywordConfig struct {
	// Phrase is the wake phrase matched against the scan transcript.
	Phrase string

	// SampleRate of the incoming frames, Hz.
	SampleRate int

	// Window is how much recent audio the pre-roll ring keeps. Defaults to
	// 1500 ms, enough for the whole phrase plus leading context.
	Window time.Duration

	// ScanInterval bounds how often a scan is started while the gate stays
	// open. Defaults to 500 ms.
	ScanInterval time.Duration
}

// Keyword detects the wake phrase by transcribing a rolling pre-roll window
// whenever the flux gate reports acoustic activity.
//
// Feed runs on the capture goroutine and only maintains the ring and the
// gate; transcription happens on an internal scan goroutine so the capture
// loop never blocks on the model. At most one scan is in flight; windows that
// arrive while the scanner is busy are skipped, not queued.
type Keyword struct {
	cfg  KeywordConfig
	ring *audio.Ring
	gate *fluxGate
	tr   stt.Transcriber

	jobs     chan []int16
	triggers chan TriggerEvent
	stop     chan struct{}
	done     chan struct{}

	activeFor time.Duration
	frameDur  time.Duration
}

var _ Detector = (*Keyword)(nil)

// NewKeyword starts a keyword detector using tr for the wake scans.
// Close must be called to release the scan goroutine.
func NewKeyword(tr stt.Transcriber, cfg KeywordConfig) *Keyword {
	if cfg.Window <= 0 {
		cfg.Window = 1500 * time.Millisecond
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 500 * time.Millisecond
	}

	k := &Keyword{
		cfg:      cfg,
		ring:     audio.NewRing(int(float64(cfg.SampleRate) * cfg.Window.Seconds())),
		gate:     newFluxGate(),
		tr:       tr,
		jobs:     make(chan []int16, 1),
		triggers: make(chan TriggerEvent, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go k.scanLoop()
	return k
}

// Feed adds the frame to the pre-roll window, schedules a scan when the gate
// says something happened, and returns a pending trigger if the scanner found
// the phrase since the last call.
func (k *Keyword) Feed(frame []int16) *TriggerEvent {
	k.ring.Add(frame)
	k.frameDur = time.Duration(len(frame)) * time.Second / time.Duration(k.cfg.SampleRate)

	active := k.gate.feed(frame)
	if active {
		k.activeFor += k.frameDur
	}

	burstEnded := !active && k.activeFor > 0
	longBurst := active && k.activeFor >= k.cfg.ScanInterval
	if burstEnded || longBurst {
		k.activeFor = 0
		select {
		case k.jobs <- k.ring.Snapshot():
		default:
			// scanner busy; this window is skipped
		}
	}

	select {
	case ev := <-k.triggers:
		k.ring.Clear()
		return &ev
	default:
		return nil
	}
}

// Close stops the scan goroutine and waits for it to exit.
func (k *Keyword) Close() {
	close(k.stop)
	<-k.done
}

func (k *Keyword) scanLoop() {
	defer close(k.done)
	want := normalize(k.cfg.Phrase)

	for {
		select {
		case <-k.stop:
			return
		case pcm := <-k.jobs:
			text, err := k.tr.Transcribe(context.Background(), audioconv.Int16ToFloat32(pcm), nil)
			if err != nil {
				slog.Debug("wake scan failed", "err", err)
				continue
			}
			if text == "" || !strings.Contains(normalize(text), want) {
				continue
			}
			select {
			case k.triggers <- TriggerEvent{Phrase: k.cfg.Phrase, Source: "keyword", At: time.Now()}:
			default:
			}
		}
	}
}

// normalize lowercases and strips everything but letters, digits and spaces,
// so punctuation from the transcriber cannot hide the phrase.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
