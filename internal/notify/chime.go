// Package notify plays the attention chime after a wake trigger.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"jarvis/pkg/audioconv"
)

var speakerOnce sync.Once

// Chime holds a decoded notification sound, ready to replay.
type Chime struct {
	samples [][2]float64
	rate    beep.SampleRate
}

// LoadChime decodes path (wav, mp3, ogg) and primes the speaker. The file
// is decoded once up front so playback at trigger time is allocation-free.
func LoadChime(path string) (*Chime, error) {
	pcm, err := audioconv.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("load chime: %w", err)
	}

	samples := make([][2]float64, len(pcm))
	for i, v := range pcm {
		samples[i] = [2]float64{float64(v), float64(v)}
	}

	rate := beep.SampleRate(audioconv.TargetRate)
	var initErr error
	speakerOnce.Do(func() {
		initErr = speaker.Init(rate, rate.N(time.Second/10))
	})
	if initErr != nil {
		return nil, fmt.Errorf("init speaker: %w", initErr)
	}

	return &Chime{samples: samples, rate: rate}, nil
}

// Play replays the chime and blocks until it finishes.
func (c *Chime) Play() {
	done := make(chan struct{})
	speaker.Play(beep.Seq(c.streamer(), beep.Callback(func() {
		close(done)
	})))
	<-done
}

func (c *Chime) streamer() beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(c.samples) {
			return 0, false
		}
		n := copy(samples, c.samples[pos:])
		pos += n
		return n, true
	})
}
