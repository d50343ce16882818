// Package audio owns the microphone: frame capture via portaudio, the
// pre-roll ring buffer, utterance dumps, and playback-volume ducking.
package audio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
)

// ErrDevice marks audio-device failures. Losing the input device is fatal to
// the process; callers test for it with errors.Is.
var ErrDevice = errors.New("audio device unavailable")

// Source is a blocking microphone frame stream: mono signed 16-bit PCM at a
// fixed sample rate, delivered in fixed-size frames. It is not safe for
// concurrent use; exactly one goroutine should call Read.
type Source struct {
	sampleRate int
	frameSize  int
	stream     *portaudio.Stream
	buf        []int16
}

// OpenSource initialises portaudio and opens an input stream on the named
// device, or the default input device when device is empty. Device names
// match case-insensitively on prefix.
func OpenSource(device string, sampleRate, frameSize int) (*Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	s := &Source{
		sampleRate: sampleRate,
		frameSize:  frameSize,
		buf:        make([]int16, frameSize),
	}

	var err error
	if device == "" {
		s.stream, err = portaudio.OpenDefaultStream(1, 0, float64(sampleRate), frameSize, s.buf)
	} else {
		s.stream, err = openNamedStream(device, sampleRate, frameSize, s.buf)
	}
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: open stream: %v", ErrDevice, err)
	}

	if err := s.stream.Start(); err != nil {
		s.stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}
	return s, nil
}

func openNamedStream(device string, sampleRate, frameSize int, buf []int16) (*portaudio.Stream, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	var info *portaudio.DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.HasPrefix(strings.ToLower(d.Name), strings.ToLower(device)) {
			info = d
			break
		}
	}
	if info == nil {
		return nil, fmt.Errorf("no input device matching %q", device)
	}

	p := portaudio.LowLatencyParameters(info, nil)
	p.Input.Channels = 1
	p.SampleRate = float64(sampleRate)
	p.FramesPerBuffer = frameSize
	return portaudio.OpenStream(p, buf)
}

// Read blocks until the next frame is available and returns a copy owned by
// the caller. No frame is dropped by this layer; back-pressure surfaces as
// blocking here.
func (s *Source) Read() ([]int16, error) {
	if err := s.stream.Read(); err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrDevice, err)
	}
	frame := make([]int16, len(s.buf))
	copy(frame, s.buf)
	return frame, nil
}

// SampleRate returns the stream's sample rate in Hz.
func (s *Source) SampleRate() int { return s.sampleRate }

// FrameSize returns the number of samples per frame.
func (s *Source) FrameSize() int { return s.frameSize }

// Close stops the stream and releases the device. Safe to call on every exit
// path; portaudio is terminated regardless of stream errors.
func (s *Source) Close() error {
	var errs []error
	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, err)
		}
		s.stream = nil
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
