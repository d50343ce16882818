package segment

import (
	"testing"
	"time"
)

const (
	testRate  = 16000
	frameSize = 512 // 32 ms at 16 kHz
)

func testConfig() Config {
	return Config{
		SampleRate:       testRate,
		SilenceThreshold: 900,
		SilenceDuration:  500 * time.Millisecond,
		MaxWait:          time.Second,
		MaxUtterance:     2 * time.Second,
	}
}

func loudFrame() []int16 {
	f := make([]int16, frameSize)
	for i := range f {
		f[i] = 3000
	}
	return f
}

func quietFrame() []int16 {
	return make([]int16, frameSize)
}

func TestSegmenter_NoSpeechTimeout(t *testing.T) {
	s := New(testConfig())

	// 32 ms per frame: the cumulative wait crosses 1 s on the 32nd frame.
	for i := 0; i < 31; i++ {
		if ev := s.Feed(quietFrame()); ev.Kind != None {
			t.Fatalf("frame %d: got event %v before the timeout", i, ev.Kind)
		}
	}
	ev := s.Feed(quietFrame())
	if ev.Kind != NoSpeech {
		t.Fatalf("expected NoSpeech on the 32nd quiet frame, got %v", ev.Kind)
	}
	if ev.PCM != nil {
		t.Error("NoSpeech must not carry an utterance buffer")
	}
}

func TestSegmenter_EndsOnTrailingSilence(t *testing.T) {
	s := New(testConfig())

	for i := 0; i < 5; i++ {
		if ev := s.Feed(loudFrame()); ev.Kind != None {
			t.Fatalf("speech frame %d: unexpected event %v", i, ev.Kind)
		}
	}

	// 500 ms of silence is 15.6 frames: completion must land on the 16th
	// silent frame and not later.
	for i := 0; i < 15; i++ {
		if ev := s.Feed(quietFrame()); ev.Kind != None {
			t.Fatalf("silent frame %d: ended too early (%v)", i, ev.Kind)
		}
	}
	ev := s.Feed(quietFrame())
	if ev.Kind != Complete {
		t.Fatalf("expected Complete on the 16th silent frame, got %v", ev.Kind)
	}
	if want := (5 + 16) * frameSize; len(ev.PCM) != want {
		t.Errorf("utterance has %d samples, want %d", len(ev.PCM), want)
	}
}

func TestSegmenter_SpeechResetsSilenceRun(t *testing.T) {
	s := New(testConfig())

	s.Feed(loudFrame())
	for i := 0; i < 10; i++ {
		if ev := s.Feed(quietFrame()); ev.Kind != None {
			t.Fatalf("ended during partial silence run: %v", ev.Kind)
		}
	}
	// Speech again: the silence counter must restart from zero.
	s.Feed(loudFrame())

	for i := 0; i < 15; i++ {
		if ev := s.Feed(quietFrame()); ev.Kind != None {
			t.Fatalf("silent frame %d after resume: ended too early (%v)", i, ev.Kind)
		}
	}
	if ev := s.Feed(quietFrame()); ev.Kind != Complete {
		t.Fatalf("expected Complete, got %v", ev.Kind)
	}
}

func TestSegmenter_MaxUtteranceForcesCompletion(t *testing.T) {
	s := New(testConfig())

	// Continuous speech with no silence: the 2 s cap lands on frame 63.
	var ev Event
	frames := 0
	for frames = 1; frames <= 100; frames++ {
		ev = s.Feed(loudFrame())
		if ev.Kind != None {
			break
		}
	}
	if ev.Kind != Complete {
		t.Fatalf("expected forced Complete, got %v", ev.Kind)
	}
	if frames != 63 {
		t.Errorf("completed after %d frames, want 63", frames)
	}
	if len(ev.PCM) != 63*frameSize {
		t.Errorf("utterance has %d samples, want %d", len(ev.PCM), 63*frameSize)
	}
}

func TestSegmenter_ResetDiscardsPartialCapture(t *testing.T) {
	s := New(testConfig())

	s.Feed(loudFrame())
	s.Feed(loudFrame())
	s.Reset()

	// After a reset the machine is back in AwaitingSpeech with no history.
	for i := 0; i < 31; i++ {
		if ev := s.Feed(quietFrame()); ev.Kind != None {
			t.Fatalf("frame %d: got %v", i, ev.Kind)
		}
	}
	if ev := s.Feed(quietFrame()); ev.Kind != NoSpeech {
		t.Fatalf("expected NoSpeech after reset, got %v", ev.Kind)
	}
}
