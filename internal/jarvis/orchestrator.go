// Package jarvis runs the voice pipeline: frames come off the microphone,
// the wake detector gates them, the segmenter cuts one utterance, and a
// worker transcribes, parses and dispatches it while the capture loop keeps
// reading.
package jarvis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"jarvis/internal/dispatch"
	"jarvis/internal/feedback"
	"jarvis/internal/intent"
	"jarvis/internal/segment"
	"jarvis/internal/wake"
	"jarvis/pkg/audioconv"
	"jarvis/pkg/stt"
)

// State of the pipeline. Observable through the control socket.
type State int32

const (
	// Idle: streaming frames into the wake detector.
	Idle State = iota

	// Listening: a trigger fired; segmenting the utterance.
	Listening

	// Transcribing: the utterance is with the STT engine.
	Transcribing

	// Dispatching: the parsed command is on its way to the bot.
	Dispatching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Listening:
		return "listening"
	case Transcribing:
		return "transcribing"
	case Dispatching:
		return "dispatching"
	}
	return "unknown"
}

// FrameSource produces fixed-size int16 frames. Satisfied by audio.Source.
type FrameSource interface {
	Read() ([]int16, error)
}

// Commander delivers a parsed intent. Satisfied by dispatch.Dispatcher.
type Commander interface {
	Dispatch(ctx context.Context, in intent.Intent) dispatch.Result
}

// Ducker lowers and restores other audio streams around a listening
// window. Satisfied by audio.Ducker.
type Ducker interface {
	Duck(ctx context.Context, factor float64, fade time.Duration) error
	Restore(ctx context.Context, fade time.Duration) error
}

// Dumper persists a captured utterance. Satisfied by audio.Dumper.
type Dumper interface {
	Write(pcm []int16) (string, error)
}

// Options wires the orchestrator's collaborators. Detector, Segmenter,
// Transcriber, Commander, Notifier and Source are required; the rest are
// optional.
type Options struct {
	Source      FrameSource
	Detector    wake.Detector
	Segmenter   *segment.Segmenter
	Transcriber stt.Transcriber
	Commander   Commander
	Notifier    feedback.Notifier
	Log         *slog.Logger

	// WakePhrase is stripped from the front of transcripts when the scan
	// window bled into the command.
	WakePhrase string

	// Cooldown after a pipeline run during which triggers are ignored.
	Cooldown time.Duration

	Ducker     Ducker
	DuckFactor float64
	Dumper     Dumper
}

type pipelineOutcome struct{}

// Orchestrator owns the pipeline state machine. The capture loop runs on
// the goroutine that calls Run; each utterance is processed on its own
// worker goroutine so frame reads never stall.
type Orchestrator struct {
	opt Options

	state     atomic.Int32
	manual    atomic.Bool
	done      chan pipelineOutcome
	lastRunAt time.Time
}

// New builds an Orchestrator in Idle.
func New(opt Options) *Orchestrator {
	return &Orchestrator{
		opt:  opt,
		done: make(chan pipelineOutcome, 1),
	}
}

// State reports the current pipeline state. Safe from any goroutine.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Trigger requests a manual wake, as if the phrase had been heard. Honored
// on the next frame if the pipeline is Idle; otherwise dropped.
func (o *Orchestrator) Trigger() {
	o.manual.Store(true)
}

// Run drives the capture loop until ctx is canceled or the frame source
// fails. A device failure is fatal: the daemon cannot recover a vanished
// microphone.
func (o *Orchestrator) Run(ctx context.Context) error {
	log := o.opt.Log
	log.Info("pipeline running")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := o.opt.Source.Read()
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}

		// Busy? Only watch for the worker finishing; triggers are dropped
		// and the wake detector still sees frames so its window stays warm.
		if o.State() != Idle && o.State() != Listening {
			o.opt.Detector.Feed(frame)
			select {
			case <-o.done:
				o.finishRun(ctx)
			default:
			}
			continue
		}

		switch o.State() {
		case Idle:
			ev := o.opt.Detector.Feed(frame)
			manual := o.manual.Swap(false)
			if ev == nil && !manual {
				continue
			}
			if time.Since(o.lastRunAt) < o.opt.Cooldown {
				log.Debug("trigger suppressed by cooldown")
				continue
			}
			o.beginListening(ctx, ev, manual)

		case Listening:
			ev := o.opt.Segmenter.Feed(frame)
			switch ev.Kind {
			case segment.NoSpeech:
				log.Info("no speech after trigger")
				o.opt.Notifier.Notify(feedback.Event{Kind: feedback.NoSpeechDetected})
				o.finishRun(ctx)
			case segment.Complete:
				o.state.Store(int32(Transcribing))
				go o.process(ctx, ev.PCM)
			}
		}
	}
}

func (o *Orchestrator) beginListening(ctx context.Context, ev *wake.TriggerEvent, manual bool) {
	if manual {
		o.opt.Log.Info("triggered", "source", "manual")
	} else {
		o.opt.Log.Info("triggered", "source", ev.Source, "phrase", ev.Phrase)
	}

	if o.opt.Ducker != nil {
		if err := o.opt.Ducker.Duck(ctx, o.opt.DuckFactor, 150*time.Millisecond); err != nil {
			o.opt.Log.Warn("duck failed", "err", err)
		}
	}

	o.opt.Segmenter.Reset()
	o.state.Store(int32(Listening))
	o.opt.Notifier.Notify(feedback.Event{Kind: feedback.Triggered})
}

// finishRun restores audio, stamps the cooldown and returns to Idle.
func (o *Orchestrator) finishRun(ctx context.Context) {
	if o.opt.Ducker != nil {
		if err := o.opt.Ducker.Restore(ctx, 150*time.Millisecond); err != nil {
			o.opt.Log.Warn("restore failed", "err", err)
		}
	}
	o.lastRunAt = time.Now()
	o.state.Store(int32(Idle))
}

// process handles one captured utterance off the capture loop. Exactly one
// outcome event reaches the notifier per utterance.
func (o *Orchestrator) process(ctx context.Context, pcm []int16) {
	defer func() {
		o.done <- pipelineOutcome{}
	}()
	log := o.opt.Log

	if o.opt.Dumper != nil {
		if path, err := o.opt.Dumper.Write(pcm); err != nil {
			log.Warn("dump failed", "err", err)
		} else {
			log.Debug("utterance dumped", "path", path)
		}
	}

	samples := audioconv.Int16ToFloat32(pcm)
	text, err := o.opt.Transcriber.Transcribe(ctx, samples, func(partial string) {
		o.opt.Notifier.Notify(feedback.Event{Kind: feedback.PartialTranscript, Text: partial})
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("transcription failed", "err", err)
		o.opt.Notifier.Notify(feedback.Event{Kind: feedback.RecognitionFailed, Text: err.Error()})
		return
	}

	text = intent.StripWakePhrase(text, o.opt.WakePhrase)
	log.Info("final transcript", "text", text)

	in := intent.Parse(text)
	if in.Kind == intent.Unknown {
		o.opt.Notifier.Notify(feedback.Event{Kind: feedback.CommandUnknown, Text: in.Raw})
		return
	}

	o.state.Store(int32(Dispatching))
	res := o.opt.Commander.Dispatch(ctx, in)
	switch {
	case res.OK:
		o.opt.Notifier.Notify(feedback.Event{
			Kind: feedback.DispatchSucceeded,
			Text: in.Kind.String(),
			Song: in.Song,
		})
	case res.NothingSent:
		o.opt.Notifier.Notify(feedback.Event{Kind: feedback.CommandUnknown, Text: in.Raw})
	default:
		log.Error("dispatch failed",
			"command", in.Kind.String(),
			"attempts", res.Attempts,
			"err", res.Reason,
		)
		o.opt.Notifier.Notify(feedback.Event{Kind: feedback.DispatchFailed, Text: in.Kind.String()})
	}
}
