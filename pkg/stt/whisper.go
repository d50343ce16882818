package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// WhisperOptions tune the whisper.cpp context per utterance.
type WhisperOptions struct {
	Language      string // e.g. "auto", "en"; empty means "auto"
	Threads       int    // <=0 uses NumCPU
	InitialPrompt string // optional recognition hint, e.g. the command grammar
	BeamSize      int    // 0 = greedy decoding; >0 enables beam search
}

// Whisper is a Transcriber backed by the whisper.cpp CGO bindings. The model
// is loaded once and shared; each Transcribe call gets its own context, so
// the type is safe for sequential reuse across utterances.
type Whisper struct {
	model whisper.Model
	opt   WhisperOptions
}

var _ Transcriber = (*Whisper)(nil)

// NewWhisper loads the ggml model at modelPath.
func NewWhisper(modelPath string, opt WhisperOptions) (*Whisper, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Whisper{model: m, opt: opt}, nil
}

// Close releases the model.
func (w *Whisper) Close() error {
	if w.model == nil {
		return nil
	}
	return w.model.Close()
}

// Transcribe runs the model over pcm (16 kHz mono float32). Segments are
// surfaced through onPartial as whisper decodes them; the final hypothesis is
// the joined segment text. An empty utterance yields an empty final, not an
// error.
func (w *Whisper) Transcribe(ctx context.Context, pcm []float32, onPartial func(string)) (string, error) {
	if w.model == nil {
		return "", errors.New("nil model")
	}
	if len(pcm) == 0 {
		return "", nil
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("new context: %w", err)
	}

	lang := w.opt.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}

	threads := w.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if w.opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(w.opt.InitialPrompt)
	}
	if w.opt.BeamSize > 0 {
		wctx.SetBeamSize(w.opt.BeamSize)
	}

	var partial strings.Builder
	var segCb whisper.SegmentCallback
	if onPartial != nil {
		segCb = func(s whisper.Segment) {
			if partial.Len() > 0 {
				partial.WriteByte(' ')
			}
			partial.WriteString(strings.TrimSpace(s.Text))
			onPartial(partial.String())
		}
	}

	if err := wctx.Process(pcm, nil, segCb, nil); err != nil {
		return "", fmt.Errorf("process: %w", err)
	}

	var final strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("next segment: %w", err)
		}
		if final.Len() > 0 {
			final.WriteByte(' ')
		}
		final.WriteString(strings.TrimSpace(s.Text))
	}
	return final.String(), nil
}
