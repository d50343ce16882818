package audio

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	wave "github.com/zenwerk/go-wave"
)

// Dumper writes finalized utterances to disk as 16-bit mono WAV files, for
// tuning the silence threshold against real captures. The filesystem is
// abstracted so tests run against an in-memory fs.
type Dumper struct {
	fs   afero.Fs
	dir  string
	rate int
}

// NewDumper returns a Dumper writing into dir at the given sample rate.
func NewDumper(fs afero.Fs, dir string, rate int) *Dumper {
	return &Dumper{fs: fs, dir: dir, rate: rate}
}

// Write stores pcm as a new WAV file and returns its path.
func (d *Dumper) Write(pcm []int16) (string, error) {
	if err := d.fs.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create dump dir: %w", err)
	}

	name := filepath.Join(d.dir, fmt.Sprintf("utterance-%d.wav", time.Now().UnixNano()))
	f, err := d.fs.Create(name)
	if err != nil {
		return "", fmt.Errorf("create dump file: %w", err)
	}

	w, err := wave.NewWriter(wave.WriterParam{
		Out:           f,
		Channel:       1,
		SampleRate:    d.rate,
		BitsPerSample: 16,
	})
	if err != nil {
		f.Close()
		return "", fmt.Errorf("wav writer: %w", err)
	}

	if _, err := w.WriteSample16(pcm); err != nil {
		w.Close()
		return "", fmt.Errorf("write samples: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close wav: %w", err)
	}
	return name, nil
}
