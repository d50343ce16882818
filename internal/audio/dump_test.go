package audio

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestDumper_Write(t *testing.T) {
	fs := afero.NewMemMapFs()
	d := NewDumper(fs, "dumps", 16000)

	pcm := make([]int16, 1600)
	for i := range pcm {
		pcm[i] = int16(i % 100)
	}

	name, err := d.Write(pcm)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.HasPrefix(name, "dumps/") || !strings.HasSuffix(name, ".wav") {
		t.Errorf("unexpected dump name %q", name)
	}

	info, err := fs.Stat(name)
	if err != nil {
		t.Fatalf("stat dump: %v", err)
	}
	// 44-byte header plus two bytes per sample.
	if info.Size() < int64(44+len(pcm)*2) {
		t.Errorf("dump too small: %d bytes", info.Size())
	}
}
