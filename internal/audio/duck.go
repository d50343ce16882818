package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	id      int
	volume  int
	appName string
}

type fade struct {
	id   int
	from int
	to   int
}

// Ducker fades down every PulseAudio playback stream except our own while the
// pipeline is capturing or speaking, and restores the original volumes
// afterwards. Streams whose application.name is in selfNames are left alone
// so feedback speech is not ducked along with the music.
type Ducker struct {
	mu        sync.Mutex
	active    bool
	selfNames []string
	original  map[int]int // sink-input id -> volume % before ducking
	minVolume int
}

// NewDucker returns a Ducker that never drops a stream below minVolume.
func NewDucker(selfNames []string, minVolume int) *Ducker {
	return &Ducker{
		selfNames: append([]string(nil), selfNames...),
		original:  make(map[int]int),
		minVolume: clampVolume(minVolume),
	}
}

// Duck fades all foreign streams to current*factor (bounded below by
// minVolume) over duration. Calling Duck while already ducked is a no-op.
func (d *Ducker) Duck(ctx context.Context, factor float64, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	d.original = make(map[int]int)
	var fades []fade
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		to := clampVolume(int(math.Round(math.Max(float64(s.volume)*factor, float64(d.minVolume)))))
		d.original[s.id] = s.volume
		fades = append(fades, fade{id: s.id, from: s.volume, to: to})
	}

	if err := runFades(ctx, fades, duration); err != nil {
		return err
	}
	d.active = true
	return nil
}

// Restore fades foreign streams back to the volumes recorded by Duck.
// Streams that appeared after ducking are left untouched.
func (d *Ducker) Restore(ctx context.Context, duration time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	var fades []fade
	for _, s := range streams {
		if d.isSelf(s) {
			continue
		}
		orig, ok := d.original[s.id]
		if !ok {
			continue
		}
		fades = append(fades, fade{id: s.id, from: s.volume, to: orig})
	}

	if err := runFades(ctx, fades, duration); err != nil {
		return err
	}
	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(s sinkInput) bool {
	for _, name := range d.selfNames {
		if s.appName == name {
			return true
		}
	}
	return false
}

// runFades moves a set of sink inputs from their current volume to the target
// in 10 ms steps spread over duration. A zero duration jumps straight to the
// target.
func runFades(ctx context.Context, fades []fade, duration time.Duration) error {
	if len(fades) == 0 {
		return nil
	}
	if duration <= 0 {
		for _, f := range fades {
			if err := setSinkInputVolume(ctx, f.id, f.to); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}
		return nil
	}

	const stepDur = 10 * time.Millisecond
	steps := int(duration / stepDur)
	if steps < 1 {
		steps = 1
	}

	for i := 0; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frac := float64(i) / float64(steps)
		for _, f := range fades {
			v := int(math.Round(float64(f.from) + float64(f.to-f.from)*frac))
			if err := setSinkInputVolume(ctx, f.id, v); err != nil {
				return fmt.Errorf("set volume id=%d: %w", f.id, err)
			}
		}
		if i < steps {
			time.Sleep(duration / time.Duration(steps))
		}
	}
	return nil
}

func listSinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list sink-inputs: %w", err)
	}

	blocks := strings.Split(string(out), "Sink Input #")
	var res []sinkInput
	for _, block := range blocks[1:] {
		nl := strings.IndexByte(block, '\n')
		if nl <= 0 {
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(block[:nl]))
		if err != nil {
			continue
		}

		s := sinkInput{id: id}
		for _, line := range strings.Split(block[nl+1:], "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "Volume:") && s.volume == 0 {
				if m := percentRe.FindStringSubmatch(line); len(m) >= 2 {
					s.volume, _ = strconv.Atoi(m[1])
				}
			}
			if strings.HasPrefix(line, "application.name =") && s.appName == "" {
				if idx := strings.Index(line, `"`); idx >= 0 {
					rest := line[idx+1:]
					if end := strings.Index(rest, `"`); end >= 0 {
						s.appName = rest[:end]
					}
				}
			}
		}
		if s.volume == 0 && s.appName == "" {
			continue
		}
		res = append(res, s)
	}
	return res, nil
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	arg := fmt.Sprintf("%d%%", clampVolume(percent))
	return exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run()
}

// PulseAudio accepts up to 150% but we never push anything above that.
func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 150 {
		return 150
	}
	return v
}
