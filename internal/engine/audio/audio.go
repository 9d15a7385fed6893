// Package audio plays short sound effects such as collision cues.
package audio

import (
	"errors"
	"fmt"
	gomath "math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/logger"
)

// DefaultSampleRate is the speaker sample rate.
const DefaultSampleRate = beep.SampleRate(44100)

// ErrNotInitialized is returned by Play before Init.
var ErrNotInitialized = errors.New("audio not initialized")

// Player mixes decoded sound effects onto the speaker.
type Player struct {
	mu sync.RWMutex

	initialized bool
	sampleRate  beep.SampleRate
	volume      float64 // 0..1
	sounds      map[string]*beep.Buffer
	mixer       *beep.Mixer
	log         *zap.Logger
}

// New creates a player with the given volume.
func New(volume float64) *Player {
	return &Player{
		sampleRate: DefaultSampleRate,
		volume:     clamp(volume, 0, 1),
		sounds:     make(map[string]*beep.Buffer),
		mixer:      &beep.Mixer{},
		log:        logger.Named("audio"),
	}
}

// Init opens the speaker. Calling it twice is a no-op.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(p.sampleRate, p.sampleRate.N(time.Second/30)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close stops playback.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		speaker.Clear()
		p.initialized = false
	}
}

// Load decodes a WAV file into memory under name, resampled to the
// speaker rate.
func (p *Player) Load(name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("sound %s: %w", path, assets.ErrAssetNotFound)
		}
		return err
	}
	defer f.Close()

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return fmt.Errorf("sound %s: %v: %w", path, err, assets.ErrDecodeFailure)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != p.sampleRate {
		s = beep.Resample(4, format.SampleRate, p.sampleRate, streamer)
		format.SampleRate = p.sampleRate
	}
	buf := beep.NewBuffer(format)
	buf.Append(s)

	p.mu.Lock()
	p.sounds[name] = buf
	p.mu.Unlock()

	p.log.Debug("sound loaded", zap.String("name", name), zap.String("path", path), zap.Int("samples", buf.Len()))
	return nil
}

// Loaded reports whether a sound is registered under name.
func (p *Player) Loaded(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.sounds[name]
	return ok
}

// Play starts a loaded sound. Sounds overlap freely.
func (p *Player) Play(name string) error {
	p.mu.RLock()
	initialized := p.initialized
	buf, ok := p.sounds[name]
	vol := p.volume
	p.mu.RUnlock()

	if !initialized {
		return ErrNotInitialized
	}
	if !ok {
		return fmt.Errorf("sound %q not loaded", name)
	}

	speaker.Lock()
	p.mixer.Add(&effects.Volume{
		Streamer: buf.Streamer(0, buf.Len()),
		Base:     2,
		Volume:   volumeToDb(vol),
		Silent:   vol <= 0,
	})
	speaker.Unlock()
	return nil
}

// SetVolume sets the effect volume, clamped to [0, 1].
func (p *Player) SetVolume(vol float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clamp(vol, 0, 1)
}

// Volume returns the effect volume.
func (p *Player) Volume() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// volumeToDb maps a 0..1 volume onto the base-2 exponent used by
// effects.Volume, so 0.5 is one halving.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100
	}
	return gomath.Log2(vol)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
