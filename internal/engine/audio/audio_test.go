package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"

	"github.com/Faultbox/chungus/internal/assets"
)

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -100},
	}

	for _, tt := range tests {
		if got := volumeToDb(tt.vol); got != tt.want {
			t.Errorf("volumeToDb(%v) = %v, want %v", tt.vol, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, lo, hi, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		if got := clamp(tt.v, tt.lo, tt.hi); got != tt.want {
			t.Errorf("clamp(%v, %v, %v) = %v, want %v", tt.v, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestNewClampsVolume(t *testing.T) {
	p := New(3)
	if p.Volume() != 1 {
		t.Errorf("Volume = %v, want 1", p.Volume())
	}
	p.SetVolume(-1)
	if p.Volume() != 0 {
		t.Errorf("Volume = %v, want 0", p.Volume())
	}
}

// writeWAV writes n samples of silence at rate.
func writeWAV(t *testing.T, path string, rate beep.SampleRate, n int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	format := beep.Format{SampleRate: rate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, beep.Silence(n), format); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	native := filepath.Join(dir, "hit.wav")
	writeWAV(t, native, DefaultSampleRate, 4410)

	p := New(1)
	if err := p.Load("hit", native); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.Loaded("hit") {
		t.Error("sound should be registered")
	}
	if n := p.sounds["hit"].Len(); n != 4410 {
		t.Errorf("buffer holds %d samples, want 4410", n)
	}

	low := filepath.Join(dir, "low.wav")
	writeWAV(t, low, 22050, 2205)
	if err := p.Load("low", low); err != nil {
		t.Fatalf("Load resampled: %v", err)
	}
	// resampled to the speaker rate: roughly twice the samples
	if n := p.sounds["low"].Len(); n < 4000 || n > 4500 {
		t.Errorf("resampled buffer holds %d samples", n)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	p := New(1)

	if err := p.Load("x", filepath.Join(dir, "missing.wav")); !errors.Is(err, assets.ErrAssetNotFound) {
		t.Errorf("missing file: %v", err)
	}

	bad := filepath.Join(dir, "bad.wav")
	os.WriteFile(bad, []byte("not a wav file"), 0644)
	if err := p.Load("x", bad); !errors.Is(err, assets.ErrDecodeFailure) {
		t.Errorf("corrupt file: %v", err)
	}
}

func TestPlayBeforeInit(t *testing.T) {
	p := New(1)
	if err := p.Play("hit"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Play = %v, want ErrNotInitialized", err)
	}
}
