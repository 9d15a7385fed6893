package input

import (
	"testing"

	"github.com/veandco/go-sdl2/sdl"
)

func TestAxis(t *testing.T) {
	tests := []struct {
		name string
		held []sdl.Scancode
		want float32
	}{
		{"none", nil, 0},
		{"forward", []sdl.Scancode{sdl.SCANCODE_W}, 1},
		{"back", []sdl.Scancode{sdl.SCANCODE_S}, -1},
		{"both cancel", []sdl.Scancode{sdl.SCANCODE_W, sdl.SCANCODE_S}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New()
			for _, k := range tt.held {
				in.Apply(Event{Type: EventKeyDown, Key: k})
			}
			if got := in.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W); got != tt.want {
				t.Errorf("Axis = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHeldAcrossFrames(t *testing.T) {
	in := New()
	in.Apply(Event{Type: EventKeyDown, Key: sdl.SCANCODE_A})
	if !in.IsKeyPressed(sdl.SCANCODE_A) {
		t.Error("key should be pressed on its first frame")
	}

	in.BeginFrame()
	if in.IsKeyPressed(sdl.SCANCODE_A) {
		t.Error("press should only last one frame")
	}
	if !in.IsKeyHeld(sdl.SCANCODE_A) {
		t.Error("key should stay held until released")
	}

	in.Apply(Event{Type: EventKeyUp, Key: sdl.SCANCODE_A})
	if in.IsKeyHeld(sdl.SCANCODE_A) {
		t.Error("key should be released")
	}
}

func TestRepeatIsNotAPress(t *testing.T) {
	in := New()
	in.Apply(Event{Type: EventKeyDown, Key: sdl.SCANCODE_F12, Repeat: true})
	if in.IsKeyPressed(sdl.SCANCODE_F12) {
		t.Error("auto-repeat should not count as a press")
	}
}

func TestMouseDelta(t *testing.T) {
	in := New()
	in.Apply(Event{Type: EventMouseMove, RelX: 3, RelY: -2})
	in.Apply(Event{Type: EventMouseMove, RelX: 4, RelY: 1})

	if dx, dy := in.MouseDelta(); dx != 7 || dy != -1 {
		t.Errorf("MouseDelta = %v, %v; want 7, -1", dx, dy)
	}

	in.BeginFrame()
	if dx, dy := in.MouseDelta(); dx != 0 || dy != 0 {
		t.Error("motion should reset each frame")
	}
}

func TestQuit(t *testing.T) {
	in := New()
	in.Apply(Event{Type: EventQuit})
	if !in.quit {
		t.Error("quit event should be remembered")
	}
}
