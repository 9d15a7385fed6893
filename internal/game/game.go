// Package game implements the main loop: input, camera, collision and
// drawing of the configured scene.
package game

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/config"
	"github.com/Faultbox/chungus/internal/engine/audio"
	"github.com/Faultbox/chungus/internal/engine/debug"
	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/input"
	"github.com/Faultbox/chungus/internal/engine/renderer"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/internal/engine/window"
	"github.com/Faultbox/chungus/internal/game/world"
	"github.com/Faultbox/chungus/internal/logger"
)

// Key bindings.
const (
	KeyForward    = sdl.SCANCODE_W
	KeyBack       = sdl.SCANCODE_S
	KeyLeft       = sdl.SCANCODE_A
	KeyRight      = sdl.SCANCODE_D
	KeyQuit       = sdl.SCANCODE_ESCAPE
	KeyCapture    = sdl.SCANCODE_TAB
	KeyBoxes      = sdl.SCANCODE_F3
	KeyScreenshot = sdl.SCANCODE_F12
	KeyOpen       = sdl.SCANCODE_O
)

const (
	soundCollision = "collision"
	// spawnDistance places opened models in front of the camera.
	spawnDistance = 10
)

// Game is the main game instance.
type Game struct {
	config   *config.Config
	running  bool
	captured bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	world    *world.World
	shots    *debug.Screenshots
	sounds   *audio.Player
	touching bool
	opened   chan string
	title    string
	log      *zap.Logger
}

// New opens the window and loads the configured scene.
func New(ctx context.Context, title string, cfg *config.Config) (*Game, error) {
	g := &Game{
		config: cfg,
		log:    logger.Named("game"),
		shots:  debug.NewScreenshots(cfg.Debug.ScreenshotDir, "chungus"),
		opened: make(chan string, 1),
		title:  title,
	}
	g.log.Info("initializing game",
		zap.String("title", title),
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	var err error
	g.window, err = window.New(window.ConfigFrom(title, cfg.Graphics))
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// The renderer needs the GL context created by the window.
	g.renderer, err = renderer.New(renderer.Config{
		Width:  cfg.Graphics.Width,
		Height: cfg.Graphics.Height,
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.input = input.New()

	g.world, err = world.New(cfg, g.renderer.Backend(), importer.GLTF{}, texture.FileDecoder{})
	if err != nil {
		g.Close()
		return nil, err
	}
	if err := g.world.Populate(ctx, cfg.Scene.Objects); err != nil {
		if ctx.Err() != nil {
			g.Close()
			return nil, err
		}
		g.log.Warn("some objects failed to load", zap.Error(err))
	}

	g.initAudio()
	g.setCapture(true)
	g.log.Info("game initialized successfully")
	return g, nil
}

// Run starts the main game loop. It returns when the window is closed,
// the quit key is pressed or ctx is cancelled.
func (g *Game) Run(ctx context.Context) error {
	g.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	g.log.Info("starting game loop")

	for g.running {
		if ctx.Err() != nil {
			break
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if g.input.Update() {
			break
		}
		g.handleEvents()
		g.spawnOpened()

		g.update(float32(dt))

		if err := g.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.log.Debug("fps", zap.Int("count", frameCount), zap.Float64("dt_ms", dt*1000))
			g.showStats(frameCount)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	g.running = false
	return nil
}

func (g *Game) handleEvents() {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			g.renderer.Resize(event.Width, event.Height)
		case input.EventMouseDown:
			if !g.captured && event.Button == sdl.BUTTON_LEFT {
				g.pick(event.MouseX, event.MouseY)
			}
		}
	}

	if g.input.IsKeyPressed(KeyQuit) {
		g.running = false
	}
	if g.input.IsKeyPressed(KeyCapture) {
		g.setCapture(!g.captured)
	}
	if g.input.IsKeyPressed(KeyOpen) {
		g.setCapture(false)
		g.openModelDialog()
	}
	if g.input.IsKeyPressed(KeyBoxes) {
		g.world.DrawBoxes = !g.world.DrawBoxes
		g.log.Info("bounding boxes", zap.Bool("visible", g.world.DrawBoxes))
	}
}

func (g *Game) setCapture(on bool) {
	g.captured = on
	g.window.CaptureMouse(on)
}

func (g *Game) pick(x, y int) {
	w, h := g.renderer.Size()
	if o, ok := g.world.PickAt(float32(x), float32(y), w, h); ok {
		g.log.Info("picked object",
			zap.String("name", o.Name),
			zap.Uint64("id", uint64(o.ID())),
			zap.Int("hits", o.Hits()),
		)
	}
}

func (g *Game) update(dt float32) {
	var dx, dy float32
	if g.captured {
		dx, dy = g.input.MouseDelta()
	}
	g.world.Update(
		g.input.Axis(KeyBack, KeyForward),
		g.input.Axis(KeyLeft, KeyRight),
		dx, dy, dt,
	)

	touching := g.world.CameraTouching()
	if touching && !g.touching && g.sounds != nil {
		if err := g.sounds.Play(soundCollision); err != nil {
			g.log.Debug("collision sound", zap.Error(err))
		}
	}
	g.touching = touching
}

func (g *Game) initAudio() {
	cfg := g.config.Audio
	if !cfg.Enabled || cfg.CollisionSound == "" {
		return
	}
	p := audio.New(cfg.Volume)
	if err := p.Load(soundCollision, cfg.CollisionSound); err != nil {
		g.log.Warn("collision sound unavailable", zap.Error(err))
		return
	}
	if err := p.Init(); err != nil {
		g.log.Warn("audio disabled", zap.Error(err))
		return
	}
	g.sounds = p
}

// openModelDialog asks for a model file without blocking the frame loop.
// The choice is picked up by spawnOpened on the render thread.
func (g *Game) openModelDialog() {
	go func() {
		path, err := dialog.File().
			Filter("glTF Models", "gltf", "glb").
			Filter("All Files", "*").
			Title("Open Model").
			Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				g.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case g.opened <- path:
		default:
		}
	}()
}

func (g *Game) spawnOpened() {
	var path string
	select {
	case path = <-g.opened:
	default:
		return
	}

	cam := g.world.Camera
	pos := cam.Position.Add(cam.Forward().Scale(spawnDistance))
	o, err := g.world.Spawn(config.ObjectConfig{
		Name:        filepath.Base(path),
		Model:       path,
		Position:    pos.Array(),
		HalfExtents: [3]float32{1, 1, 1},
	})
	if err != nil {
		g.log.Error("failed to open model", zap.String("path", path), zap.Error(err))
		return
	}
	g.log.Info("model opened", zap.String("name", o.Name), zap.Uint64("id", uint64(o.ID())))
}

func (g *Game) showStats(fps int) {
	g.window.SetTitle(fmt.Sprintf("%s | %d fps | %d objects | %d textures | touching %v",
		g.title, fps, len(g.world.Objects()), g.world.Cache().Len(), g.touching))
}

func (g *Game) render() error {
	cam := g.world.Camera
	g.renderer.Begin(cam.View(), cam.Projection(g.renderer.Aspect()))

	if err := g.world.Draw(g.renderer.Backend(), g.renderer.Program()); err != nil {
		// a broken object should not stop the frame loop
		g.log.Warn("draw failed", zap.Error(err))
	}

	if g.input.IsKeyPressed(KeyScreenshot) {
		g.screenshot()
	}
	return nil
}

func (g *Game) screenshot() {
	pixels, w, h := g.renderer.ReadPixels()
	path, err := g.shots.SaveFrame(pixels, w, h)
	if err != nil {
		g.log.Error("screenshot failed", zap.Error(err))
		return
	}
	g.log.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up game resources. GL objects are freed before the context.
func (g *Game) Close() {
	g.log.Info("closing game")

	if g.sounds != nil {
		g.sounds.Close()
	}
	if g.world != nil {
		g.world.Close()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
