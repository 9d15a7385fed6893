package world

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/config"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/gpu/gputest"
	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/pkg/math"
)

type fakeImporter struct {
	calls map[string]int
}

func (f *fakeImporter) Import(path string, flags importer.Flags) (*importer.Scene, error) {
	f.calls[path]++
	if path == "assets/missing.glb" {
		return nil, fmt.Errorf("import %s: %w", path, assets.ErrAssetNotFound)
	}
	return &importer.Scene{
		Root: &importer.Node{Name: "root", Meshes: []int{0}},
		Meshes: []*importer.MeshData{{
			Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Faces:     [][]uint32{{0, 1, 2}},
		}},
		Materials: []*importer.Material{{
			Textures: map[texture.Kind][]string{
				texture.Diffuse:  {"wood.png"},
				texture.Specular: {"wood_spec.png"},
			},
		}},
	}, nil
}

type fakeDecoder struct {
	decoded int
}

func (d *fakeDecoder) Decode(string) (*image.RGBA, error) {
	d.decoded++
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

type env struct {
	rec *gputest.Recorder
	imp *fakeImporter
	dec *fakeDecoder
	w   *World
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Assets.Root = "assets"
	rec := gputest.New()
	imp := &fakeImporter{calls: make(map[string]int)}
	dec := &fakeDecoder{}
	w, err := New(cfg, rec, imp, dec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &env{rec: rec, imp: imp, dec: dec, w: w}
}

func object(name, model string, x float32) config.ObjectConfig {
	return config.ObjectConfig{
		Name:        name,
		Model:       model,
		Position:    [3]float32{x, 0, -30},
		HalfExtents: [3]float32{1, 1, 1},
	}
}

func TestNewRejectsUnknownFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Assets.PostProcess = []string{"triangulate", "explode"}
	if _, err := New(cfg, gputest.New(), &fakeImporter{}, &fakeDecoder{}); err == nil {
		t.Error("expected error for unknown post-process flag")
	}
}

func TestPopulate(t *testing.T) {
	e := newEnv(t)
	err := e.w.Populate(context.Background(), []config.ObjectConfig{
		object("a", "crate.glb", 0),
		object("b", "crate.glb", 10),
		object("ghost", "missing.glb", 20),
	})

	if !errors.Is(err, assets.ErrAssetNotFound) {
		t.Errorf("Populate error = %v, want the missing model reported", err)
	}
	if len(e.w.Objects()) != 2 {
		t.Fatalf("objects = %d, want 2", len(e.w.Objects()))
	}
	if e.imp.calls["assets/crate.glb"] != 1 {
		t.Errorf("shared model imported %d times, want 1", e.imp.calls["assets/crate.glb"])
	}
	if e.rec.TextureUploads != 2 || e.dec.decoded != 2 {
		t.Errorf("uploads %d decodes %d, want 2 each", e.rec.TextureUploads, e.dec.decoded)
	}
	if e.w.Registry().Len() != 2 {
		t.Errorf("registry has %d models", e.w.Registry().Len())
	}
	// two objects plus the camera
	if e.w.Colliders().Len() != 3 {
		t.Errorf("colliders = %d, want 3", e.w.Colliders().Len())
	}
}

func TestPopulateCancelled(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.w.Populate(ctx, []config.ObjectConfig{object("a", "crate.glb", 0)}); !errors.Is(err, context.Canceled) {
		t.Errorf("Populate = %v, want context.Canceled", err)
	}
}

func TestUpdateRunsCollisions(t *testing.T) {
	e := newEnv(t)
	if err := e.w.Populate(context.Background(), []config.ObjectConfig{object("a", "crate.glb", 0)}); err != nil {
		t.Fatal(err)
	}
	a := e.w.Objects()[0]

	if hits := e.w.Update(0, 0, 0, 0, 0.016); hits != 0 {
		t.Errorf("hits = %d before moving, want 0", hits)
	}
	if e.w.CameraTouching() {
		t.Error("camera should start clear of the object")
	}

	// walk from z=10 to z=-30
	for i := 0; i < 20; i++ {
		e.w.Update(1, 0, 0, 0, 0.1)
	}
	if e.w.Camera.Position.Distance(math.Vec3{Z: -30}) > 1e-3 {
		t.Fatalf("camera at %+v", e.w.Camera.Position)
	}
	if a.Hits() == 0 {
		t.Error("object inside the camera box should be notified")
	}
	if !e.w.CameraTouching() {
		t.Error("camera should be touching the object")
	}
}

func TestDrawBoxes(t *testing.T) {
	e := newEnv(t)
	e.w.Populate(context.Background(), []config.ObjectConfig{
		object("a", "crate.glb", 0),
		object("b", "crate.glb", 10),
	})
	p := gpu.NewProgram(e.rec, 1)

	if err := e.w.Draw(e.rec, p); err != nil {
		t.Fatal(err)
	}
	if len(e.rec.Draws) != 2 {
		t.Fatalf("draws without boxes = %d, want 2", len(e.rec.Draws))
	}

	e.w.DrawBoxes = true
	e.rec.Draws = nil
	if err := e.w.Draw(e.rec, p); err != nil {
		t.Fatal(err)
	}
	// two models, two object boxes, one camera box
	if len(e.rec.Draws) != 5 {
		t.Fatalf("draws with boxes = %d, want 5", len(e.rec.Draws))
	}
	for _, d := range e.rec.Draws[2:] {
		if d.Mode != gpu.PolygonLine {
			t.Error("boxes should be drawn as lines")
		}
	}
}

func TestPickAt(t *testing.T) {
	e := newEnv(t)
	e.w.Populate(context.Background(), []config.ObjectConfig{
		object("near", "crate.glb", 0),
		{Name: "far", Model: "crate.glb", Position: [3]float32{0, 0, -60}, HalfExtents: [3]float32{1, 1, 1}},
		object("side", "crate.glb", 30),
	})

	hit, ok := e.w.PickAt(400, 300, 800, 600)
	if !ok || hit.Name != "near" {
		t.Errorf("centre pick = %v, %v; want near", hit, ok)
	}
	if _, ok := e.w.PickAt(0, 0, 800, 600); ok {
		t.Error("corner pick should miss")
	}
}

func TestRemoveAndClose(t *testing.T) {
	e := newEnv(t)
	e.w.Populate(context.Background(), []config.ObjectConfig{
		object("a", "crate.glb", 0),
		object("b", "crate.glb", 10),
	})
	a := e.w.Objects()[0]

	if !e.w.Remove(a) || e.w.Remove(a) {
		t.Error("Remove should succeed once")
	}
	if e.w.Registry().Len() != 1 || e.w.Colliders().Len() != 2 {
		t.Error("removed object should be deregistered")
	}

	e.w.Close()
	if len(e.rec.Meshes) != 0 {
		t.Errorf("%d meshes leaked", len(e.rec.Meshes))
	}
	if len(e.rec.Textures) != 0 {
		t.Errorf("%d textures leaked", len(e.rec.Textures))
	}
	if e.w.Colliders().Len() != 0 {
		t.Error("camera should be deregistered")
	}
}

func TestBounds(t *testing.T) {
	e := newEnv(t)
	if _, ok := e.w.Bounds(); ok {
		t.Error("empty world has no bounds")
	}
	e.w.Populate(context.Background(), []config.ObjectConfig{
		object("a", "crate.glb", 0),
		object("b", "crate.glb", 10),
	})
	b, _ := e.w.Bounds()
	if b.Min() != (math.Vec3{X: -1, Y: -1, Z: -31}) || b.Max() != (math.Vec3{X: 11, Y: 1, Z: -29}) {
		t.Errorf("bounds = %+v .. %+v", b.Min(), b.Max())
	}
}
