package model

import (
	"errors"
	"fmt"
	"image"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/gpu/gputest"
	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/resource"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/pkg/math"
)

type fakeImporter struct {
	scene *importer.Scene
	err   error
	calls int
	flags importer.Flags
}

func (f *fakeImporter) Import(path string, flags importer.Flags) (*importer.Scene, error) {
	f.calls++
	f.flags = flags
	return f.scene, f.err
}

type fakeDecoder struct {
	missing map[string]bool
	decoded []string
}

func (d *fakeDecoder) Decode(path string) (*image.RGBA, error) {
	d.decoded = append(d.decoded, path)
	if d.missing[path] {
		return nil, fmt.Errorf("texture %s: %w", path, assets.ErrAssetNotFound)
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func triangle() *importer.MeshData {
	return &importer.MeshData{
		Name:      "tri",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:     [][]uint32{{0, 1, 2}},
		Material:  0,
	}
}

// crateScene has three meshes on two levels sharing one diffuse texture.
func crateScene() *importer.Scene {
	return &importer.Scene{
		Root: &importer.Node{Name: "root", Meshes: []int{0}, Children: []*importer.Node{
			{Name: "lid", Meshes: []int{1, 2}},
		}},
		Meshes: []*importer.MeshData{triangle(), triangle(), triangle()},
		Materials: []*importer.Material{{
			Name: "wood",
			Textures: map[texture.Kind][]string{
				texture.Diffuse:  {"wood.png", "dirt.png"},
				texture.Specular: {"wood_spec.png"},
			},
		}},
	}
}

type env struct {
	rec   *gputest.Recorder
	dec   *fakeDecoder
	cache *resource.Cache
}

func newEnv() *env {
	rec := gputest.New()
	dec := &fakeDecoder{missing: make(map[string]bool)}
	return &env{rec: rec, dec: dec, cache: resource.New(rec, dec)}
}

func TestLoad(t *testing.T) {
	e := newEnv()
	imp := &fakeImporter{scene: crateScene()}
	m := New("models/crate/crate.gltf", math.Vec3{}, math.QuatIdentity())

	if len(m.Meshes()) != 0 {
		t.Fatal("meshes should be empty before Load")
	}
	if err := m.Load(imp, e.cache, e.rec, importer.DefaultFlags); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if imp.flags != importer.DefaultFlags {
		t.Errorf("importer got flags %v", imp.flags)
	}
	if len(m.Meshes()) != 3 {
		t.Fatalf("got %d meshes, want 3", len(m.Meshes()))
	}
	if e.rec.MeshUploads != 3 {
		t.Errorf("mesh uploads = %d, want 3", e.rec.MeshUploads)
	}
	// three distinct files across three meshes
	if e.rec.TextureUploads != 3 {
		t.Errorf("texture uploads = %d, want 3", e.rec.TextureUploads)
	}
	if len(e.dec.decoded) != 3 {
		t.Errorf("decoded %v, want each file once", e.dec.decoded)
	}

	tex := m.Meshes()[0].Textures
	if len(tex) != 3 {
		t.Fatalf("got %d textures, want 3", len(tex))
	}
	if tex[0].Path != "models/crate/wood.png" || tex[0].Kind != texture.Diffuse {
		t.Errorf("first texture = %+v, want diffuse resolved against model dir", tex[0])
	}
	if tex[2].Kind != texture.Specular {
		t.Errorf("third texture kind = %v, want specular", tex[2].Kind)
	}
	if m.Meshes()[2].Textures[0].Handle != tex[0].Handle {
		t.Error("meshes should share texture handles")
	}
}

func TestLoadSharesCacheAcrossModels(t *testing.T) {
	e := newEnv()
	a := New("models/crate/a.gltf", math.Vec3{}, math.QuatIdentity())
	b := New("models/crate/b.gltf", math.Vec3{}, math.QuatIdentity())

	for _, m := range []*Model{a, b} {
		if err := m.Load(&fakeImporter{scene: crateScene()}, e.cache, e.rec, 0); err != nil {
			t.Fatal(err)
		}
	}
	if e.rec.TextureUploads != 3 {
		t.Errorf("texture uploads = %d, want 3 for two models sharing files", e.rec.TextureUploads)
	}
}

func TestLoadDoubleLoad(t *testing.T) {
	e := newEnv()
	imp := &fakeImporter{scene: crateScene()}
	m := New("crate.gltf", math.Vec3{}, math.QuatIdentity())

	if err := m.Load(imp, e.cache, e.rec, 0); err != nil {
		t.Fatal(err)
	}
	first := m.Meshes()

	err := m.Load(imp, e.cache, e.rec, 0)
	if !errors.Is(err, assets.ErrDoubleLoad) {
		t.Fatalf("second Load: got %v, want ErrDoubleLoad", err)
	}
	if imp.calls != 1 {
		t.Errorf("importer called %d times, want 1", imp.calls)
	}
	if e.rec.MeshUploads != 3 {
		t.Errorf("mesh uploads = %d, want 3", e.rec.MeshUploads)
	}
	if len(m.Meshes()) != len(first) || m.Meshes()[0] != first[0] {
		t.Error("meshes changed after rejected Load")
	}
}

func TestLoadAllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*env, *fakeImporter)
		want  error
	}{
		{
			name:  "import failure",
			setup: func(_ *env, imp *fakeImporter) { imp.err = errors.New("bad header"); imp.scene = nil },
			want:  assets.ErrModelImportFailure,
		},
		{
			name: "missing texture",
			setup: func(e *env, _ *fakeImporter) {
				e.dec.missing["models/wood_spec.png"] = true
			},
			want: assets.ErrAssetNotFound,
		},
		{
			name:  "upload failure on third mesh",
			setup: func(e *env, _ *fakeImporter) { e.rec.FailMeshAfter = 2 },
			want:  gputest.ErrInjected,
		},
		{
			name: "non-triangle face",
			setup: func(_ *env, imp *fakeImporter) {
				imp.scene.Meshes[2].Faces = [][]uint32{{0, 1, 2, 0}}
			},
			want: assets.ErrModelImportFailure,
		},
		{
			name: "dangling mesh reference",
			setup: func(_ *env, imp *fakeImporter) {
				imp.scene.Root.Children[0].Meshes = []int{1, 9}
			},
			want: assets.ErrModelImportFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv()
			imp := &fakeImporter{scene: crateScene()}
			tt.setup(e, imp)
			m := New("models/crate.gltf", math.Vec3{}, math.QuatIdentity())

			err := m.Load(imp, e.cache, e.rec, importer.DefaultFlags)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(m.Meshes()) != 0 || m.Loaded() {
				t.Error("failed Load must leave the model empty")
			}
			if len(e.rec.Meshes) != 0 {
				t.Errorf("%d mesh buffers leaked", len(e.rec.Meshes))
			}
		})
	}
}

func TestLoadRetryAfterFailure(t *testing.T) {
	e := newEnv()
	imp := &fakeImporter{err: fmt.Errorf("not yet: %w", assets.ErrAssetNotFound)}
	m := New("crate.gltf", math.Vec3{}, math.QuatIdentity())

	err := m.Load(imp, e.cache, e.rec, 0)
	if !errors.Is(err, assets.ErrModelImportFailure) || !errors.Is(err, assets.ErrAssetNotFound) {
		t.Fatalf("got %v, want import failure wrapping not-found", err)
	}

	imp.err = nil
	imp.scene = crateScene()
	if err := m.Load(imp, e.cache, e.rec, 0); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestLoadDefaultsMissingAttributes(t *testing.T) {
	md := triangle()
	verts, err := Vertices(md)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range verts {
		if v.TexCoord != [2]float32{} || v.Normal != [3]float32{} {
			t.Errorf("vertex %d = %+v, want zero uv and normal", i, v)
		}
	}

	md.TexCoords = [][2]float32{{1, 1}}
	if _, err := Vertices(md); !errors.Is(err, assets.ErrModelImportFailure) {
		t.Errorf("mismatched uv count: got %v", err)
	}
}

func TestTransform(t *testing.T) {
	rot := math.QuatFromAxisAngle(math.Vec3{Y: 1}, 3.14159265/2)
	m := New("m.gltf", math.Vec3{X: 10, Y: 2, Z: -3}, rot)

	tr, err := m.Transform()
	if err != nil {
		t.Fatal(err)
	}
	// rotate (1,0,0) to (0,0,-1) then translate
	p := tr.TransformPoint([3]float32{1, 0, 0})
	want := [3]float32{10, 2, -4}
	for i := range p {
		if d := p[i] - want[i]; d > 1e-5 || d < -1e-5 {
			t.Fatalf("transformed point = %v, want %v", p, want)
		}
	}

	m.Rotation = math.Quat{}
	if _, err := m.Transform(); !errors.Is(err, math.ErrInvalidOrientation) {
		t.Errorf("zero rotation: got %v, want ErrInvalidOrientation", err)
	}
}

func TestTransformWarnsOncePerRotation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := New("m.gltf", math.Vec3{}, math.Quat{W: 2})
	m.log = zap.New(core)

	for range 5 {
		if _, err := m.Transform(); err != nil {
			t.Fatal(err)
		}
	}
	if n := logs.Len(); n != 1 {
		t.Fatalf("got %d warnings over 5 frames, want 1", n)
	}

	m.Rotation = math.Quat{Y: 3}
	m.Transform()
	m.Transform()
	if n := logs.Len(); n != 2 {
		t.Errorf("got %d warnings after a new rotation, want 2", n)
	}

	m.Rotation = math.QuatIdentity()
	m.Transform()
	if n := logs.Len(); n != 2 {
		t.Errorf("unit rotation logged a warning")
	}
}

func TestDrawBindsTexturesBySlot(t *testing.T) {
	e := newEnv()
	m := New("models/crate.gltf", math.Vec3{X: 1}, math.QuatIdentity())
	if err := m.Load(&fakeImporter{scene: crateScene()}, e.cache, e.rec, 0); err != nil {
		t.Fatal(err)
	}
	p := gpu.NewProgram(e.rec, 1)

	if err := m.Draw(e.rec, p); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(e.rec.Draws) != 3 {
		t.Fatalf("got %d draws, want 3", len(e.rec.Draws))
	}

	for name, unit := range map[string]int32{
		"texture_diffuse1":  0,
		"texture_diffuse2":  1,
		"texture_specular1": 2,
	} {
		loc := e.rec.Loc(name)
		if loc < 0 {
			t.Errorf("sampler %q never looked up", name)
			continue
		}
		if got := e.rec.Ints[loc]; got != unit {
			t.Errorf("sampler %q = unit %d, want %d", name, got, unit)
		}
	}

	d := e.rec.Draws[0]
	if d.Model != math.Translate(1, 0, 0) {
		t.Errorf("model matrix = %v", d.Model)
	}
	tex := m.Meshes()[0].Textures
	for unit, tx := range tex {
		if d.Textures[uint32(unit)] != tx.Handle {
			t.Errorf("unit %d bound to %d, want %d", unit, d.Textures[uint32(unit)], tx.Handle)
		}
	}
}

func TestDrawInvalidRotation(t *testing.T) {
	e := newEnv()
	m := New("m.gltf", math.Vec3{}, math.QuatIdentity())
	if err := m.Load(&fakeImporter{scene: crateScene()}, e.cache, e.rec, 0); err != nil {
		t.Fatal(err)
	}
	m.Rotation = math.Quat{}
	if err := m.Draw(e.rec, gpu.NewProgram(e.rec, 1)); !errors.Is(err, math.ErrInvalidOrientation) {
		t.Errorf("got %v, want ErrInvalidOrientation", err)
	}
	if len(e.rec.Draws) != 0 {
		t.Error("nothing should be drawn with an invalid rotation")
	}
}

func TestDisposeKeepsTextures(t *testing.T) {
	e := newEnv()
	m := New("m.gltf", math.Vec3{}, math.QuatIdentity())
	if err := m.Load(&fakeImporter{scene: crateScene()}, e.cache, e.rec, 0); err != nil {
		t.Fatal(err)
	}

	m.Dispose(e.rec)
	m.Dispose(e.rec)

	if len(e.rec.Meshes) != 0 {
		t.Errorf("%d mesh buffers still alive", len(e.rec.Meshes))
	}
	if len(e.rec.Deleted) != 3 {
		t.Errorf("deleted %d buffer sets, want 3", len(e.rec.Deleted))
	}
	if len(e.rec.Textures) != 3 || e.cache.Len() != 3 {
		t.Error("textures must stay in the cache after Dispose")
	}
	if len(m.Meshes()) != 0 {
		t.Error("Meshes should be empty after Dispose")
	}
}

func TestTexturePaths(t *testing.T) {
	got := TexturePaths("models/crate/crate.gltf", crateScene())
	want := []string{
		"models/crate/wood.png",
		"models/crate/dirt.png",
		"models/crate/wood_spec.png",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("TexturePaths = %v, want %v", got, want)
	}
}
