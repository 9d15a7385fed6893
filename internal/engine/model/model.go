// Package model turns imported scene graphs into drawable GPU meshes with a
// position and orientation.
package model

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/engine/gpu"
	"github.com/Faultbox/chungus/internal/engine/importer"
	"github.com/Faultbox/chungus/internal/engine/resource"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/internal/logger"
	"github.com/Faultbox/chungus/pkg/math"
)

// Model is a loaded asset placed in the world.
type Model struct {
	Path     string
	Position math.Vec3
	Rotation math.Quat

	meshes []*Mesh
	loaded bool
	// warned is the last non-unit rotation reported, so it logs once.
	warned *math.Quat
	log    *zap.Logger
}

// New creates an unloaded model. Meshes stay empty until Load succeeds.
func New(path string, position math.Vec3, rotation math.Quat) *Model {
	return &Model{
		Path:     path,
		Position: position,
		Rotation: rotation,
		log:      logger.Named("model"),
	}
}

// Meshes returns the uploaded meshes in import order.
func (m *Model) Meshes() []*Mesh {
	return m.meshes
}

// Loaded reports whether Load has succeeded.
func (m *Model) Loaded() bool {
	return m.loaded
}

// Load imports the model file, uploads every mesh reachable from the scene
// root and resolves material textures through the cache.
//
// Loading is all-or-nothing: on error every buffer created so far is
// deleted and Meshes stays empty, so Load may be retried. Calling Load on a
// loaded model returns assets.ErrDoubleLoad.
func (m *Model) Load(imp importer.Importer, cache *resource.Cache, b gpu.Backend, flags importer.Flags) error {
	if m.loaded {
		return fmt.Errorf("load %s: %w", m.Path, assets.ErrDoubleLoad)
	}

	scene, err := imp.Import(m.Path, flags)
	if err != nil {
		if !errors.Is(err, assets.ErrModelImportFailure) {
			return fmt.Errorf("load %s: %w: %w", m.Path, assets.ErrModelImportFailure, err)
		}
		return fmt.Errorf("load %s: %w", m.Path, err)
	}

	l := &loader{
		model:    m,
		scene:    scene,
		cache:    cache,
		backend:  b,
		dir:      assets.Dir(m.Path),
		textures: make(map[string]uint32),
	}
	meshes, err := l.run()
	if err != nil {
		for _, mesh := range meshes {
			mesh.release(b)
		}
		return fmt.Errorf("load %s: %w", m.Path, err)
	}

	m.meshes = meshes
	m.loaded = true
	m.log.Info("model loaded",
		zap.String("path", m.Path),
		zap.Int("meshes", len(meshes)),
		zap.Int("textures", len(l.textures)),
	)
	return nil
}

// loader holds the state of one Load call.
type loader struct {
	model   *Model
	scene   *importer.Scene
	cache   *resource.Cache
	backend gpu.Backend
	dir     string

	// textures resolved so far, by path, shared across every mesh of the model
	textures map[string]uint32
	meshes   []*Mesh
	err      error
}

func (l *loader) run() ([]*Mesh, error) {
	l.scene.Walk(func(n *importer.Node) {
		if l.err != nil {
			return
		}
		for _, idx := range n.Meshes {
			if idx < 0 || idx >= len(l.scene.Meshes) {
				l.err = fmt.Errorf("node %q references mesh %d of %d: %w",
					n.Name, idx, len(l.scene.Meshes), assets.ErrModelImportFailure)
				return
			}
			md := l.scene.Meshes[idx]
			if md.IndexCount() == 0 {
				l.model.log.Debug("skipping empty mesh", zap.String("node", n.Name), zap.Int("mesh", idx))
				continue
			}
			mesh, err := l.build(md)
			if err != nil {
				l.err = err
				return
			}
			l.meshes = append(l.meshes, mesh)
		}
	})
	return l.meshes, l.err
}

func (l *loader) build(md *importer.MeshData) (*Mesh, error) {
	vertices, err := Vertices(md)
	if err != nil {
		return nil, err
	}
	indices, err := Indices(md)
	if err != nil {
		return nil, err
	}
	textures, err := l.materialTextures(md.Material)
	if err != nil {
		return nil, err
	}
	return NewMesh(l.backend, md.Name, vertices, indices, textures)
}

// materialTextures resolves every slot of a material in binding order.
func (l *loader) materialTextures(idx int) ([]resource.Texture, error) {
	if idx < 0 || idx >= len(l.scene.Materials) {
		return nil, nil
	}
	mat := l.scene.Materials[idx]

	var out []resource.Texture
	for _, kind := range texture.Kinds {
		for _, ref := range mat.Textures[kind] {
			path := assets.Resolve(l.dir, ref)
			h, ok := l.textures[path]
			if !ok {
				var err error
				if h, err = l.cache.GetOrLoadTexture(path); err != nil {
					return nil, fmt.Errorf("material %q: %w", mat.Name, err)
				}
				l.textures[path] = h
			}
			out = append(out, resource.Texture{Handle: h, Kind: kind, Path: path})
		}
	}
	return out, nil
}

// TexturePaths lists the distinct texture files a model at modelPath would
// load from scene, in binding order.
func TexturePaths(modelPath string, scene *importer.Scene) []string {
	dir := assets.Dir(modelPath)
	seen := make(map[string]bool)
	var out []string
	for _, mat := range scene.Materials {
		for _, kind := range texture.Kinds {
			for _, ref := range mat.Textures[kind] {
				path := assets.Resolve(dir, ref)
				if !seen[path] {
					seen[path] = true
					out = append(out, path)
				}
			}
		}
	}
	return out
}

// Vertices interleaves mesh attributes into the GPU vertex layout. Missing
// texture coordinates default to (0,0) and missing normals to zero.
func Vertices(md *importer.MeshData) ([]gpu.Vertex, error) {
	n := len(md.Positions)
	hasNormals := len(md.Normals) == n
	hasUVs := len(md.TexCoords) == n
	if len(md.Normals) != 0 && !hasNormals || len(md.TexCoords) != 0 && !hasUVs {
		return nil, fmt.Errorf("mesh %q: attribute count mismatch: %w", md.Name, assets.ErrModelImportFailure)
	}

	vertices := make([]gpu.Vertex, n)
	for i, p := range md.Positions {
		vertices[i].Position = p
		if hasNormals {
			vertices[i].Normal = md.Normals[i]
		}
		if hasUVs {
			vertices[i].TexCoord = md.TexCoords[i]
		}
	}
	return vertices, nil
}

// Indices flattens triangle faces into an index list.
func Indices(md *importer.MeshData) ([]uint32, error) {
	indices := make([]uint32, 0, md.IndexCount())
	for i, f := range md.Faces {
		if len(f) != 3 {
			return nil, fmt.Errorf("mesh %q face %d has %d indices, enable triangulation: %w",
				md.Name, i, len(f), assets.ErrModelImportFailure)
		}
		for _, idx := range f {
			if int(idx) >= len(md.Positions) {
				return nil, fmt.Errorf("mesh %q face %d: index %d out of range: %w",
					md.Name, i, idx, assets.ErrModelImportFailure)
			}
		}
		indices = append(indices, f...)
	}
	return indices, nil
}

// Transform returns the model matrix: rotate, then translate.
func (m *Model) Transform() (math.Mat4, error) {
	if !m.Rotation.IsUnit() && (m.warned == nil || *m.warned != m.Rotation) {
		rot := m.Rotation
		m.warned = &rot
		m.log.Warn("model rotation is not unit length",
			zap.String("path", m.Path),
			zap.Float32("length", m.Rotation.Length()),
		)
	}
	rot, err := m.Rotation.RotationMatrix()
	if err != nil {
		return math.Identity(), fmt.Errorf("model %s: %w", m.Path, err)
	}
	return math.TranslateV(m.Position).Mul(rot), nil
}

// Draw sets the model matrix and draws every mesh with the bound program.
func (m *Model) Draw(b gpu.Backend, p *gpu.Program) error {
	if len(m.meshes) == 0 {
		return nil
	}
	t, err := m.Transform()
	if err != nil {
		return err
	}
	for _, mesh := range m.meshes {
		b.SetUniformMat4(p.Model, t)
		mesh.Draw(b, p)
	}
	return nil
}

// Dispose deletes the model's vertex and index buffers. Textures belong to
// the cache and are left alone.
func (m *Model) Dispose(b gpu.Backend) {
	for _, mesh := range m.meshes {
		mesh.release(b)
	}
	if len(m.meshes) > 0 {
		m.log.Debug("model disposed", zap.String("path", m.Path), zap.Int("meshes", len(m.meshes)))
	}
	m.meshes = nil
}
