// Package importer reads model files into an in-memory scene graph and
// normalizes their geometry with optional post-process steps.
package importer

import (
	"fmt"
	"strings"

	"github.com/Faultbox/chungus/internal/engine/texture"
)

// Flags selects post-process steps applied after parsing.
type Flags uint32

const (
	// Triangulate splits polygon faces, strips and fans into triangle lists.
	// The draw path only understands triangles.
	Triangulate Flags = 1 << iota
	// FlipUVs replaces v with 1-v.
	FlipUVs
	// GenSmoothNormals computes per-vertex normals for meshes without them by
	// averaging the normals of faces sharing a position.
	GenSmoothNormals
	// CalcTangentSpace derives per-vertex tangents from UV gradients.
	CalcTangentSpace
	// OptimizeMeshes welds identical vertices and reindexes faces.
	OptimizeMeshes
)

// DefaultFlags enables every post-process step.
const DefaultFlags = Triangulate | FlipUVs | GenSmoothNormals | CalcTangentSpace | OptimizeMeshes

var flagNames = []struct {
	name string
	flag Flags
}{
	{"triangulate", Triangulate},
	{"flip_uvs", FlipUVs},
	{"gen_smooth_normals", GenSmoothNormals},
	{"calc_tangent_space", CalcTangentSpace},
	{"optimize_meshes", OptimizeMeshes},
}

// ParseFlags converts configuration names into a flag set.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, n := range names {
		found := false
		for _, fn := range flagNames {
			if strings.EqualFold(strings.TrimSpace(n), fn.name) {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown post-process flag %q", n)
		}
	}
	return f, nil
}

// Has reports whether every bit of other is set.
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Importer loads a model file into a scene graph.
type Importer interface {
	Import(path string, flags Flags) (*Scene, error)
}

// Scene is an imported file: a node hierarchy referencing shared meshes
// and materials by index.
type Scene struct {
	Root      *Node
	Meshes    []*MeshData
	Materials []*Material
}

// Node is one element of the scene hierarchy.
type Node struct {
	Name     string
	Meshes   []int
	Children []*Node
}

// MeshData is raw geometry for one draw call. Every per-vertex slice is
// either empty or as long as Positions.
type MeshData struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Tangents  [][3]float32
	Faces     [][]uint32
	// Material indexes Scene.Materials, -1 when unset.
	Material int
}

// Material lists texture paths per slot as written in the source file,
// relative to the file's directory.
type Material struct {
	Name     string
	Textures map[texture.Kind][]string
}

// Walk visits the node hierarchy depth first, parents before children.
func (s *Scene) Walk(fn func(n *Node)) {
	if s == nil || s.Root == nil {
		return
	}
	var visit func(n *Node)
	visit = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(s.Root)
}

// IndexCount returns the number of indices across all faces.
func (m *MeshData) IndexCount() int {
	n := 0
	for _, f := range m.Faces {
		n += len(f)
	}
	return n
}
