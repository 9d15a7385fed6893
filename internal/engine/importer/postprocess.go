package importer

import (
	"fmt"

	"github.com/Faultbox/chungus/pkg/math"
)

// positionEpsilon quantizes positions when grouping vertices for smoothing.
const positionEpsilon float32 = 0.001

// PostProcess validates every mesh of the scene and applies the selected
// steps in place.
func PostProcess(s *Scene, flags Flags) error {
	for i, m := range s.Meshes {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mesh %d: %w", i, err)
		}
		postProcessMesh(m, flags)
	}
	return nil
}

// Validate checks attribute lengths and index bounds.
func (m *MeshData) Validate() error {
	n := len(m.Positions)
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("%d normals for %d positions", len(m.Normals), n)
	}
	if len(m.TexCoords) != 0 && len(m.TexCoords) != n {
		return fmt.Errorf("%d texture coordinates for %d positions", len(m.TexCoords), n)
	}
	for fi, f := range m.Faces {
		for _, idx := range f {
			if int(idx) >= n {
				return fmt.Errorf("face %d: index %d out of range (%d vertices)", fi, idx, n)
			}
		}
	}
	return nil
}

func postProcessMesh(m *MeshData, flags Flags) {
	if flags.Has(Triangulate) {
		triangulate(m)
	}
	if flags.Has(FlipUVs) {
		for i := range m.TexCoords {
			m.TexCoords[i][1] = 1 - m.TexCoords[i][1]
		}
	}
	if flags.Has(GenSmoothNormals) && len(m.Normals) != len(m.Positions) {
		smoothNormals(m)
	}
	if flags.Has(CalcTangentSpace) {
		tangents(m)
	}
	if flags.Has(OptimizeMeshes) {
		weld(m)
	}
}

// triangulate fans polygons into triangles and drops points and lines.
func triangulate(m *MeshData) {
	out := make([][]uint32, 0, len(m.Faces))
	for _, f := range m.Faces {
		switch {
		case len(f) < 3:
			continue
		case len(f) == 3:
			out = append(out, f)
		default:
			for i := 1; i+1 < len(f); i++ {
				out = append(out, []uint32{f[0], f[i], f[i+1]})
			}
		}
	}
	m.Faces = out
}

func faceNormal(m *MeshData, f []uint32) math.Vec3 {
	a := math.Vec3From(m.Positions[f[0]])
	b := math.Vec3From(m.Positions[f[1]])
	c := math.Vec3From(m.Positions[f[2]])
	return b.Sub(a).Cross(c.Sub(a))
}

func quantize(p [3]float32) [3]int32 {
	return [3]int32{
		int32(p[0] / positionEpsilon),
		int32(p[1] / positionEpsilon),
		int32(p[2] / positionEpsilon),
	}
}

// smoothNormals accumulates area-weighted face normals at every position and
// normalizes the sum. Vertices duplicated at one position share the result.
func smoothNormals(m *MeshData) {
	sums := make(map[[3]int32]math.Vec3)
	for _, f := range m.Faces {
		if len(f) < 3 {
			continue
		}
		n := faceNormal(m, f)
		for _, idx := range f {
			key := quantize(m.Positions[idx])
			sums[key] = sums[key].Add(n)
		}
	}

	m.Normals = make([][3]float32, len(m.Positions))
	for i, p := range m.Positions {
		m.Normals[i] = sums[quantize(p)].Normalize().Array()
	}
}

// tangents computes per-vertex tangents from triangle UV gradients and
// orthogonalizes them against the normal.
func tangents(m *MeshData) {
	if len(m.TexCoords) != len(m.Positions) || len(m.Positions) == 0 {
		return
	}
	acc := make([]math.Vec3, len(m.Positions))
	for _, f := range m.Faces {
		if len(f) != 3 {
			continue
		}
		p0 := math.Vec3From(m.Positions[f[0]])
		e1 := math.Vec3From(m.Positions[f[1]]).Sub(p0)
		e2 := math.Vec3From(m.Positions[f[2]]).Sub(p0)
		uv0 := m.TexCoords[f[0]]
		du1 := m.TexCoords[f[1]][0] - uv0[0]
		dv1 := m.TexCoords[f[1]][1] - uv0[1]
		du2 := m.TexCoords[f[2]][0] - uv0[0]
		dv2 := m.TexCoords[f[2]][1] - uv0[1]

		det := du1*dv2 - du2*dv1
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Scale(dv2 * r).Sub(e2.Scale(dv1 * r))
		for _, idx := range f {
			acc[idx] = acc[idx].Add(t)
		}
	}

	m.Tangents = make([][3]float32, len(m.Positions))
	for i, t := range acc {
		if len(m.Normals) == len(m.Positions) {
			n := math.Vec3From(m.Normals[i])
			t = t.Sub(n.Scale(n.Dot(t)))
		}
		m.Tangents[i] = t.Normalize().Array()
	}
}

type vertexKey struct {
	pos, normal, tangent [3]float32
	uv                   [2]float32
}

// weld merges vertices whose attributes are bit-identical.
func weld(m *MeshData) {
	n := len(m.Positions)
	if n == 0 {
		return
	}

	remap := make([]uint32, n)
	index := make(map[vertexKey]uint32, n)
	var keep []int
	for i := 0; i < n; i++ {
		k := vertexKey{pos: m.Positions[i]}
		if len(m.Normals) == n {
			k.normal = m.Normals[i]
		}
		if len(m.TexCoords) == n {
			k.uv = m.TexCoords[i]
		}
		if len(m.Tangents) == n {
			k.tangent = m.Tangents[i]
		}
		if j, ok := index[k]; ok {
			remap[i] = j
			continue
		}
		j := uint32(len(keep))
		index[k] = j
		remap[i] = j
		keep = append(keep, i)
	}
	if len(keep) == n {
		return
	}

	m.Positions = pick(m.Positions, keep)
	if len(m.Normals) == n {
		m.Normals = pick(m.Normals, keep)
	}
	if len(m.TexCoords) == n {
		m.TexCoords = pick(m.TexCoords, keep)
	}
	if len(m.Tangents) == n {
		m.Tangents = pick(m.Tangents, keep)
	}
	for _, f := range m.Faces {
		for i, idx := range f {
			f[i] = remap[idx]
		}
	}
}

func pick[T any](src []T, keep []int) []T {
	out := make([]T, len(keep))
	for i, k := range keep {
		out[i] = src[k]
	}
	return out
}
