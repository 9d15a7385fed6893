package importer

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/chungus/internal/assets"
	"github.com/Faultbox/chungus/internal/engine/texture"
	"github.com/Faultbox/chungus/internal/logger"
)

// GLTF imports .gltf and .glb files.
//
// Every primitive becomes its own MeshData. Material slots map as
// baseColor to Diffuse, metallicRoughness to Specular, normal to Normal and
// occlusion to Ambient. Emissive textures are ignored. Texture coordinates
// are returned with a bottom-left origin like every other Scene. Images embedded in
// buffers have no path to cache by and are skipped.
type GLTF struct{}

var _ Importer = GLTF{}

// Import parses the file at path and applies the post-process flags.
func (GLTF) Import(path string, flags Flags) (*Scene, error) {
	if err := assets.Stat(path); err != nil {
		return nil, errors.Wrapf(importFailure{err}, "import %s", path)
	}

	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(assets.ErrModelImportFailure, "import %s: %v", path, err)
	}

	s, err := convertDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(assets.ErrModelImportFailure, "import %s: %v", path, err)
	}
	if err := PostProcess(s, flags); err != nil {
		return nil, errors.Wrapf(assets.ErrModelImportFailure, "import %s: %v", path, err)
	}

	logger.Named("importer").Debug("model imported",
		zap.String("path", path),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("materials", len(s.Materials)),
		zap.Stringer("flags", flags),
	)
	return s, nil
}

// importFailure marks an underlying error, such as a missing file, as an
// import failure while keeping it reachable through errors.Is.
type importFailure struct {
	err error
}

func (e importFailure) Error() string {
	return e.err.Error()
}

func (e importFailure) Is(target error) bool {
	return target == assets.ErrModelImportFailure
}

func (e importFailure) Unwrap() error {
	return e.err
}

func convertDocument(doc *gltf.Document, name string) (*Scene, error) {
	s := &Scene{Root: &Node{Name: name}}

	for i, mat := range doc.Materials {
		s.Materials = append(s.Materials, convertMaterial(doc, i, mat))
	}

	// glTF meshes hold several primitives; remember which MeshData each became.
	primitives := make([][]int, len(doc.Meshes))
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			md, err := convertPrimitive(doc, prim)
			if err != nil {
				return nil, errors.Wrapf(err, "mesh %d primitive %d", mi, pi)
			}
			if md == nil {
				continue
			}
			md.Name = mesh.Name
			primitives[mi] = append(primitives[mi], len(s.Meshes))
			s.Meshes = append(s.Meshes, md)
		}
	}

	var roots []uint32
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		roots = doc.Scenes[*doc.Scene].Nodes
	case len(doc.Scenes) > 0:
		roots = doc.Scenes[0].Nodes
	default:
		roots = rootNodes(doc)
	}

	visited := make(map[uint32]bool)
	var build func(idx uint32) (*Node, error)
	build = func(idx uint32) (*Node, error) {
		if int(idx) >= len(doc.Nodes) {
			return nil, errors.Errorf("node %d out of range", idx)
		}
		if visited[idx] {
			return nil, errors.Errorf("node %d referenced twice", idx)
		}
		visited[idx] = true

		src := doc.Nodes[idx]
		n := &Node{Name: src.Name}
		if src.Mesh != nil && int(*src.Mesh) < len(primitives) {
			n.Meshes = append(n.Meshes, primitives[*src.Mesh]...)
		}
		for _, c := range src.Children {
			child, err := build(c)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
		}
		return n, nil
	}

	for _, r := range roots {
		n, err := build(r)
		if err != nil {
			return nil, err
		}
		s.Root.Children = append(s.Root.Children, n)
	}
	return s, nil
}

// rootNodes returns nodes that are nobody's child, for files without scenes.
func rootNodes(doc *gltf.Document) []uint32 {
	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func accessor(doc *gltf.Document, idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, errors.Errorf("accessor %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

func convertPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*MeshData, error) {
	switch prim.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		logger.Named("importer").Warn("skipping non-triangle primitive", zap.Int("mode", int(prim.Mode)))
		return nil, nil
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}

	md := &MeshData{Material: -1}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, err
	}
	if md.Positions, err = modeler.ReadPosition(doc, acr, nil); err != nil {
		return nil, errors.Wrap(err, "read positions")
	}

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		acr, err := accessor(doc, idx)
		if err != nil {
			return nil, err
		}
		if md.Normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
	}

	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		acr, err := accessor(doc, idx)
		if err != nil {
			return nil, err
		}
		if md.TexCoords, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return nil, errors.Wrap(err, "read texture coordinates")
		}
		// glTF puts the UV origin top-left; scenes use bottom-left and
		// FlipUVs converts back for top-row-first uploads.
		for i := range md.TexCoords {
			md.TexCoords[i][1] = 1 - md.TexCoords[i][1]
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		acr, err := accessor(doc, *prim.Indices)
		if err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
	} else {
		indices = make([]uint32, len(md.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	md.Faces = primitiveFaces(prim.Mode, indices)
	if prim.Material != nil && int(*prim.Material) < len(doc.Materials) {
		md.Material = int(*prim.Material)
	}
	return md, nil
}

// primitiveFaces groups a primitive's index stream into faces. Strips and
// fans are expanded here since their winding depends on position in the
// stream; the Triangulate step only splits polygons.
func primitiveFaces(mode gltf.PrimitiveMode, indices []uint32) [][]uint32 {
	var faces [][]uint32
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		for i := 0; i+2 < len(indices); i++ {
			if i%2 == 0 {
				faces = append(faces, []uint32{indices[i], indices[i+1], indices[i+2]})
			} else {
				faces = append(faces, []uint32{indices[i+1], indices[i], indices[i+2]})
			}
		}
	case gltf.PrimitiveTriangleFan:
		for i := 1; i+1 < len(indices); i++ {
			faces = append(faces, []uint32{indices[0], indices[i], indices[i+1]})
		}
	default:
		for i := 0; i+2 < len(indices); i += 3 {
			faces = append(faces, []uint32{indices[i], indices[i+1], indices[i+2]})
		}
	}
	return faces
}

func convertMaterial(doc *gltf.Document, idx int, mat *gltf.Material) *Material {
	m := &Material{Name: mat.Name, Textures: make(map[texture.Kind][]string)}
	add := func(kind texture.Kind, texIdx uint32) {
		if p, ok := texturePath(doc, texIdx); ok {
			m.Textures[kind] = append(m.Textures[kind], p)
		} else {
			logger.Named("importer").Warn("material texture has no file path",
				zap.Int("material", idx),
				zap.Stringer("kind", kind),
			)
		}
	}

	if pbr := mat.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			add(texture.Diffuse, pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			add(texture.Specular, pbr.MetallicRoughnessTexture.Index)
		}
	}
	if mat.NormalTexture != nil && mat.NormalTexture.Index != nil {
		add(texture.Normal, *mat.NormalTexture.Index)
	}
	if mat.OcclusionTexture != nil && mat.OcclusionTexture.Index != nil {
		add(texture.Ambient, *mat.OcclusionTexture.Index)
	}
	return m
}

// texturePath returns the image file a texture samples, as referenced.
func texturePath(doc *gltf.Document, texIdx uint32) (string, bool) {
	if int(texIdx) >= len(doc.Textures) {
		return "", false
	}
	tex := doc.Textures[texIdx]
	if tex.Source == nil || int(*tex.Source) >= len(doc.Images) {
		return "", false
	}
	img := doc.Images[*tex.Source]
	if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		return "", false
	}
	if p, err := url.PathUnescape(img.URI); err == nil {
		return p, true
	}
	return img.URI, true
}
