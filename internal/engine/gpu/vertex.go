// Package gpu abstracts the graphics backend the scene uploads to and draws
// with. GL implements it on OpenGL 4.1 core; gputest provides a recording
// fake for tests.
package gpu

// Vertex is the fixed vertex layout shared by every mesh buffer.
// Attribute 0 is position, 1 is normal, 2 is the texture coordinate.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Vertex attribute layout in bytes.
const (
	PositionOffset = 0
	NormalOffset   = 12
	TexCoordOffset = 24
	VertexStride   = 32
)

// Attribute locations bound by the vertex shader.
const (
	AttribPosition = 0
	AttribNormal   = 1
	AttribTexCoord = 2
)
