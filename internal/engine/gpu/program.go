package gpu

// Uniform names written by the scene.
const (
	UniformModel              = "model"
	UniformView               = "view"
	UniformProjection         = "projection"
	UniformApplyViewTransform = "ApplyViewTransform"
	UniformDrawingAABB        = "DrawingAABB"
)

// Program is a linked shader program and the uniform locations the scene
// writes to. Locations of -1 are silently ignored by the backend.
type Program struct {
	ID uint32

	Model              int32
	View               int32
	Projection         int32
	ApplyViewTransform int32
	DrawingAABB        int32

	samplers map[string]int32
}

// NewProgram looks up the well-known uniforms of a linked program.
func NewProgram(b Backend, id uint32) *Program {
	return &Program{
		ID:                 id,
		Model:              b.UniformLocation(id, UniformModel),
		View:               b.UniformLocation(id, UniformView),
		Projection:         b.UniformLocation(id, UniformProjection),
		ApplyViewTransform: b.UniformLocation(id, UniformApplyViewTransform),
		DrawingAABB:        b.UniformLocation(id, UniformDrawingAABB),
		samplers:           make(map[string]int32),
	}
}

// Sampler returns the location of a sampler uniform such as "texture_diffuse1",
// caching the lookup.
func (p *Program) Sampler(b Backend, name string) int32 {
	if loc, ok := p.samplers[name]; ok {
		return loc
	}
	if p.samplers == nil {
		p.samplers = make(map[string]int32)
	}
	loc := b.UniformLocation(p.ID, name)
	p.samplers[name] = loc
	return loc
}
