// Package texture decodes image files into RGBA pixels ready for upload and
// names the material slots a texture can fill.
package texture

import "fmt"

// Kind is the material slot a texture is bound to.
type Kind int

const (
	Diffuse Kind = iota
	Specular
	Normal
	Height
	Ambient
)

// Kinds lists every slot in binding order.
var Kinds = []Kind{Diffuse, Specular, Normal, Height, Ambient}

// String returns the slot name used in sampler uniforms.
func (k Kind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Specular:
		return "specular"
	case Normal:
		return "normal"
	case Height:
		return "height"
	case Ambient:
		return "ambient"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SamplerName returns the uniform name of the n-th texture of this kind,
// counting from 1: "texture_diffuse1", "texture_diffuse2", ...
func (k Kind) SamplerName(n int) string {
	return fmt.Sprintf("texture_%s%d", k, n)
}
