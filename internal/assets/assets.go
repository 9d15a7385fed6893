// Package assets resolves asset paths and defines the error taxonomy shared
// by the import pipeline.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrAssetNotFound is returned when a model or image file does not exist.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrModelImportFailure is returned when the import service cannot parse a model.
	ErrModelImportFailure = errors.New("model import failed")
	// ErrDecodeFailure is returned when image data is corrupt or unsupported.
	ErrDecodeFailure = errors.New("image decode failed")
	// ErrDoubleLoad is returned when Load is called on an already loaded model.
	ErrDoubleLoad = errors.New("model already loaded")
)

// Normalize turns a path into the canonical cache key: cleaned and
// slash-separated. Keys are case-sensitive.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// Resolve joins a path referenced from inside an asset (for example a texture
// named by a material) with the directory of the referencing file. Absolute
// references are kept as they are.
func Resolve(dir, ref string) string {
	ref = Normalize(ref)
	if path.IsAbs(ref) || filepath.IsAbs(ref) || dir == "" {
		return ref
	}
	return Normalize(path.Join(filepath.ToSlash(dir), ref))
}

// Dir returns the directory part of a model path, the base for its textures.
func Dir(p string) string {
	return path.Dir(Normalize(p))
}

// Stat checks that a file exists and classifies the failure.
func Stat(p string) error {
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", p, ErrAssetNotFound)
		}
		return fmt.Errorf("%s: %w", p, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", p, ErrAssetNotFound)
	}
	return nil
}

// Resolver maps configured model paths onto the asset root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(root string) *Resolver {
	return &Resolver{root: root}
}

// Root returns the asset root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Path returns the normalized path of an asset relative to the root.
func (r *Resolver) Path(name string) string {
	return Resolve(r.root, name)
}
