package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/chungus/internal/assets"
)

// Decoder turns an image file into pixels.
// Missing files wrap assets.ErrAssetNotFound; unreadable data wraps
// assets.ErrDecodeFailure.
type Decoder interface {
	Decode(path string) (*image.RGBA, error)
}

// FileDecoder decodes images from the local filesystem.
// PNG, JPEG, GIF, BMP, TIFF, WebP and TGA are supported.
type FileDecoder struct{}

// Decode reads and decodes the file at path.
func (FileDecoder) Decode(path string) (*image.RGBA, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("texture %s: %w", path, assets.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}
	return DecodeBytes(path, data)
}

// DecodeBytes decodes in-memory image data. name selects the TGA decoder by
// extension and is used in error messages.
func DecodeBytes(name string, data []byte) (*image.RGBA, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("texture %s: %v: %w", name, err, assets.ErrDecodeFailure)
	}

	rgba := ImageToRGBA(img)
	if rgba.Rect.Empty() {
		return nil, fmt.Errorf("texture %s: empty image: %w", name, assets.ErrDecodeFailure)
	}
	return rgba, nil
}

// ImageToRGBA converts any image to *image.RGBA anchored at the origin.
func ImageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Rect, img, bounds.Min, draw.Src)
	return rgba
}
