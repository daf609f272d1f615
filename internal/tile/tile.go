// Package tile fetches raster map tiles from an upstream XYZ tile server and
// decodes them into RGBA8 buffers ready to be bound as textures.
package tile

import (
	"image"
)

type FilterMode int

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

func (m FilterMode) String() string {
	if m == FilterLinear {
		return "linear"
	}
	return "nearest"
}

// Sampler is the texture sampling applied when a tile is drawn.
type Sampler struct {
	Min    FilterMode `json:"min"`
	Mag    FilterMode `json:"mag"`
	Mipmap FilterMode `json:"mipmap"`
}

// DefaultSampler filters bilinearly at every stage.
var DefaultSampler = Sampler{
	Min:    FilterLinear,
	Mag:    FilterLinear,
	Mipmap: FilterLinear,
}

// DecodedTile is an RGBA8 pixel buffer. It is never modified after decoding,
// so one value is shared by every region that shows the same tile.
type DecodedTile struct {
	Width   int
	Height  int
	Pix     []byte
	Sampler Sampler
}

func newDecodedTile(img *image.RGBA) *DecodedTile {
	b := img.Bounds()
	pix := img.Pix
	if img.Stride != 4*b.Dx() {
		pix = make([]byte, 0, 4*b.Dx()*b.Dy())
		for y := b.Min.Y; y < b.Max.Y; y++ {
			off := img.PixOffset(b.Min.X, y)
			pix = append(pix, img.Pix[off:off+4*b.Dx()]...)
		}
	}

	return &DecodedTile{
		Width:   b.Dx(),
		Height:  b.Dy(),
		Pix:     pix,
		Sampler: DefaultSampler,
	}
}

// RGBA wraps the buffer without copying. Callers must not write to it.
func (t *DecodedTile) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    t.Pix,
		Stride: 4 * t.Width,
		Rect:   image.Rect(0, 0, t.Width, t.Height),
	}
}

func (t *DecodedTile) Size() int {
	return len(t.Pix)
}
