package capture

import "image"

// BytesPerPixel of the packed BGRA8 staging format.
const BytesPerPixel = 4

// PixelBuffer is one fully copied frame. Rows are RowPitch bytes apart and
// RowPitch may exceed Width*BytesPerPixel; index rows with Row or BGRA.
type PixelBuffer struct {
	Pix      []byte
	RowPitch int
	Width    int
	Height   int
}

// Row returns the Width*BytesPerPixel visible bytes of row y, or nil when y
// is out of range.
func (b *PixelBuffer) Row(y int) []byte {
	if b == nil || y < 0 || y >= b.Height {
		return nil
	}
	start := y * b.RowPitch
	return b.Pix[start : start+b.Width*BytesPerPixel]
}

// BGRA returns the pixel at (x, y). ok is false outside the frame.
func (b *PixelBuffer) BGRA(x, y int) (blue, green, red, alpha uint8, ok bool) {
	if b == nil || x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return 0, 0, 0, 0, false
	}
	i := y*b.RowPitch + x*BytesPerPixel
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2], b.Pix[i+3], true
}

// RGBA converts the buffer into a tightly packed, opaque *image.RGBA.
func (b *PixelBuffer) RGBA() *image.RGBA {
	if b == nil || b.Width <= 0 || b.Height <= 0 {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		src := b.Row(y)
		out := dst.Pix[y*dst.Stride : y*dst.Stride+b.Width*4]
		for i := 0; i < len(src); i += 4 {
			out[i+0] = src[i+2]
			out[i+1] = src[i+1]
			out[i+2] = src[i+0]
			// alpha from duplication is undefined; force opaque
			out[i+3] = 0xFF
		}
	}
	return dst
}
