// Package imaging provides the pixel buffer model used by the faceprint
// pipeline: tightly packed grayscale and RGB buffers, rectangle arithmetic,
// cropping and bilinear resizing. Buffers are plain value containers; the
// feature extractors treat them as read-only.
package imaging

import (
	"image"

	"github.com/nfnt/resize"
)

// Rectangle is an axis-aligned region in image coordinates.
type Rectangle struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the rectangle area in pixels.
func (r Rectangle) Area() int {
	return r.Width * r.Height
}

// AspectRatio returns height divided by width, or 0 for a zero-width rectangle.
func (r Rectangle) AspectRatio() float64 {
	if r.Width == 0 {
		return 0
	}
	return float64(r.Height) / float64(r.Width)
}

// Pad grows the rectangle symmetrically by margin pixels on every side.
func (r Rectangle) Pad(margin int) Rectangle {
	return Rectangle{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

// Clamp shrinks the rectangle so it lies fully inside a width×height image.
func (r Rectangle) Clamp(width, height int) Rectangle {
	if r.X < 0 {
		r.Width += r.X
		r.X = 0
	}
	if r.Y < 0 {
		r.Height += r.Y
		r.Y = 0
	}
	if r.X+r.Width > width {
		r.Width = width - r.X
	}
	if r.Y+r.Height > height {
		r.Height = height - r.Y
	}
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// Gray is a tightly packed 8-bit grayscale buffer (row-major, Height×Width).
type Gray struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGray allocates a zeroed grayscale buffer.
func NewGray(width, height int) *Gray {
	return &Gray{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the sample at (x, y).
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set writes the sample at (x, y).
func (g *Gray) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Crop returns a copy of the region r. The receiver is not modified.
func (g *Gray) Crop(r Rectangle) *Gray {
	out := NewGray(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		src := (r.Y+y)*g.Width + r.X
		copy(out.Pix[y*r.Width:(y+1)*r.Width], g.Pix[src:src+r.Width])
	}
	return out
}

// Resize returns a bilinear-resampled copy at the requested size.
func (g *Gray) Resize(width, height int) *Gray {
	resized := resize.Resize(uint(width), uint(height), g.ToImage(), resize.Bilinear)
	out := NewGray(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, _, _, _ := resized.At(x, y).RGBA()
			out.Pix[y*width+x] = uint8(r >> 8)
		}
	}
	return out
}

// ToImage converts the buffer to a standard library image.
func (g *Gray) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+g.Width], g.Pix[y*g.Width:(y+1)*g.Width])
	}
	return img
}

// RGB is a tightly packed 8-bit color buffer (row-major, 3 bytes per pixel).
type RGB struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRGB allocates a zeroed color buffer.
func NewRGB(width, height int) *RGB {
	return &RGB{Width: width, Height: height, Pix: make([]uint8, width*height*3)}
}

// At returns the color samples at (x, y).
func (c *RGB) At(x, y int) (r, g, b uint8) {
	i := (y*c.Width + x) * 3
	return c.Pix[i], c.Pix[i+1], c.Pix[i+2]
}

// Set writes the color samples at (x, y).
func (c *RGB) Set(x, y int, r, g, b uint8) {
	i := (y*c.Width + x) * 3
	c.Pix[i], c.Pix[i+1], c.Pix[i+2] = r, g, b
}

// Crop returns a copy of the region r. The receiver is not modified.
func (c *RGB) Crop(r Rectangle) *RGB {
	out := NewRGB(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		src := ((r.Y+y)*c.Width + r.X) * 3
		copy(out.Pix[y*r.Width*3:(y+1)*r.Width*3], c.Pix[src:src+r.Width*3])
	}
	return out
}

// Resize returns a bilinear-resampled copy at the requested size.
func (c *RGB) Resize(width, height int) *RGB {
	resized := resize.Resize(uint(width), uint(height), c.ToImage(), resize.Bilinear)
	out := NewRGB(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			out.Set(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return out
}

// ToImage converts the buffer to a standard library image.
func (c *RGB) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			r, g, b := c.At(x, y)
			i := y*img.Stride + x*4
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xff
		}
	}
	return img
}

// Grayscale converts the color buffer to grayscale using the standard
// luminance coefficients (0.299, 0.587, 0.114).
func (c *RGB) Grayscale() *Gray {
	out := NewGray(c.Width, c.Height)
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			r, g, b := c.At(x, y)
			luma := (299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000
			out.Set(x, y, uint8(luma))
		}
	}
	return out
}

// FromImage converts a decoded image into an RGB buffer.
func FromImage(img image.Image) *RGB {
	bounds := img.Bounds()
	out := NewRGB(bounds.Dx(), bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return out
}
