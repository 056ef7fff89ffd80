// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package colorbook

import (
	"image"

	"golang.org/x/image/draw"
)

// NewSurfaceFromImage seeds a surface from an externally decoded template
// image. When the image size differs from width x height it is resampled
// with Catmull-Rom; otherwise pixels are copied as-is.
func NewSurfaceFromImage(img image.Image, width, height int) *Surface {
	s := NewSurface(width, height)
	dst := s.Image()
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	}
	s.recount()
	return s
}

// ImageSurface adapts a platform-provided draw.Image to PixelSurface so the
// same fill algorithm serves every backend. Coordinates are relative to the
// image's bounds origin.
type ImageSurface struct {
	img    draw.Image
	origin image.Point
	width  int
	height int

	// nrgba is set when img is an *image.NRGBA, enabling direct access.
	nrgba *image.NRGBA
}

// NewImageSurface wraps img.
func NewImageSurface(img draw.Image) *ImageSurface {
	b := img.Bounds()
	s := &ImageSurface{
		img:    img,
		origin: b.Min,
		width:  b.Dx(),
		height: b.Dy(),
	}
	if n, ok := img.(*image.NRGBA); ok {
		s.nrgba = n
	}
	return s
}

// Width returns the surface width.
func (s *ImageSurface) Width() int {
	return s.width
}

// Height returns the surface height.
func (s *ImageSurface) Height() int {
	return s.height
}

// PixelAt returns the straight-alpha color at (x, y).
func (s *ImageSurface) PixelAt(x, y int) Color {
	if s.nrgba != nil {
		i := s.nrgba.PixOffset(x+s.origin.X, y+s.origin.Y)
		p := s.nrgba.Pix[i : i+4 : i+4]
		return Color{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	return FromColor(s.img.At(x+s.origin.X, y+s.origin.Y))
}

// SetPixel writes c at (x, y).
func (s *ImageSurface) SetPixel(x, y int, c Color) {
	if s.nrgba != nil {
		i := s.nrgba.PixOffset(x+s.origin.X, y+s.origin.Y)
		p := s.nrgba.Pix[i : i+4 : i+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
		return
	}
	s.img.Set(x+s.origin.X, y+s.origin.Y, c.NRGBA())
}

// Image returns the wrapped image.
func (s *ImageSurface) Image() draw.Image {
	return s.img
}
