// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/terrain/density"
)

// densitySlice renders the xy plane at grid depth z, one pixel per lattice
// point, with the positive-is-solid range mapped to brighter grays and
// y pointing up.
func densitySlice(f density.Field, cells int, freq float64, z int) *image.Gray {
	n := cells + 1
	img := image.NewGray(image.Rect(0, 0, n, n))
	for y := range n {
		for x := range n {
			d := f.Sample(float64(x)*freq, float64(y)*freq, float64(z)*freq)
			v := 128 + 64*d
			img.SetGray(x, n-1-y, color.Gray{Y: uint8(min(max(v, 0), 255))})
		}
	}
	return img
}

// upscale resamples src to a size×size image.
func upscale(src image.Image, size int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func writePreview(path string, src image.Image, size int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, upscale(src, max(size, 1))); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
