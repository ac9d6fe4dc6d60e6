// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Texture is a decoded image, ready for upload as R8G8B8A8.
type Texture struct {
	Width  uint32
	Height uint32
	Pixels []uint8
}

func decodeTexture(r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	return &Texture{
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: GetPixels(img, 0),
	}, nil
}

// GetPixels transforms a given image into right arrangement of pixels
// by drawing the decoded image onto a controlled RGBA canvas.
// A rowPitch smaller than four bytes per pixel is ignored.
func GetPixels(img image.Image, rowPitch int) []uint8 {
	bounds := img.Bounds()
	newImg := image.NewRGBA(bounds)
	if rowPitch > newImg.Stride {
		newImg.Stride = rowPitch
		newImg.Pix = make([]uint8, rowPitch*bounds.Dy())
	}
	draw.Draw(newImg, bounds, img, bounds.Min, draw.Src)
	return newImg.Pix
}
