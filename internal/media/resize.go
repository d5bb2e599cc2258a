package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

// ErrUnsupportedImage is returned when the upload is not a decodable image.
var ErrUnsupportedImage = errors.New("media: unsupported image format")

// Variant is one rendition generated per uploaded image.
type Variant struct {
	Suffix string
	Width  int
}

// DefaultVariants are generated for every product image.
var DefaultVariants = []Variant{
	{Suffix: "thumb", Width: 256},
	{Suffix: "md", Width: 1024},
	{Suffix: "lg", Width: 2048},
}

const (
	EncodedContentType = "image/jpeg"
	EncodedExt         = "jpg"
	jpegQuality        = 80
)

// Decode reads a JPEG, PNG, GIF or WebP image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// Resize scales src to width keeping the aspect ratio. Images already narrower
// than width are returned unchanged.
func Resize(src image.Image, width int) image.Image {
	b := src.Bounds()
	if width <= 0 || b.Dx() <= width {
		return src
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// Encode writes img as a JPEG. Transparent pixels are flattened onto white.
func Encode(img image.Image) ([]byte, error) {
	b := img.Bounds()
	flat := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
