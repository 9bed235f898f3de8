package imageextract

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif" // decode support for direct-image strategy hits

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const passthroughThresholdBytes = 5 * 1024

// headerTargetDim and nonHeaderTargetDim are the max dimensions:
// header images allow up to 1200x1200, inline images up to 600x600.
const (
	headerTargetDim    = 1200
	nonHeaderTargetDim = 600
	webpQuality        = 65
	jpegQuality        = 65
)

// Compressor implements the compression rules: never upscale,
// pass through untouched under 5kB, WebP replaces input only if smaller.
type Compressor struct{}

func NewCompressor() *Compressor { return &Compressor{} }

// Compress applies the header or non-header encoding rule to raw image
// bytes. SVG passes through untouched (it's already vector and tiny).
func (c *Compressor) Compress(data []byte, contentType string, isHeader bool) (*Image, error) {
	if contentType == "image/svg+xml" || len(data) == 0 {
		return &Image{Bytes: data, ContentType: contentType}, nil
	}
	if len(data) < passthroughThresholdBytes {
		return &Image{Bytes: data, ContentType: contentType}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Not a format we can decode (e.g. already WebP): pass through.
		return &Image{Bytes: data, ContentType: contentType}, nil
	}

	hasAlpha := imageHasAlpha(img)
	targetDim := nonHeaderTargetDim
	if isHeader {
		targetDim = headerTargetDim
	}
	resized := resizeWithinBounds(img, targetDim, targetDim)

	if isHeader {
		if hasAlpha {
			encoded, err := encodePNG(resized)
			if err != nil {
				return &Image{Bytes: data, ContentType: contentType}, nil
			}
			return pickSmaller(data, encoded, contentType, "image/png"), nil
		}
		encoded, err := encodeWebP(resized, webpQuality)
		if err != nil {
			return &Image{Bytes: data, ContentType: contentType}, nil
		}
		return pickSmaller(data, encoded, contentType, "image/webp"), nil
	}

	encoded, err := encodeJPEG(resized, jpegQuality)
	if err != nil {
		return &Image{Bytes: data, ContentType: contentType}, nil
	}
	return pickSmaller(data, encoded, contentType, "image/jpeg"), nil
}

// pickSmaller implements "WebP output replaces input when smaller"
// generalized to whichever encoding was produced.
func pickSmaller(original, encoded []byte, originalType, encodedType string) *Image {
	if len(encoded) > 0 && len(encoded) < len(original) {
		return &Image{Bytes: encoded, ContentType: encodedType}
	}
	return &Image{Bytes: original, ContentType: originalType}
}

func imageHasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		bounds := img.Bounds()
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				_, _, _, a := img.At(x, y).RGBA()
				if a < 0xffff {
					return true
				}
			}
		}
	}
	return false
}

// resizeWithinBounds scales img down to fit within maxW x maxH, preserving
// aspect ratio. It never upscales.
func resizeWithinBounds(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	ratio := float64(w) / float64(h)
	newW, newH := maxW, int(float64(maxW)/ratio)
	if newH > maxH {
		newH = maxH
		newW = int(float64(maxH) * ratio)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
