package raster

import (
	"fmt"
	"image"
	"image/color"
	"os"
)

// clipFraction is the share of darkest and lightest pixels ignored when
// picking the contrast stretch bounds.
const clipFraction = 0.01

// Preprocess rewrites the PNG at path as a contrast-stretched grayscale image.
func Preprocess(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := writePNG(path, Normalize(img)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Normalize converts img to grayscale and linearly stretches its intensity
// range so the 1st and 99th percentiles map to black and white.
func Normalize(img image.Image) *image.Gray {
	gray := toGrayscale(img)
	lo, hi := percentileBounds(gray, clipFraction)
	if hi <= lo {
		return gray
	}

	var lut [256]uint8
	for v := 0; v < 256; v++ {
		switch {
		case v <= int(lo):
			lut[v] = 0
		case v >= int(hi):
			lut[v] = 255
		default:
			lut[v] = uint8((v - int(lo)) * 255 / (int(hi) - int(lo)))
		}
	}
	for i, v := range gray.Pix {
		gray.Pix[i] = lut[v]
	}
	return gray
}

func toGrayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

func percentileBounds(img *image.Gray, clip float64) (lo, hi uint8) {
	var hist [256]int
	for _, v := range img.Pix {
		hist[v]++
	}
	total := len(img.Pix)
	if total == 0 {
		return 0, 0
	}
	cut := int(float64(total) * clip)

	seen := 0
	for v := 0; v < 256; v++ {
		seen += hist[v]
		if seen > cut {
			lo = uint8(v)
			break
		}
	}
	seen = 0
	for v := 255; v >= 0; v-- {
		seen += hist[v]
		if seen > cut {
			hi = uint8(v)
			break
		}
	}
	return lo, hi
}
