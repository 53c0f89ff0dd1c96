// Package imaging prepares rasterized pages for OCR.
package imaging

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

const (
	ContrastFactor  = 1.5
	SharpnessFactor = 1.2
	MedianSize      = 3
)

// Enhance converts img to grayscale, boosts contrast and sharpness and
// removes speckle noise with a median filter. On error the caller should
// keep using the original image.
func Enhance(img image.Image) (out *image.Gray, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("enhance image: %v", r)
		}
	}()
	if img == nil {
		return nil, fmt.Errorf("enhance image: nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("enhance image: empty bounds %v", b)
	}

	gray := ToGray(img)
	gray = contrast(gray, ContrastFactor)
	gray = sharpen(gray, SharpnessFactor)
	gray = median(gray, MedianSize)
	return gray, nil
}

// ToGray returns img as an *image.Gray anchored at the origin.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// contrast scales every pixel's distance from the mean luminance by factor.
func contrast(src *image.Gray, factor float64) *image.Gray {
	var sum uint64
	for _, px := range src.Pix {
		sum += uint64(px)
	}
	mean := 0.0
	if len(src.Pix) > 0 {
		mean = float64(int(float64(sum)/float64(len(src.Pix)) + 0.5))
	}

	dst := image.NewGray(src.Rect)
	for i, px := range src.Pix {
		dst.Pix[i] = clamp(mean + factor*(float64(px)-mean))
	}
	return dst
}

// sharpen blends the image away from a smoothed copy of itself.
func sharpen(src *image.Gray, factor float64) *image.Gray {
	smooth := smoothed(src)
	dst := image.NewGray(src.Rect)
	for i, px := range src.Pix {
		s := float64(smooth.Pix[i])
		dst.Pix[i] = clamp(s + factor*(float64(px)-s))
	}
	return dst
}

// smoothed applies the 3x3 kernel [1 1 1; 1 5 1; 1 1 1]/13. Border pixels are
// copied unchanged.
func smoothed(src *image.Gray) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	copy(dst.Pix, src.Pix)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			total := 0
			for dy := -1; dy <= 1; dy++ {
				row := (y+dy)*src.Stride + x
				total += int(src.Pix[row-1]) + int(src.Pix[row]) + int(src.Pix[row+1])
			}
			center := int(src.Pix[y*src.Stride+x])
			total += 4 * center
			dst.Pix[y*dst.Stride+x] = clamp(float64(total) / 13.0)
		}
	}
	return dst
}

// median replaces each pixel with the median of its size x size neighbourhood.
// Edges are handled by clamping coordinates.
func median(src *image.Gray, size int) *image.Gray {
	if size < 3 || size%2 == 0 {
		return src
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	r := size / 2
	window := make([]uint8, 0, size*size)
	dst := image.NewGray(src.Rect)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			window = window[:0]
			for dy := -r; dy <= r; dy++ {
				yy := clampInt(y+dy, 0, h-1)
				for dx := -r; dx <= r; dx++ {
					xx := clampInt(x+dx, 0, w-1)
					window = append(window, src.Pix[yy*src.Stride+xx])
				}
			}
			insertionSort(window)
			dst.Pix[y*dst.Stride+x] = window[len(window)/2]
		}
	}
	return dst
}

func insertionSort(v []uint8) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j] < v[j-1]; j-- {
			v[j], v[j-1] = v[j-1], v[j]
		}
	}
}

func clamp(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
