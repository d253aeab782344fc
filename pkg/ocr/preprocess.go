package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Mode selects how an image is cleaned up before recognition.
type Mode string

const (
	// ModeNone hands the decoded image to the engine as is.
	ModeNone Mode = "none"
	// ModeGray converts to grayscale and normalizes the size.
	ModeGray Mode = "gray"
	// ModeBinary is ModeGray followed by a global threshold.
	ModeBinary Mode = "binary"
	// ModeAdaptive is ModeGray followed by a mean adaptive threshold; helps with
	// cards photographed under uneven light.
	ModeAdaptive Mode = "adaptive"
	// ModeSharpen is ModeGray with sharpening and extra contrast, used when
	// rescanning cards that produced no text the first time.
	ModeSharpen Mode = "sharpen"
)

const (
	minHeight    = 800
	targetHeight = 1200
	maxSide      = 4000
)

// ParseMode validates a mode name. The empty string means ModeGray.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeGray, nil
	case ModeNone, ModeGray, ModeBinary, ModeAdaptive, ModeSharpen:
		return m, nil
	}
	return "", fmt.Errorf("unknown preprocess mode %q", s)
}

// LoadImage opens and decodes the image at path, honoring EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableImage, path, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s: empty image", ErrUnreadableImage, path)
	}
	return img, nil
}

// Preprocess applies mode to img.
func Preprocess(img image.Image, mode Mode) image.Image {
	if mode == ModeNone {
		return img
	}
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	switch {
	case b.Dy() < minHeight:
		gray = imaging.Resize(gray, 0, targetHeight, imaging.Lanczos)
	case b.Dx() > maxSide || b.Dy() > maxSide:
		gray = imaging.Fit(gray, maxSide, maxSide, imaging.Lanczos)
	}
	switch mode {
	case ModeBinary:
		return binarize(gray, 160)
	case ModeAdaptive:
		return adaptiveThreshold(gray, 25, 10)
	case ModeSharpen:
		return imaging.AdjustContrast(imaging.Sharpen(gray, 2.0), 30)
	}
	return gray
}

// PreparePNG loads path, preprocesses it and returns PNG bytes ready for an engine.
func PreparePNG(path string, mode Mode) ([]byte, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img, mode), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

func luma(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return int((r + g + b) / 3 >> 8)
}

// binarize performs a simple global threshold on a grayscale image.
func binarize(img image.Image, threshold int) *image.NRGBA {
	b := img.Bounds()
	out := imaging.New(b.Dx(), b.Dy(), color.NRGBA{255, 255, 255, 255})
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if luma(img.At(b.Min.X+x, b.Min.Y+y)) <= threshold {
				out.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return out
}

// adaptiveThreshold compares each pixel against the mean of its window
// (computed from an integral image) minus bias.
func adaptiveThreshold(img image.Image, window, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	pix := make([]int, w*h)
	sums := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			v := luma(img.At(b.Min.X+x, b.Min.Y+y))
			pix[y*w+x] = v
			row += v
			if y == 0 {
				sums[y*w+x] = row
			} else {
				sums[y*w+x] = sums[(y-1)*w+x] + row
			}
		}
	}
	at := func(x, y int) int {
		if x < 0 || y < 0 {
			return 0
		}
		return sums[y*w+x]
	}
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			sum := at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			if pix[y*w+x] < mean-bias {
				out.Set(x, y, color.NRGBA{0, 0, 0, 255})
			}
		}
	}
	return out
}
