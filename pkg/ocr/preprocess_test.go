package ocr

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCard(t *testing.T, name string, w, h int) string {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	for x := w / 4; x < w*3/4; x++ {
		img.Set(x, h/2, color.NRGBA{0, 0, 0, 255})
	}
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, imaging.Save(img, p))
	return p
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeGray, m)

	m, err = ParseMode(" Adaptive ")
	require.NoError(t, err)
	assert.Equal(t, ModeAdaptive, m)

	_, err = ParseMode("sepia")
	assert.Error(t, err)
}

func TestLoadImageRejectsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a jpeg"), 0o644))

	for _, p := range []string{empty, garbage, filepath.Join(dir, "missing.png")} {
		_, err := LoadImage(p)
		assert.ErrorIs(t, err, ErrUnreadableImage, p)
	}
}

func TestPreprocessUpscalesSmallCards(t *testing.T) {
	img, err := LoadImage(writeCard(t, "small.png", 350, 200))
	require.NoError(t, err)

	out := Preprocess(img, ModeGray)
	assert.Equal(t, targetHeight, out.Bounds().Dy())
	assert.Equal(t, 2100, out.Bounds().Dx())

	assert.Equal(t, img.Bounds(), Preprocess(img, ModeNone).Bounds())
}

func TestPreprocessBinaryIsBlackAndWhite(t *testing.T) {
	src := imaging.New(10, 900, color.NRGBA{200, 200, 200, 255})
	src.Set(5, 5, color.NRGBA{20, 20, 20, 255})
	out := Preprocess(src, ModeBinary)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := luma(out.At(x, y))
			require.True(t, v == 0 || v == 255, "pixel %d,%d = %d", x, y, v)
		}
	}
	assert.Equal(t, 0, luma(out.At(5, 5)))
	assert.Equal(t, 255, luma(out.At(0, 0)))
}

func TestAdaptiveThresholdKeepsDarkStroke(t *testing.T) {
	src := imaging.New(30, 30, color.NRGBA{230, 230, 230, 255})
	for x := 0; x < 30; x++ {
		src.Set(x, 15, color.NRGBA{10, 10, 10, 255})
	}
	out := adaptiveThreshold(src, 9, 10)
	assert.Equal(t, 0, luma(out.At(12, 15)))
	assert.Equal(t, 255, luma(out.At(12, 2)))
	assert.Equal(t, image.Rect(0, 0, 30, 30), out.Bounds())
}

func TestPreparePNG(t *testing.T) {
	data, err := PreparePNG(writeCard(t, "card.jpg", 900, 500), ModeGray)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestPreprocessSharpenKeepsSize(t *testing.T) {
	img, err := LoadImage(writeCard(t, "sharp.png", 1000, 900))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds().Size(), Preprocess(img, ModeSharpen).Bounds().Size())
}
