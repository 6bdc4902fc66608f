package annotate

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"crop-doctor/internal/domain/entity"
)

func leafImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(120 + y), B: 20, A: 255})
		}
	}
	return img
}

func decodePNG(t *testing.T, a *entity.AnnotatedImage) image.Image {
	t.Helper()
	require.Equal(t, MIMEType, a.MIMEType)
	img, err := png.Decode(bytes.NewReader(a.Data))
	require.NoError(t, err)
	return img
}

func samePixels(a, b image.Image) bool {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			r1, g1, b1, a1 := a.At(ab.Min.X+x, ab.Min.Y+y).RGBA()
			r2, g2, b2, a2 := b.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				return false
			}
		}
	}
	return true
}

// fill заполняет img цветом, зависящим от координат
func fill(img draw.Image, c func(x, y int) color.Color) draw.Image {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.Set(x, y, c(x, y))
		}
	}
	return img
}

func translucentLeaf(w, h int) draw.Image {
	return fill(image.NewNRGBA(image.Rect(0, 0, w, h)), func(x, y int) color.Color {
		return color.NRGBA{R: 200, G: uint8(100 + y), B: uint8(x), A: 3}
	})
}

func deepLeaf(w, h int) draw.Image {
	return fill(image.NewRGBA64(image.Rect(0, 0, w, h)), func(x, y int) color.Color {
		return color.RGBA64{R: 0x1234 + uint16(x), G: 0x5678, B: 0x9abc + uint16(y), A: 0xffff}
	})
}

func TestAnnotate_EmptyDetectionsIsPixelIdentical(t *testing.T) {
	an, err := New(Options{})
	require.NoError(t, err)

	nrgba64 := fill(image.NewNRGBA64(image.Rect(0, 0, 40, 30)), func(x, y int) color.Color {
		return color.NRGBA64{R: 0xfedc, G: uint16(x) << 8, B: 0x0101, A: 0x0203 + uint16(y)}
	})
	gray := fill(image.NewGray(image.Rect(0, 0, 40, 30)), func(x, y int) color.Color {
		return color.Gray{Y: uint8(x + y)}
	})
	gray16 := fill(image.NewGray16(image.Rect(0, 0, 40, 30)), func(x, y int) color.Color {
		return color.Gray16{Y: 0x0102 * uint16(x+y)}
	})

	cases := map[string]image.Image{
		"rgba":              leafImage(40, 30),
		"nrgba low alpha":   translucentLeaf(40, 30),
		"rgba64":            deepLeaf(40, 30),
		"nrgba64 low alpha": nrgba64,
		"gray":              gray,
		"gray16":            gray16,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := an.Annotate(src, nil)
			require.NoError(t, err)
			require.Equal(t, 40, res.Width)
			require.Equal(t, 30, res.Height)
			require.True(t, samePixels(src, decodePNG(t, res)))
		})
	}
}

func TestAnnotate_KeepsPrecisionOutsideBoxes(t *testing.T) {
	an, err := New(DefaultOptions())
	require.NoError(t, err)
	dets := []entity.Detection{
		entity.NewDetection("LeafSpot", 0, 0.92, entity.Box{XMin: 70, YMin: 60, XMax: 110, YMax: 85}),
	}

	cases := map[string]image.Image{
		"nrgba low alpha": translucentLeaf(120, 90),
		"rgba64":          deepLeaf(120, 90),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := an.Annotate(src, dets)
			require.NoError(t, err)
			out := decodePNG(t, res)
			require.False(t, samePixels(src, out))

			// рамка и подпись правее x=60, левая часть должна совпасть точно
			left := image.Rect(0, 0, 60, 90)
			require.True(t, samePixels(
				src.(subImager).SubImage(left),
				out.(subImager).SubImage(left),
			))
		})
	}
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func TestAnnotate_DrawsOnCopy(t *testing.T) {
	an, err := New(DefaultOptions())
	require.NoError(t, err)
	src := leafImage(120, 90)
	orig := leafImage(120, 90)

	dets := []entity.Detection{
		entity.NewDetection("LeafSpot", 0, 0.92, entity.Box{XMin: 30, YMin: 30, XMax: 90, YMax: 80}),
		entity.NewDetection("Rust", 1, 0.55, entity.Box{XMin: 10, YMin: 10, XMax: 50, YMax: 40}),
	}
	res, err := an.Annotate(src, dets)
	require.NoError(t, err)

	out := decodePNG(t, res)
	require.Equal(t, src.Bounds().Size(), out.Bounds().Size())
	require.False(t, samePixels(src, out))
	require.True(t, samePixels(src, orig), "source image must stay untouched")
}

func TestAnnotate_NonZeroOrigin(t *testing.T) {
	an, err := New(DefaultOptions())
	require.NoError(t, err)
	src := leafImage(50, 50).SubImage(image.Rect(10, 10, 40, 30))

	res, err := an.Annotate(src, nil)
	require.NoError(t, err)
	require.Equal(t, 30, res.Width)
	require.Equal(t, 20, res.Height)
	require.True(t, samePixels(src, decodePNG(t, res)))
}

func TestAnnotate_ZeroSize(t *testing.T) {
	an, err := New(DefaultOptions())
	require.NoError(t, err)

	_, err = an.Annotate(image.NewRGBA(image.Rect(0, 0, 0, 10)), nil)
	require.ErrorIs(t, err, entity.ErrAnnotation)

	_, err = an.Annotate(nil, nil)
	require.ErrorIs(t, err, entity.ErrAnnotation)
}

func TestLabel(t *testing.T) {
	require.Equal(t, "LeafSpot (92%)", Label(entity.NewDetection("LeafSpot", 0, 0.92, entity.Box{})))
	require.Equal(t, "Rust (100%)", Label(entity.NewDetection("Rust", 0, 1, entity.Box{})))
}

func TestColorFor(t *testing.T) {
	require.Equal(t, palette[0], colorFor(0))
	require.Equal(t, palette[1], colorFor(9))
	require.Equal(t, palette[7], colorFor(-1))
}
