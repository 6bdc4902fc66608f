package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"crop-doctor/internal/domain/entity"
)

func testLanguages(t *testing.T) *entity.LanguageSet {
	t.Helper()
	set, err := entity.NewLanguageSet("en", []entity.Language{
		{Code: "en", DisplayName: "English"},
		{Code: "es", DisplayName: "Spanish"},
		{Code: "fr", DisplayName: "French"},
		{Code: "hi", DisplayName: "Hindi"},
	})
	require.NoError(t, err)
	return set
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: uint8(100 + x%100), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeDetector struct {
	readyErr   error
	detectErr  error
	detections []entity.Detection
	calls      atomic.Int32
}

func (d *fakeDetector) Detect(ctx context.Context, img image.Image) ([]entity.Detection, error) {
	d.calls.Add(1)
	if d.detectErr != nil {
		return nil, d.detectErr
	}
	out := make([]entity.Detection, len(d.detections))
	copy(out, d.detections)
	return out, nil
}

func (d *fakeDetector) Ready() error {
	return d.readyErr
}

type fakeAnnotator struct {
	err error
}

func (a *fakeAnnotator) Annotate(img image.Image, detections []entity.Detection) (*entity.AnnotatedImage, error) {
	if a.err != nil {
		return nil, a.err
	}
	b := img.Bounds()
	return &entity.AnnotatedImage{MIMEType: "image/png", Data: []byte("png"), Width: b.Dx(), Height: b.Dy()}, nil
}

// fakeBackend переводит через словарь и считает вызовы
type fakeBackend struct {
	mu    sync.Mutex
	dict  map[string]string
	err   error
	calls int
	block chan struct{}
}

func newFakeBackend(dict map[string]string) *fakeBackend {
	return &fakeBackend{dict: dict}
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	b.mu.Lock()
	b.calls++
	err := b.err
	block := b.block
	b.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if out, ok := b.dict[target+":"+text]; ok {
		return out, nil
	}
	return "", errors.New("no translation")
}

func (b *fakeBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}
