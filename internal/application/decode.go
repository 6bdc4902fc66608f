package app

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // регистрация декодера
	_ "image/jpeg" // регистрация декодера
	_ "image/png"  // регистрация декодера

	_ "golang.org/x/image/bmp"  // регистрация декодера
	_ "golang.org/x/image/tiff" // регистрация декодера
	_ "golang.org/x/image/webp" // регистрация декодера

	"crop-doctor/internal/domain/entity"
)

const (
	// DefaultMaxImageBytes ограничение размера загружаемого файла
	DefaultMaxImageBytes = 10 << 20
	// DefaultMaxImagePixels ограничение ширина*высота. Маленький файл может
	// объявить огромные размеры, поэтому проверяем заголовок до декодирования.
	DefaultMaxImagePixels = 40_000_000
)

// DecodeImage проверяет и декодирует байты изображения.
// maxPixels <= 0 означает DefaultMaxImagePixels.
// Все ошибки имеют вид entity.ErrInvalidInput.
func DecodeImage(data []byte, maxBytes, maxPixels int64) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty image", entity.ErrInvalidInput)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: image file is too large (max %d bytes)", entity.ErrInvalidInput, maxBytes)
	}

	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid image file: %v", entity.ErrInvalidInput, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, "", fmt.Errorf("%w: image dimensions %dx%d are too large (max %d pixels)",
			entity.ErrInvalidInput, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: invalid image file: %v", entity.ErrInvalidInput, err)
	}
	if img.Bounds().Empty() {
		return nil, "", fmt.Errorf("%w: image has zero size", entity.ErrInvalidInput)
	}
	return img, format, nil
}
