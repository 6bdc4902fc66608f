package port

import (
	"image"

	"crop-doctor/internal/domain/entity"
)

// Annotator рисует детекции на копии изображения
type Annotator interface {
	// Annotate возвращает закодированное изображение с рамками и подписями
	Annotate(img image.Image, detections []entity.Detection) (*entity.AnnotatedImage, error)
}
