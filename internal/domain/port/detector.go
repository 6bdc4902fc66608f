package port

import (
	"context"
	"image"

	"crop-doctor/internal/domain/entity"
)

// DiseaseDetector интерфейс детектора поражений растения
type DiseaseDetector interface {
	// Detect запускает модель и возвращает детекции в произвольном порядке
	Detect(ctx context.Context, img image.Image) ([]entity.Detection, error)

	// Ready возвращает ошибку загрузки модели, если она не поднялась при старте
	Ready() error
}
