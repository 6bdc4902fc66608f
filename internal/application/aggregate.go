package app

import (
	"sort"

	"crop-doctor/internal/domain/entity"
)

// Aggregate отбрасывает детекции ниже minConfidence, сортирует остальные
// по убыванию уверенности и выбирает основной диагноз.
// При равной уверенности сохраняется исходный порядок.
func Aggregate(detections []entity.Detection, minConfidence float64) entity.Aggregate {
	kept := make([]entity.Detection, 0, len(detections))
	for _, d := range detections {
		if d.Confidence >= minConfidence {
			kept = append(kept, d)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	out := entity.Aggregate{Detections: kept}
	if len(kept) > 0 {
		label := kept[0].Label
		conf := kept[0].Confidence
		out.PrimaryLabel = &label
		out.PrimaryConfidence = &conf
	}
	return out
}
