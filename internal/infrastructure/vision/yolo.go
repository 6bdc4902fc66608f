package vision

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"crop-doctor/internal/domain/entity"
)

// YOLOv8Params параметры постобработки выхода YOLOv8
type YOLOv8Params struct {
	// BoxThreshold минимальная уверенность кандидата
	BoxThreshold float64
	// NMSThreshold максимальный IoU двух рамок одного класса, при котором обе остаются
	NMSThreshold float64
	// MaxDetections ограничение числа результатов, 0 без ограничения
	MaxDetections int
}

// DefaultYOLOv8Params значения по умолчанию, как у экспорта ultralytics
func DefaultYOLOv8Params() YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:  0.25,
		NMSThreshold:  0.45,
		MaxDetections: 64,
	}
}

// Frame переводит координаты входа сети в пиксели исходного изображения
type Frame struct {
	ScaleX float64
	ScaleY float64
	Width  float64
	Height float64
}

// NewFrame кадр для изображения w x h, растянутого на вход inputSize x inputSize
func NewFrame(w, h, inputSize int) Frame {
	return Frame{
		ScaleX: float64(w) / float64(inputSize),
		ScaleY: float64(h) / float64(inputSize),
		Width:  float64(w),
		Height: float64(h),
	}
}

type candidate struct {
	classID int
	score   float64
	box     entity.Box
}

// DecodeYOLOv8 разбирает выход формы [1, attrs, n], где attrs = 4 + число классов:
// первые четыре строки cx, cy, w, h, дальше оценки классов.
func DecodeYOLOv8(out []float32, attrs, n int, frame Frame, labels []string, p YOLOv8Params) ([]entity.Detection, error) {
	if attrs <= 4 || n <= 0 {
		return nil, fmt.Errorf("unexpected output shape [1 %d %d]", attrs, n)
	}
	if len(out) < attrs*n {
		return nil, fmt.Errorf("output too short: %d values for shape [1 %d %d]", len(out), attrs, n)
	}

	classes := attrs - 4
	scores := make([]float64, classes)
	cands := make([]candidate, 0, 32)

	for i := 0; i < n; i++ {
		for c := 0; c < classes; c++ {
			scores[c] = float64(out[(4+c)*n+i])
		}
		cls := floats.MaxIdx(scores)
		score := scores[cls]
		if score < p.BoxThreshold || math.IsNaN(score) {
			continue
		}

		cx := float64(out[i])
		cy := float64(out[n+i])
		w := float64(out[2*n+i])
		h := float64(out[3*n+i])

		box := entity.Box{
			XMin: (cx - w/2) * frame.ScaleX,
			YMin: (cy - h/2) * frame.ScaleY,
			XMax: (cx + w/2) * frame.ScaleX,
			YMax: (cy + h/2) * frame.ScaleY,
		}.Clamp(frame.Width, frame.Height)
		if box.Area() == 0 {
			continue
		}

		cands = append(cands, candidate{classID: cls, score: score, box: box})
	}

	kept := nms(cands, p.NMSThreshold)
	if p.MaxDetections > 0 && len(kept) > p.MaxDetections {
		kept = kept[:p.MaxDetections]
	}

	dets := make([]entity.Detection, 0, len(kept))
	for _, c := range kept {
		dets = append(dets, entity.NewDetection(labelFor(labels, c.classID), c.classID, c.score, c.box))
	}
	return dets, nil
}

// nms жадное подавление немаксимумов внутри каждого класса
func nms(cands []candidate, threshold float64) []candidate {
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })

	removed := make([]bool, len(cands))
	kept := make([]candidate, 0, len(cands))
	for i := range cands {
		if removed[i] {
			continue
		}
		kept = append(kept, cands[i])
		for j := i + 1; j < len(cands); j++ {
			if removed[j] || cands[j].classID != cands[i].classID {
				continue
			}
			if iou(cands[i].box, cands[j].box) > threshold {
				removed[j] = true
			}
		}
	}
	return kept
}

// iou пересечение над объединением двух рамок
func iou(a, b entity.Box) float64 {
	w := math.Min(a.XMax, b.XMax) - math.Max(a.XMin, b.XMin)
	h := math.Min(a.YMax, b.YMax) - math.Max(a.YMin, b.YMin)
	if w <= 0 || h <= 0 {
		return 0
	}
	inter := w * h
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
