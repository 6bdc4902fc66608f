package entity

import "image"

// Box прямоугольник обнаруженного поражения в пикселях исходного изображения
type Box struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Width ширина области
func (b Box) Width() float64 {
	return b.XMax - b.XMin
}

// Height высота области
func (b Box) Height() float64 {
	return b.YMax - b.YMin
}

// Area площадь области, для вырожденного прямоугольника 0
func (b Box) Area() float64 {
	if b.Width() <= 0 || b.Height() <= 0 {
		return 0
	}
	return b.Width() * b.Height()
}

// Center возвращает координаты центра области
func (b Box) Center() (x, y float64) {
	return b.XMin + b.Width()/2, b.YMin + b.Height()/2
}

// Rect переводит box в целочисленный прямоугольник
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(b.XMin), int(b.YMin), int(b.XMax), int(b.YMax))
}

// Clamp обрезает box по границам изображения w x h
func (b Box) Clamp(w, h float64) Box {
	return Box{
		XMin: clamp(b.XMin, 0, w),
		YMin: clamp(b.YMin, 0, h),
		XMax: clamp(b.XMax, 0, w),
		YMax: clamp(b.YMax, 0, h),
	}
}

// Detection одна область поражения, найденная моделью.
// После создания адаптером детектора не изменяется.
type Detection struct {
	Label      string  // имя класса болезни
	ClassID    int     // индекс класса в модели
	Confidence float64 // уверенность в [0,1]
	Box        Box
}

// NewDetection создаёт детекцию, приводя уверенность к [0,1]
func NewDetection(label string, classID int, confidence float64, box Box) Detection {
	return Detection{
		Label:      label,
		ClassID:    classID,
		Confidence: ClampConfidence(confidence),
		Box:        box,
	}
}

// ClampConfidence приводит значение к диапазону [0,1]
func ClampConfidence(c float64) float64 {
	if c != c { // NaN
		return 0
	}
	return clamp(c, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
