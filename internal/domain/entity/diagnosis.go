package entity

import "encoding/base64"

// MsgNoDisease сообщение для случая, когда ни одна детекция не прошла порог
const MsgNoDisease = "no disease detected above threshold"

// Aggregate итог агрегации детекций.
// PrimaryLabel равен nil, если ничего не прошло порог; это штатный исход.
type Aggregate struct {
	PrimaryLabel      *string
	PrimaryConfidence *float64
	Detections        []Detection // по убыванию уверенности
}

// HasPrimary сообщает, выбран ли основной диагноз
func (a Aggregate) HasPrimary() bool {
	return a.PrimaryLabel != nil
}

// AnnotatedImage закодированное изображение с разметкой
type AnnotatedImage struct {
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// DataURL возвращает изображение в виде data:<mime>;base64,<payload>
func (a *AnnotatedImage) DataURL() string {
	if a == nil {
		return ""
	}
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Prediction детекция в ответе с локализованной меткой
type Prediction struct {
	Detection
	LocalizedLabel string // пусто, если язык не запрашивался
}

// Diagnosis полный результат обработки фото.
type Diagnosis struct {
	PrimaryLabel      *string
	PrimaryConfidence *float64
	Predictions       []Prediction
	AnnotatedImage    *AnnotatedImage // nil при ошибке разметки

	Language       string  // запрошенный язык, пусто если не запрашивался
	LocalizedLabel *string // присутствует только при запрошенном языке

	AnnotationFailed    bool
	TranslationFallback bool
	Message             string
}

// Degraded сообщает, был ли результат получен с пониженной полнотой
func (d *Diagnosis) Degraded() bool {
	return d.AnnotationFailed || d.TranslationFallback
}
