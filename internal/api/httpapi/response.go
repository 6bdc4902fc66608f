package httpapi

import "crop-doctor/internal/domain/entity"

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type healthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Error       string `json:"error,omitempty"`
}

type languagesResponse struct {
	Languages []entity.Language `json:"languages"`
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	SourceLang string `json:"source_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	TargetLang     string `json:"target_lang"`
	Fallback       bool   `json:"fallback"`
}

type predictionItem struct {
	Label          string     `json:"label"`
	ClassID        int        `json:"class_id"`
	Confidence     float64    `json:"confidence"`
	Box            entity.Box `json:"box"`
	LocalizedLabel string     `json:"localized_label,omitempty"`
}

// predictResponse тело ответа POST /predict. primary_label и primary_confidence
// равны null, если ничего не прошло порог; annotated_image равен null при сбое разметки.
type predictResponse struct {
	PrimaryLabel        *string          `json:"primary_label"`
	PrimaryConfidence   *float64         `json:"primary_confidence"`
	AllPredictions      []predictionItem `json:"all_predictions"`
	AnnotatedImage      *string          `json:"annotated_image"`
	Language            string           `json:"language,omitempty"`
	LocalizedLabel      *string          `json:"localized_label,omitempty"`
	AnnotationFailed    bool             `json:"annotation_failed"`
	TranslationFallback bool             `json:"translation_fallback"`
	Message             string           `json:"message,omitempty"`
}

func newPredictResponse(d *entity.Diagnosis) predictResponse {
	resp := predictResponse{
		PrimaryLabel:        d.PrimaryLabel,
		PrimaryConfidence:   d.PrimaryConfidence,
		AllPredictions:      make([]predictionItem, 0, len(d.Predictions)),
		Language:            d.Language,
		LocalizedLabel:      d.LocalizedLabel,
		AnnotationFailed:    d.AnnotationFailed,
		TranslationFallback: d.TranslationFallback,
		Message:             d.Message,
	}
	for _, p := range d.Predictions {
		resp.AllPredictions = append(resp.AllPredictions, predictionItem{
			Label:          p.Label,
			ClassID:        p.ClassID,
			Confidence:     p.Confidence,
			Box:            p.Box,
			LocalizedLabel: p.LocalizedLabel,
		})
	}
	if d.AnnotatedImage != nil {
		url := d.AnnotatedImage.DataURL()
		resp.AnnotatedImage = &url
	}
	return resp
}
