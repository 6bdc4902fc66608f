package app

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"crop-doctor/internal/domain/entity"
	"crop-doctor/internal/domain/port"
)

// DiagnosisConfig параметры конвейера
type DiagnosisConfig struct {
	MinConfidence  float64
	MaxImageBytes  int64
	MaxImagePixels int64 // 0 означает DefaultMaxImagePixels
}

// DiagnosisService собирает конвейер: декодирование, детекция, агрегация,
// разметка и перевод.
type DiagnosisService struct {
	detector   port.DiseaseDetector
	annotator  port.Annotator
	translator *TranslationService
	cfg        DiagnosisConfig
	logger     *zap.Logger
}

// NewDiagnosisService создаёт сервис диагностики
func NewDiagnosisService(detector port.DiseaseDetector, annotator port.Annotator, translator *TranslationService, cfg DiagnosisConfig, logger *zap.Logger) *DiagnosisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiagnosisService{
		detector:   detector,
		annotator:  annotator,
		translator: translator,
		cfg:        cfg,
		logger:     logger.Named("diagnosis"),
	}
}

// Ready сообщает, загружена ли модель
func (s *DiagnosisService) Ready() error {
	if s.detector == nil {
		return fmt.Errorf("%w: detector is not configured", entity.ErrModelUnavailable)
	}
	return s.detector.Ready()
}

// Diagnose обрабатывает фото и возвращает диагноз.
// Ошибки возвращаются только для недоступной модели, неверного ввода и сбоя инференса;
// сбой разметки или перевода лишь помечается в результате.
func (s *DiagnosisService) Diagnose(ctx context.Context, imageData []byte, lang string) (*entity.Diagnosis, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	lang = entity.NormalizeLanguageCode(lang)
	if s.translator != nil {
		if err := s.translator.ValidateCode(lang); err != nil {
			return nil, err
		}
	}

	img, format, err := DecodeImage(imageData, s.cfg.MaxImageBytes, s.cfg.MaxImagePixels)
	if err != nil {
		return nil, err
	}

	detections, err := s.detector.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	agg := Aggregate(detections, s.cfg.MinConfidence)
	s.logger.Debug("detections aggregated",
		zap.String("format", format),
		zap.Int("raw", len(detections)),
		zap.Int("kept", len(agg.Detections)))

	result := &entity.Diagnosis{
		PrimaryLabel:      agg.PrimaryLabel,
		PrimaryConfidence: agg.PrimaryConfidence,
		Predictions:       make([]entity.Prediction, len(agg.Detections)),
	}
	for i, d := range agg.Detections {
		result.Predictions[i] = entity.Prediction{Detection: d}
	}
	if !agg.HasPrimary() {
		result.Message = entity.MsgNoDisease
	}

	var (
		annotated *entity.AnnotatedImage
		annErr    error
		localized map[string]entity.Translation
	)

	var g errgroup.Group
	g.Go(func() error {
		annotated, annErr = s.annotate(img, agg.Detections)
		return nil
	})
	if lang != "" && s.translator != nil {
		result.Language = lang
		if agg.HasPrimary() {
			g.Go(func() error {
				localized = s.localize(ctx, agg.Detections, lang)
				return nil
			})
		}
	}
	_ = g.Wait()

	if annErr != nil {
		s.logger.Warn("annotation failed, returning result without image", zap.Error(annErr))
		result.AnnotationFailed = true
	} else {
		result.AnnotatedImage = annotated
	}

	if localized != nil {
		primary := localized[*agg.PrimaryLabel]
		text := primary.Text
		result.LocalizedLabel = &text
		for i := range result.Predictions {
			tr := localized[result.Predictions[i].Label]
			result.Predictions[i].LocalizedLabel = tr.Text
			if tr.Fallback() {
				result.TranslationFallback = true
			}
		}
	}

	return result, nil
}

func (s *DiagnosisService) annotate(img image.Image, detections []entity.Detection) (*entity.AnnotatedImage, error) {
	if s.annotator == nil {
		return nil, fmt.Errorf("%w: annotator is not configured", entity.ErrAnnotation)
	}
	return s.annotator.Annotate(img, detections)
}

// localize переводит каждую различную метку один раз
func (s *DiagnosisService) localize(ctx context.Context, detections []entity.Detection, lang string) map[string]entity.Translation {
	out := make(map[string]entity.Translation, len(detections))
	for _, d := range detections {
		if _, done := out[d.Label]; done {
			continue
		}
		out[d.Label] = s.translator.Translate(ctx, d.Label, lang)
	}
	return out
}
