package container

import (
	"go.uber.org/zap"

	app "crop-doctor/internal/application"
	"crop-doctor/internal/domain/entity"
	"crop-doctor/internal/domain/port"
)

// Options параметры сервисов приложения
type Options struct {
	Languages   *entity.LanguageSet
	Diagnosis   app.DiagnosisConfig
	Translation app.TranslationConfig
}

type Container struct {
	UserService        *app.UserService
	DiagnosisService   *app.DiagnosisService
	TranslationService *app.TranslationService
	Languages          *entity.LanguageSet
}

// New собирает сервисы. backend может быть nil: перевод тогда всегда откатывается
// на исходную метку.
func New(
	userRepo port.UserRepository,
	detector port.DiseaseDetector,
	annotator port.Annotator,
	backend port.TranslationBackend,
	opts Options,
	logger *zap.Logger,
) *Container {
	userService := app.NewUserService(userRepo)
	translationService := app.NewTranslationService(opts.Languages, backend, opts.Translation, logger)
	diagnosisService := app.NewDiagnosisService(detector, annotator, translationService, opts.Diagnosis, logger)

	return &Container{
		UserService:        userService,
		DiagnosisService:   diagnosisService,
		TranslationService: translationService,
		Languages:          opts.Languages,
	}
}
