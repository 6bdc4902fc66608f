package port

import "context"

// TranslationBackend внешний сервис перевода
type TranslationBackend interface {
	// TranslateText переводит text с языка source на target
	TranslateText(ctx context.Context, text, source, target string) (string, error)

	// Name короткое имя бэкенда для логов
	Name() string
}
