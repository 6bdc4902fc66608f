package entity

// TranslationStatus как был получен текст перевода
type TranslationStatus string

const (
	TranslationSkipped     TranslationStatus = "skipped"         // язык не запрошен
	TranslationSource      TranslationStatus = "source_language" // целевой язык совпадает с исходным
	TranslationUnsupported TranslationStatus = "unsupported"     // язык не поддерживается
	TranslationCached      TranslationStatus = "cached"
	TranslationTranslated  TranslationStatus = "translated"
	TranslationFallback    TranslationStatus = "fallback" // сбой бэкенда, возвращён исходный текст
)

// Translation результат перевода метки
type Translation struct {
	Text   string
	Status TranslationStatus
}

// Fallback сообщает о деградации до непереведённой метки
func (t Translation) Fallback() bool {
	return t.Status == TranslationFallback
}
