package entity

import "errors"

// Виды ошибок конвейера. Причина оборачивается через fmt.Errorf("%w: ...").
var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInference        = errors.New("inference error")
	ErrAnnotation       = errors.New("annotation error")
	ErrTranslation      = errors.New("translation error")
)

// ErrorKind машиночитаемый вид ошибки для ответа клиенту
type ErrorKind string

const (
	KindModelUnavailable ErrorKind = "model_unavailable"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindInference        ErrorKind = "inference_error"
	KindAnnotation       ErrorKind = "annotation_error"
	KindTranslation      ErrorKind = "translation_error"
	KindInternal         ErrorKind = "internal_error"
)

// KindOf определяет вид ошибки по цепочке обёрток
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrModelUnavailable):
		return KindModelUnavailable
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInference):
		return KindInference
	case errors.Is(err, ErrAnnotation):
		return KindAnnotation
	case errors.Is(err, ErrTranslation):
		return KindTranslation
	default:
		return KindInternal
	}
}
