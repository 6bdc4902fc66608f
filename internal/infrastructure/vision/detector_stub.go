//go:build !gocv
// +build !gocv

package vision

import "errors"

// NewONNXLoader без OpenCV: загрузка всегда неудачна, модель недоступна.
func NewONNXLoader(cfg ONNXConfig) Loader {
	_ = cfg
	return func() (Session, error) {
		return nil, errors.New("gocv build tag is not enabled")
	}
}
