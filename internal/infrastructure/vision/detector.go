//go:build gocv
// +build gocv

package vision

import (
	"errors"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"crop-doctor/internal/domain/entity"
)

// onnxSession сеть YOLOv8, экспортированная в ONNX и открытая через OpenCV DNN
type onnxSession struct {
	net gocv.Net
	cfg ONNXConfig
}

// NewONNXLoader возвращает загрузчик сессий OpenCV DNN.
func NewONNXLoader(cfg ONNXConfig) Loader {
	cfg = cfg.withDefaults()
	return func() (Session, error) {
		if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
		}

		net := gocv.ReadNetFromONNX(cfg.ModelPath)
		if net.Empty() {
			return nil, fmt.Errorf("failed to load network from %s", cfg.ModelPath)
		}
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			net.Close()
			return nil, fmt.Errorf("set preferable backend: %w", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			net.Close()
			return nil, fmt.Errorf("set preferable target: %w", err)
		}

		return &onnxSession{net: net, cfg: cfg}, nil
	}
}

// Infer прогоняет изображение через сеть. Входное изображение не изменяется.
func (s *onnxSession) Infer(img image.Image) ([]entity.Detection, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	size := s.cfg.InputSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	out := s.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	values := make([]float32, len(data))
	copy(values, data)

	frame := NewFrame(mat.Cols(), mat.Rows(), size)
	return DecodeYOLOv8(values, dims[1], dims[2], frame, s.cfg.Labels, s.cfg.Params)
}

func (s *onnxSession) Close() error {
	return s.net.Close()
}
