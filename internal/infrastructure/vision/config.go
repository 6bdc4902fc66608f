package vision

// DefaultInputSize сторона квадратного входа YOLOv8
const DefaultInputSize = 640

// ONNXConfig параметры загрузки ONNX-модели
type ONNXConfig struct {
	ModelPath string
	Labels    []string
	InputSize int
	Params    YOLOv8Params
}

func (c ONNXConfig) withDefaults() ONNXConfig {
	if c.InputSize <= 0 {
		c.InputSize = DefaultInputSize
	}
	if c.Params == (YOLOv8Params{}) {
		c.Params = DefaultYOLOv8Params()
	}
	return c
}
