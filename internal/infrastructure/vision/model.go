package vision

import (
	"context"
	"fmt"
	"image"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"crop-doctor/internal/domain/entity"
	"crop-doctor/internal/domain/port"
)

// Session один экземпляр загруженной сети. Потокобезопасность не требуется:
// Model никогда не отдаёт одну сессию двум запросам сразу.
type Session interface {
	Infer(img image.Image) ([]entity.Detection, error)
	Close() error
}

// Loader загружает одну сессию модели
type Loader func() (Session, error)

// Model держит пул сессий, загруженных один раз при старте.
// Ошибка загрузки запоминается и возвращается на каждый Detect без повторной загрузки.
type Model struct {
	sessions  chan Session
	all       []Session
	loadErr   error
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewModel загружает instances сессий. Ошибку загрузки не возвращает:
// сервис стартует и отвечает ErrModelUnavailable.
func NewModel(load Loader, instances int, logger *zap.Logger) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if instances < 1 {
		instances = 1
	}

	m := &Model{
		sessions: make(chan Session, instances),
		logger:   logger.Named("model"),
	}

	for i := 0; i < instances; i++ {
		s, err := load()
		if err != nil {
			m.loadErr = fmt.Errorf("%w: %v", entity.ErrModelUnavailable, err)
			m.logger.Error("could not load detection model, predictions will fail", zap.Error(err))
			if cerr := m.closeSessions(); cerr != nil {
				m.logger.Warn("closing partially loaded sessions", zap.Error(cerr))
			}
			return m
		}
		m.all = append(m.all, s)
		m.sessions <- s
	}

	m.logger.Info("detection model loaded", zap.Int("instances", instances))
	return m
}

// Ready возвращает сохранённую ошибку загрузки
func (m *Model) Ready() error {
	return m.loadErr
}

// Detect занимает свободную сессию и запускает инференс.
// Паника или ошибка сети превращаются в ErrInference только для этого вызова.
func (m *Model) Detect(ctx context.Context, img image.Image) (dets []entity.Detection, err error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", entity.ErrInvalidInput)
	}

	var s Session
	select {
	case s = <-m.sessions:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for a free model instance: %v", entity.ErrInference, ctx.Err())
	}
	defer func() { m.sessions <- s }()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("inference panicked", zap.Any("panic", r))
			dets, err = nil, fmt.Errorf("%w: panic: %v", entity.ErrInference, r)
		}
	}()

	dets, err = s.Infer(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInference, err)
	}
	return dets, nil
}

// Close освобождает все сессии
func (m *Model) Close() error {
	var err error
	m.closeOnce.Do(func() {
		err = m.closeSessions()
	})
	return err
}

func (m *Model) closeSessions() error {
	var err error
	for _, s := range m.all {
		err = multierr.Append(err, s.Close())
	}
	m.all = nil
	return err
}

var _ port.DiseaseDetector = (*Model)(nil)
