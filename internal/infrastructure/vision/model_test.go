package vision

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crop-doctor/internal/domain/entity"
)

type stubSession struct {
	infer    func(img image.Image) ([]entity.Detection, error)
	inFlight *atomic.Int32
	maxSeen  *atomic.Int32
	closed   atomic.Bool
}

func (s *stubSession) Infer(img image.Image) ([]entity.Detection, error) {
	if s.inFlight != nil {
		n := s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		for {
			m := s.maxSeen.Load()
			if n <= m || s.maxSeen.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	if s.infer != nil {
		return s.infer(img)
	}
	return []entity.Detection{entity.NewDetection("Rust", 0, 0.8, entity.Box{XMax: 1, YMax: 1})}, nil
}

func (s *stubSession) Close() error {
	s.closed.Store(true)
	return nil
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 4, 4))
}

func TestModel_LoadFailureIsCached(t *testing.T) {
	loads := 0
	m := NewModel(func() (Session, error) {
		loads++
		return nil, errors.New("best.onnx not found")
	}, 2, nil)

	require.ErrorIs(t, m.Ready(), entity.ErrModelUnavailable)
	for i := 0; i < 3; i++ {
		_, err := m.Detect(context.Background(), testImage())
		require.ErrorIs(t, err, entity.ErrModelUnavailable)
	}
	require.Equal(t, 1, loads)
}

func TestModel_PartialLoadClosesLoadedSessions(t *testing.T) {
	first := &stubSession{}
	calls := 0
	m := NewModel(func() (Session, error) {
		calls++
		if calls == 1 {
			return first, nil
		}
		return nil, errors.New("out of memory")
	}, 3, nil)

	require.ErrorIs(t, m.Ready(), entity.ErrModelUnavailable)
	require.True(t, first.closed.Load())
}

func TestModel_InferenceErrorDoesNotPoison(t *testing.T) {
	fail := atomic.Bool{}
	fail.Store(true)
	s := &stubSession{infer: func(image.Image) ([]entity.Detection, error) {
		if fail.Load() {
			return nil, errors.New("forward failed")
		}
		return []entity.Detection{entity.NewDetection("Rust", 0, 0.7, entity.Box{XMax: 2, YMax: 2})}, nil
	}}
	m := NewModel(func() (Session, error) { return s, nil }, 1, nil)

	_, err := m.Detect(context.Background(), testImage())
	require.ErrorIs(t, err, entity.ErrInference)

	fail.Store(false)
	dets, err := m.Detect(context.Background(), testImage())
	require.NoError(t, err)
	require.Len(t, dets, 1)
	require.NoError(t, m.Ready())
}

func TestModel_PanicBecomesInferenceError(t *testing.T) {
	s := &stubSession{infer: func(image.Image) ([]entity.Detection, error) {
		panic("bad tensor")
	}}
	m := NewModel(func() (Session, error) { return s, nil }, 1, nil)

	_, err := m.Detect(context.Background(), testImage())
	require.ErrorIs(t, err, entity.ErrInference)

	// сессия вернулась в пул
	s.infer = nil
	_, err = m.Detect(context.Background(), testImage())
	require.NoError(t, err)
}

func TestModel_SingleInstanceAdmitsOneAtATime(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	s := &stubSession{inFlight: &inFlight, maxSeen: &maxSeen}
	m := NewModel(func() (Session, error) { return s, nil }, 1, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Detect(context.Background(), testImage())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxSeen.Load())
}

func TestModel_PoolRunsInParallel(t *testing.T) {
	var inFlight, maxSeen atomic.Int32
	m := NewModel(func() (Session, error) {
		return &stubSession{inFlight: &inFlight, maxSeen: &maxSeen}, nil
	}, 3, nil)

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Detect(context.Background(), testImage())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, maxSeen.Load(), int32(3))
}

func TestModel_WaitHonoursContext(t *testing.T) {
	release := make(chan struct{})
	s := &stubSession{infer: func(image.Image) ([]entity.Detection, error) {
		<-release
		return nil, nil
	}}
	m := NewModel(func() (Session, error) { return s, nil }, 1, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Detect(context.Background(), testImage())
	}()

	// ждём, пока первый запрос займёт сессию
	require.Eventually(t, func() bool { return len(m.sessions) == 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Detect(ctx, testImage())
	require.ErrorIs(t, err, entity.ErrInference)

	close(release)
	<-done
}

func TestModel_EmptyImage(t *testing.T) {
	m := NewModel(func() (Session, error) { return &stubSession{}, nil }, 1, nil)
	_, err := m.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 0, 0)))
	require.ErrorIs(t, err, entity.ErrInvalidInput)
}

func TestModel_Close(t *testing.T) {
	s := &stubSession{}
	m := NewModel(func() (Session, error) { return s, nil }, 1, nil)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	require.True(t, s.closed.Load())
}

func TestONNXLoaderWithoutModelFile(t *testing.T) {
	m := NewModel(NewONNXLoader(ONNXConfig{ModelPath: "testdata/missing.onnx"}), 1, nil)
	require.ErrorIs(t, m.Ready(), entity.ErrModelUnavailable)
}
