// Package httpapi HTTP-интерфейс сервиса: предсказание по фото, список языков,
// перевод текста и проверка состояния.
package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"crop-doctor/internal/container"
)

// Version версия API в ответе GET /
const Version = "1.0.0"

// Config параметры HTTP-слоя
type Config struct {
	MaxUploadBytes int64
	AllowedOrigins []string
}

type Server struct {
	app     *container.Container
	cfg     Config
	logger  *zap.Logger
	handler http.Handler
}

func New(c *container.Container, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		app:    c,
		cfg:    cfg,
		logger: logger.Named("http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("GET /languages", s.handleLanguages)
	mux.HandleFunc("POST /translate", s.handleTranslate)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	})
	s.handler = corsHandler.Handler(s.logRequests(mux))
	return s
}

// Handler корневой обработчик с CORS и логированием запросов
func (s *Server) Handler() http.Handler {
	return s.handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
