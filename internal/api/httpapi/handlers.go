package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"crop-doctor/internal/domain/entity"
)

// multipartSlack запас на заголовки multipart сверх размера файла
const multipartSlack = 64 << 10

// maxTranslateBody предел тела запроса POST /translate
const maxTranslateBody = 64 << 10

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Crop Doctor API",
		"version": Version,
		"endpoints": map[string]string{
			"predict":   "POST /predict - Upload an image to detect plant diseases",
			"health":    "GET /health - Check API health status",
			"languages": "GET /languages - List supported languages",
			"translate": "POST /translate - Translate text",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", ModelLoaded: true}
	if err := s.app.DiagnosisService.Ready(); err != nil {
		resp = healthResponse{Status: "degraded", Error: err.Error()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{Languages: s.app.Languages.All()})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartSlack)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeError(w, fmt.Errorf("%w: could not read upload: %v", entity.ErrInvalidInput, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: multipart field \"file\" is required", entity.ErrInvalidInput))
		return
	}
	defer file.Close()

	if ct := header.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		s.writeError(w, fmt.Errorf("%w: file must be an image (JPEG, PNG, etc.), got %q", entity.ErrInvalidInput, ct))
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: read upload: %v", entity.ErrInvalidInput, err))
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		s.writeError(w, fmt.Errorf("%w: file exceeds %d bytes", entity.ErrInvalidInput, s.cfg.MaxUploadBytes))
		return
	}

	diag, err := s.app.DiagnosisService.Diagnose(r.Context(), data, r.URL.Query().Get("lang"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	if diag.Degraded() {
		s.logger.Info("prediction degraded",
			zap.Bool("annotation_failed", diag.AnnotationFailed),
			zap.Bool("translation_fallback", diag.TranslationFallback))
	}
	writeJSON(w, http.StatusOK, newPredictResponse(diag))
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTranslateBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: bad JSON body: %v", entity.ErrInvalidInput, err))
		return
	}

	target := entity.NormalizeLanguageCode(req.TargetLang)
	if target == "" {
		s.writeError(w, fmt.Errorf("%w: target_lang is required", entity.ErrInvalidInput))
		return
	}
	ts := s.app.TranslationService
	for _, code := range []string{target, req.SourceLang} {
		if err := ts.ValidateCode(code); err != nil {
			s.writeError(w, err)
			return
		}
	}

	tr := ts.TranslateText(r.Context(), req.Text, req.SourceLang, target)
	writeJSON(w, http.StatusOK, translateResponse{
		TranslatedText: tr.Text,
		TargetLang:     target,
		Fallback:       tr.Fallback(),
	})
}

// statusFor код ответа по виду ошибки
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, errorResponse{Error: string(entity.KindOf(err)), Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
