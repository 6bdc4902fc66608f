package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"crop-doctor/internal/domain/entity"
	"crop-doctor/internal/domain/port"
)

// DefaultTranslationTimeout ограничение на один вызов бэкенда
const DefaultTranslationTimeout = 5 * time.Second

// TranslationConfig параметры сервиса перевода
type TranslationConfig struct {
	Timeout   time.Duration // 0: DefaultTranslationTimeout
	CacheSize int           // 0: без ограничения
	CacheTTL  time.Duration // 0: записи не устаревают
}

type cacheKey struct {
	text   string
	source string
	target string
}

type cacheEntry struct {
	text     string
	storedAt time.Time
}

// TranslationService переводит метки болезней с кэшем и откатом на исходный текст.
// Ошибки бэкенда наружу не выходят.
type TranslationService struct {
	languages *entity.LanguageSet
	backend   port.TranslationBackend
	timeout   time.Duration
	cache     *expirable.LRU[cacheKey, cacheEntry]
	group     singleflight.Group
	logger    *zap.Logger
}

// NewTranslationService создаёт сервис. backend может быть nil, тогда
// любой перевод заканчивается откатом.
func NewTranslationService(languages *entity.LanguageSet, backend port.TranslationBackend, cfg TranslationConfig, logger *zap.Logger) *TranslationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTranslationTimeout
	}
	size := cfg.CacheSize
	if size < 0 {
		size = 0
	}

	return &TranslationService{
		languages: languages,
		backend:   backend,
		timeout:   timeout,
		cache:     expirable.NewLRU[cacheKey, cacheEntry](size, nil, cfg.CacheTTL),
		logger:    logger.Named("translation"),
	}
}

// Languages возвращает поддерживаемые языки
func (s *TranslationService) Languages() []entity.Language {
	return s.languages.All()
}

// SourceLanguage язык исходных меток
func (s *TranslationService) SourceLanguage() string {
	return s.languages.Source()
}

// ValidateCode проверяет формат кода языка. Пустой код допустим.
// Корректный, но неизвестный код (например "xx") ошибкой не считается.
func (s *TranslationService) ValidateCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		var verr language.ValueError
		if errors.As(err, &verr) {
			return nil
		}
		return fmt.Errorf("%w: malformed language code %q", entity.ErrInvalidInput, code)
	}
	return nil
}

// CacheLen число записей в кэше
func (s *TranslationService) CacheLen() int {
	return s.cache.Len()
}

// Translate переводит метку с исходного языка на code
func (s *TranslationService) Translate(ctx context.Context, label, code string) entity.Translation {
	return s.TranslateText(ctx, label, s.languages.Source(), code)
}

// TranslateText переводит text с source на target
func (s *TranslationService) TranslateText(ctx context.Context, text, source, target string) entity.Translation {
	target = entity.NormalizeLanguageCode(target)
	source = entity.NormalizeLanguageCode(source)
	if source == "" {
		source = s.languages.Source()
	}

	switch {
	case target == "":
		return entity.Translation{Text: text, Status: entity.TranslationSkipped}
	case target == source:
		return entity.Translation{Text: text, Status: entity.TranslationSource}
	case !s.languages.Supports(target) || !s.languages.Supports(source):
		s.logger.Debug("unsupported language, label left as is",
			zap.String("source", source), zap.String("target", target))
		return entity.Translation{Text: text, Status: entity.TranslationUnsupported}
	case strings.TrimSpace(text) == "":
		return entity.Translation{Text: text, Status: entity.TranslationSkipped}
	}

	key := cacheKey{text: text, source: source, target: target}
	if e, ok := s.cache.Get(key); ok {
		s.logger.Debug("translation cache hit",
			zap.String("target", target),
			zap.Duration("age", time.Since(e.storedAt)))
		return entity.Translation{Text: e.text, Status: entity.TranslationCached}
	}

	translated, err := s.fetch(ctx, key)
	if err != nil {
		s.logger.Warn("translation fallback",
			zap.String("text", text),
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(err))
		return entity.Translation{Text: text, Status: entity.TranslationFallback}
	}
	return entity.Translation{Text: translated, Status: entity.TranslationTranslated}
}

// fetch вызывает бэкенд, одновременные промахи по одному ключу склеиваются
func (s *TranslationService) fetch(ctx context.Context, key cacheKey) (string, error) {
	if s.backend == nil {
		return "", fmt.Errorf("%w: no backend configured", entity.ErrTranslation)
	}

	flightKey := key.source + "\x00" + key.target + "\x00" + key.text
	v, err, _ := s.group.Do(flightKey, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		out, err := s.backend.TranslateText(callCtx, key.text, key.source, key.target)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", entity.ErrTranslation, s.backend.Name(), err)
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", fmt.Errorf("%w: %s: empty response", entity.ErrTranslation, s.backend.Name())
		}

		s.cache.Add(key, cacheEntry{text: out, storedAt: time.Now()})
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
