package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"crop-doctor/internal/domain/entity"
)

// Бэкенды перевода
const (
	BackendGoogle = "google"
	BackendGemini = "gemini"
	BackendNone   = "none"
)

// DefaultLanguages языки по умолчанию в формате code:Name
const DefaultLanguages = "en:English,es:Spanish,fr:French,de:German,it:Italian,pt:Portuguese," +
	"ru:Russian,zh:Chinese (Simplified),ja:Japanese,ko:Korean,ar:Arabic,hi:Hindi,ta:Tamil," +
	"te:Telugu,ml:Malayalam,kn:Kannada,mr:Marathi,bn:Bengali,gu:Gujarati,ur:Urdu,pa:Punjabi," +
	"ne:Nepali,si:Sinhala,my:Myanmar,th:Thai,vi:Vietnamese,id:Indonesian,ms:Malay,tl:Filipino"

// DefaultAllowedOrigins источники, которым разрешён CORS
const DefaultAllowedOrigins = "http://localhost:3000,http://127.0.0.1:3000," +
	"https://crop-doctor-frontend-jtx7.vercel.app,https://plant-doctor-server-1313.onrender.com"

type Config struct {
	// Транспорт
	HTTPAddr        string
	TelegramToken   string // если пусто, бот не запускается
	AllowedOrigins  []string
	MaxUploadBytes  int64
	MaxImagePixels  int64 // ширина*высота, проверяется до декодирования
	ShutdownTimeout time.Duration

	// Модель
	ModelPath       string
	ModelLabels     []string
	ModelLabelsPath string
	ModelInstances  int
	ModelInputSize  int
	BoxThreshold    float64
	NMSThreshold    float64
	MaxDetections   int
	MinConfidence   float64

	// Перевод
	SourceLanguage        string
	Languages             *entity.LanguageSet
	TranslationBackend    string
	GoogleTranslateAPIKey string
	GeminiAPIKey          string
	GeminiModel           string
	TranslationTimeout    time.Duration
	TranslationCacheSize  int
	TranslationCacheTTL   time.Duration

	// Логи
	LogLevel string
	LogFile  string
}

// Load читает .env (если есть) и переменные окружения.
// Все ошибки проверки возвращаются сразу, одним значением.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	r := &envReader{getenv: getenv}

	cfg := &Config{
		HTTPAddr:        r.str("HTTP_ADDR", ":8000"),
		TelegramToken:   r.str("TELEGRAM_TOKEN", ""),
		AllowedOrigins:  splitList(r.str("ALLOWED_ORIGINS", DefaultAllowedOrigins)),
		MaxUploadBytes:  r.int64("MAX_UPLOAD_BYTES", 10<<20),
		MaxImagePixels:  r.int64("MAX_IMAGE_PIXELS", 40_000_000),
		ShutdownTimeout: r.duration("SHUTDOWN_TIMEOUT", 10*time.Second),

		ModelPath:       r.str("MODEL_PATH", "model/best.onnx"),
		ModelLabels:     splitList(r.str("MODEL_LABELS", "")),
		ModelLabelsPath: r.str("MODEL_LABELS_PATH", ""),
		ModelInstances:  r.int("MODEL_INSTANCES", 1),
		ModelInputSize:  r.int("MODEL_INPUT_SIZE", 640),
		BoxThreshold:    r.float("BOX_THRESHOLD", 0.25),
		NMSThreshold:    r.float("NMS_THRESHOLD", 0.45),
		MaxDetections:   r.int("MAX_DETECTIONS", 64),
		MinConfidence:   r.float("MIN_CONFIDENCE", 0),

		SourceLanguage:        entity.NormalizeLanguageCode(r.str("SOURCE_LANGUAGE", "en")),
		GoogleTranslateAPIKey: r.str("GOOGLE_TRANSLATE_API_KEY", ""),
		GeminiAPIKey:          r.str("GEMINI_API_KEY", ""),
		GeminiModel:           r.str("GEMINI_MODEL", ""),
		TranslationTimeout:    r.duration("TRANSLATION_TIMEOUT", 5*time.Second),
		TranslationCacheSize:  r.int("TRANSLATION_CACHE_SIZE", 1024),
		TranslationCacheTTL:   r.duration("TRANSLATION_CACHE_TTL", 0),

		LogLevel: r.str("LOG_LEVEL", "info"),
		LogFile:  r.str("LOG_FILE", ""),
	}

	cfg.TranslationBackend = strings.ToLower(r.str("TRANSLATION_BACKEND", defaultBackend(cfg)))

	langs, err := ParseLanguages(r.str("SUPPORTED_LANGUAGES", DefaultLanguages))
	r.fail(err)
	if err == nil {
		cfg.Languages, err = entity.NewLanguageSet(cfg.SourceLanguage, langs)
		r.fail(err)
	}

	r.fail(cfg.validate())
	if r.err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", r.err)
	}
	return cfg, nil
}

// defaultBackend выбирает бэкенд по заданным ключам
func defaultBackend(c *Config) string {
	switch {
	case c.GoogleTranslateAPIKey != "":
		return BackendGoogle
	case c.GeminiAPIKey != "":
		return BackendGemini
	default:
		return BackendNone
	}
}

func (c *Config) validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTPAddr != "", "HTTP_ADDR is empty")
	check(c.MaxUploadBytes > 0, "MAX_UPLOAD_BYTES must be positive")
	check(c.MaxImagePixels > 0, "MAX_IMAGE_PIXELS must be positive")
	check(c.ModelPath != "", "MODEL_PATH is empty")
	check(c.ModelInstances > 0, "MODEL_INSTANCES must be positive")
	check(c.ModelInputSize > 0, "MODEL_INPUT_SIZE must be positive")
	check(c.MaxDetections > 0, "MAX_DETECTIONS must be positive")
	check(unit(c.BoxThreshold), "BOX_THRESHOLD must be in [0,1]")
	check(unit(c.NMSThreshold), "NMS_THRESHOLD must be in [0,1]")
	check(unit(c.MinConfidence), "MIN_CONFIDENCE must be in [0,1]")
	check(c.TranslationTimeout > 0, "TRANSLATION_TIMEOUT must be positive")
	check(c.TranslationCacheSize >= 0, "TRANSLATION_CACHE_SIZE must not be negative")
	check(c.TranslationCacheTTL >= 0, "TRANSLATION_CACHE_TTL must not be negative")
	check(c.ShutdownTimeout > 0, "SHUTDOWN_TIMEOUT must be positive")

	switch c.TranslationBackend {
	case BackendGoogle:
		check(c.GoogleTranslateAPIKey != "", "GOOGLE_TRANSLATE_API_KEY is required for the google backend")
	case BackendGemini:
		check(c.GeminiAPIKey != "", "GEMINI_API_KEY is required for the gemini backend")
	case BackendNone:
	default:
		check(false, "unknown TRANSLATION_BACKEND %q", c.TranslationBackend)
	}

	_, lerr := zapcore.ParseLevel(c.LogLevel)
	check(lerr == nil, "invalid LOG_LEVEL %q", c.LogLevel)

	return err
}

// ParseLanguages разбирает список "code[:Name],...". Если имя не задано,
// берётся английское название языка.
func ParseLanguages(s string) ([]entity.Language, error) {
	var out []entity.Language
	for _, item := range splitList(s) {
		code, name, _ := strings.Cut(item, ":")
		code = entity.NormalizeLanguageCode(code)
		name = strings.TrimSpace(name)

		// неизвестный, но корректный код (ValueError) допустим при явном имени
		tag, err := language.Parse(code)
		var verr language.ValueError
		if err != nil && !errors.As(err, &verr) {
			return nil, fmt.Errorf("language %q: %w", code, err)
		}
		if name == "" {
			if err != nil {
				return nil, fmt.Errorf("language %q: %w", code, err)
			}
			name = display.English.Languages().Name(tag)
		}
		out = append(out, entity.Language{Code: code, DisplayName: name})
	}
	return out, nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envReader читает переменные и копит ошибки разбора
type envReader struct {
	getenv func(string) string
	err    error
}

func (r *envReader) fail(err error) {
	r.err = multierr.Append(r.err, err)
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) int(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) int64(key string, def int64) int64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.fail(fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(fmt.Errorf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}
