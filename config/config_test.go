package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(env(nil))
	require.NoError(t, err)

	require.Equal(t, ":8000", cfg.HTTPAddr)
	require.Equal(t, "model/best.onnx", cfg.ModelPath)
	require.Equal(t, 1, cfg.ModelInstances)
	require.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	require.Equal(t, int64(40_000_000), cfg.MaxImagePixels)
	require.Equal(t, 0.0, cfg.MinConfidence)
	require.Equal(t, 5*time.Second, cfg.TranslationTimeout)
	require.Equal(t, 1024, cfg.TranslationCacheSize)
	require.Equal(t, BackendNone, cfg.TranslationBackend)
	require.Len(t, cfg.AllowedOrigins, 4)

	require.Equal(t, "en", cfg.Languages.Source())
	require.Len(t, cfg.Languages.All(), 29)
	hi, ok := cfg.Languages.Lookup("hi")
	require.True(t, ok)
	require.Equal(t, "Hindi", hi.DisplayName)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(env(map[string]string{
		"HTTP_ADDR":                ":9000",
		"MODEL_LABELS":             "Leaf Spot, Rust",
		"MODEL_INSTANCES":          "4",
		"MIN_CONFIDENCE":           "0.5",
		"SUPPORTED_LANGUAGES":      "en,es,fr:Français",
		"GOOGLE_TRANSLATE_API_KEY": "key",
		"TRANSLATION_CACHE_TTL":    "1h",
		"ALLOWED_ORIGINS":          "https://example.org",
	}))
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.HTTPAddr)
	require.Equal(t, []string{"Leaf Spot", "Rust"}, cfg.ModelLabels)
	require.Equal(t, 4, cfg.ModelInstances)
	require.Equal(t, 0.5, cfg.MinConfidence)
	require.Equal(t, BackendGoogle, cfg.TranslationBackend)
	require.Equal(t, time.Hour, cfg.TranslationCacheTTL)
	require.Equal(t, []string{"https://example.org"}, cfg.AllowedOrigins)

	es, ok := cfg.Languages.Lookup("es")
	require.True(t, ok)
	require.Equal(t, "Spanish", es.DisplayName)
	fr, _ := cfg.Languages.Lookup("fr")
	require.Equal(t, "Français", fr.DisplayName)
}

func TestLoad_GeminiChosenByKey(t *testing.T) {
	cfg, err := load(env(map[string]string{"GEMINI_API_KEY": "k"}))
	require.NoError(t, err)
	require.Equal(t, BackendGemini, cfg.TranslationBackend)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"threshold above one":    {"MIN_CONFIDENCE": "1.5"},
		"threshold not a number": {"BOX_THRESHOLD": "high"},
		"zero instances":         {"MODEL_INSTANCES": "0"},
		"bad duration":           {"TRANSLATION_TIMEOUT": "soon"},
		"google without key":     {"TRANSLATION_BACKEND": "google"},
		"unknown backend":        {"TRANSLATION_BACKEND": "deepl"},
		"source not in set":      {"SOURCE_LANGUAGE": "de", "SUPPORTED_LANGUAGES": "en,es"},
		"duplicate language":     {"SUPPORTED_LANGUAGES": "en,es,es"},
		"malformed language":     {"SUPPORTED_LANGUAGES": "en,e$"},
		"malformed named code":   {"SUPPORTED_LANGUAGES": "en:English,e$:Foo"},
		"zero pixel limit":       {"MAX_IMAGE_PIXELS": "0"},
		"bad log level":          {"LOG_LEVEL": "chatty"},
		"negative upload limit":  {"MAX_UPLOAD_BYTES": "-1"},
		"negative cache size":    {"TRANSLATION_CACHE_SIZE": "-3"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(env(vars))
			require.Error(t, err)
		})
	}
}

func TestLoad_ReportsAllErrors(t *testing.T) {
	_, err := load(env(map[string]string{"MIN_CONFIDENCE": "2", "MODEL_INSTANCES": "0"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "MIN_CONFIDENCE")
	require.Contains(t, err.Error(), "MODEL_INSTANCES")
}

func TestParseLanguages(t *testing.T) {
	langs, err := ParseLanguages(" en , de:Deutsch ,")
	require.NoError(t, err)
	require.Len(t, langs, 2)
	require.Equal(t, "English", langs[0].DisplayName)
	require.Equal(t, "Deutsch", langs[1].DisplayName)
}

func TestParseLanguages_ChecksNamedCodes(t *testing.T) {
	_, err := ParseLanguages("en:English,e$:Foo")
	require.ErrorContains(t, err, `"e$"`)

	_, err = ParseLanguages("xx")
	require.Error(t, err, "unknown code without a name has nothing to display")

	// корректный, но неизвестный код допустим с явным именем
	langs, err := ParseLanguages("qaa:Local dialect")
	require.NoError(t, err)
	require.Equal(t, "Local dialect", langs[0].DisplayName)
}
