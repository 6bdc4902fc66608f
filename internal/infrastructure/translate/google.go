package translate

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"google.golang.org/api/option"
	translatev2 "google.golang.org/api/translate/v2"

	"crop-doctor/internal/domain/port"
)

// Google перевод через Cloud Translation API v2
type Google struct {
	svc *translatev2.Service
}

// NewGoogle создаёт клиент. opts добавляются после ключа, через них тесты
// подменяют endpoint.
func NewGoogle(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Google, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GOOGLE_TRANSLATE_API_KEY is empty")
	}

	svc, err := translatev2.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("google translate client: %w", err)
	}
	return &Google{svc: svc}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	call := g.svc.Translations.List([]string{text}, target).Format("text").Context(ctx)
	if source != "" {
		call = call.Source(source)
	}

	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	if resp == nil || len(resp.Translations) == 0 || resp.Translations[0] == nil {
		return "", errors.New("google translate: empty response")
	}

	// при format=text сущности обычно не приходят, но бывают
	return html.UnescapeString(resp.Translations[0].TranslatedText), nil
}

var _ port.TranslationBackend = (*Google)(nil)
