package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"crop-doctor/internal/domain/port"
)

// DefaultGeminiModel модель по умолчанию
const DefaultGeminiModel = "gemini-1.5-flash"

// Gemini перевод через генеративную модель
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Gemini{client: cl, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) TranslateText(ctx context.Context, text, source, target string) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(userPrompt(text, source, target)))
	if err != nil {
		return "", fmt.Errorf("gemini translate: %w", err)
	}

	out := cleanReply(firstText(resp))
	if out == "" {
		return "", errors.New("gemini translate: empty response")
	}
	return out, nil
}

// Close закрывает клиент
func (g *Gemini) Close() error {
	return g.client.Close()
}

const systemPrompt = `You translate plant disease names shown to farmers.
Reply with the translated name only: no quotes, no explanations, no transliteration notes.
Keep Latin pathogen names unchanged.`

func userPrompt(text, source, target string) string {
	if source == "" {
		return fmt.Sprintf("Translate to %s:\n%s", target, text)
	}
	return fmt.Sprintf("Translate from %s to %s:\n%s", source, target, text)
}

// cleanReply убирает кавычки и лишние строки из ответа модели
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.Trim(s, "\"'`«»")
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

var _ port.TranslationBackend = (*Gemini)(nil)
