// Package coach generates pronunciation coaching for foreign-language chat:
// language detection, a persona-aware suggested reply in the viewer's
// language, and a pronunciation guide the streamer can read aloud. Generated
// payloads are cached so repeated phrases skip the model entirely.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kim-jongsoung/tikfind/internal/coachcache"
	"github.com/kim-jongsoung/tikfind/internal/domain"
	"github.com/kim-jongsoung/tikfind/internal/metrics"
	"github.com/kim-jongsoung/tikfind/internal/retry"
	"github.com/sashabaranov/go-openai"
)

const (
	detectionModel  = openai.GPT3Dot5Turbo
	generationModel = "gpt-4o-mini"
)

// generationPolicy retries transient OpenAI failures; rate limits wait
// longer before the next attempt.
var generationPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   500 * time.Millisecond,
	RateLimitBackoff: 5 * time.Second,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying coach generation", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

// classifyOpenAIError treats 429 as rate-limited and 5xx as transient.
// Anything else, including client-side errors, is permanent.
func classifyOpenAIError(err error) retry.Action {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return retry.Stop
	}
	switch {
	case apiErr.HTTPStatusCode == 429:
		return retry.After
	case apiErr.HTTPStatusCode >= 500:
		return retry.Retry
	default:
		return retry.Stop
	}
}

// languageNames maps supported language codes to display names used in
// prompts.
var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"th": "Thai",
	"vi": "Vietnamese",
	"es": "Spanish",
}

// completionClient is the slice of the OpenAI client the service uses.
type completionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service implements domain.CoachService on top of the OpenAI chat API.
type Service struct {
	client completionClient
	cache  *coachcache.Cache
}

// NewService creates a coach service authenticated with the given API key.
func NewService(apiKey string, cache *coachcache.Cache) *Service {
	return &Service{
		client: openai.NewClient(apiKey),
		cache:  cache,
	}
}

// DetectLanguage returns the two-letter language code of the text, or
// "unknown" when detection fails. Detection errors are never surfaced; an
// undetectable message simply gets no coaching.
func (s *Service) DetectLanguage(ctx context.Context, text string) string {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: detectionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "Detect the language of the given text. Reply with only the language code (ko, en, ja, zh, es, etc.)",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		Temperature: 0.3,
		MaxTokens:   10,
	})
	if err != nil {
		slog.Warn("Language detection failed", "error", err)
		return "unknown"
	}
	if len(resp.Choices) == 0 {
		return "unknown"
	}
	code := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	if code == "" {
		return "unknown"
	}
	return code
}

// Coach produces a coaching payload for a viewer message. Returns (nil, nil)
// when no coaching applies: the message is already in the streamer's language
// or its language could not be detected. Cache hits bypass the model.
func (s *Service) Coach(ctx context.Context, message, detectedLanguage, targetLanguage, persona, viewer string) (*domain.CoachPayload, error) {
	if detectedLanguage == "" || detectedLanguage == "unknown" || detectedLanguage == targetLanguage {
		return nil, nil
	}

	if payload, ok := s.cache.Lookup(message, targetLanguage); ok {
		return payload, nil
	}

	payload, err := s.generate(ctx, message, targetLanguage, persona, viewer)
	if err != nil {
		metrics.CoachGenerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("coach generation: %w", err)
	}
	metrics.CoachGenerationsTotal.WithLabelValues("ok").Inc()

	s.cache.Store(message, targetLanguage, payload)
	return payload, nil
}

func (s *Service) generate(ctx context.Context, message, targetLanguage, persona, viewer string) (*domain.CoachPayload, error) {
	targetName := languageNames[targetLanguage]
	if targetName == "" {
		targetName = targetLanguage
	}

	systemPrompt := fmt.Sprintf(`You are a pronunciation coach for a live streamer.
Streamer persona: %s
Streamer language: %s

Role:
1. Translate the viewer's foreign-language message into %s.
2. Write a reply in the viewer's own language, reflecting the streamer's persona and inviting further conversation.
3. Explain briefly in %s what the reply means.
4. Transcribe the reply's pronunciation so a %s speaker can read it aloud.

Output JSON only:
{
  "originalMeaning": "meaning of the message in %s",
  "response": "reply in the viewer's language",
  "responseMeaning": "meaning of the reply in %s",
  "pronunciation": "pronunciation of the reply for a %s speaker"
}`, persona, targetName, targetName, targetName, targetName, targetName, targetName, targetName)

	userPrompt := fmt.Sprintf("Viewer @%s sent: %q\n\nGenerate the coaching payload in the viewer's language.", viewer, message)

	resp, err := retry.Do(ctx, generationPolicy, classifyOpenAIError, func() (openai.ChatCompletionResponse, error) {
		return s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: generationModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userPrompt},
			},
			Temperature: 0.7,
			MaxTokens:   500,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)

	var payload domain.CoachPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		slog.Warn("Failed to parse coach payload, using raw text", "error", err)
		// Model went off-format; surface the raw text rather than losing it.
		return &domain.CoachPayload{
			Response:      raw,
			Pronunciation: raw,
		}, nil
	}
	return &payload, nil
}

// stripCodeFence removes a surrounding markdown code fence the model
// sometimes wraps JSON in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
