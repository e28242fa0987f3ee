package domain

import "context"

// CoachPayload is the structured coaching text shown to the streamer: what the
// viewer's message means, a suggested reply in the viewer's language, and how
// to pronounce it.
type CoachPayload struct {
	OriginalMeaning string `json:"originalMeaning"`
	Response        string `json:"response"`
	ResponseMeaning string `json:"responseMeaning"`
	Pronunciation   string `json:"pronunciation"`
	Quick           bool   `json:"quick,omitempty"`
}

// CoachService resolves a coaching payload for a viewer message. A nil payload
// with nil error means no coaching applies (same language as the streamer, or
// the generator declined). Generator failures are recoverable misses, never
// relay errors.
type CoachService interface {
	DetectLanguage(ctx context.Context, text string) string
	Coach(ctx context.Context, message, detectedLanguage, targetLanguage, persona, viewer string) (*CoachPayload, error)
}
