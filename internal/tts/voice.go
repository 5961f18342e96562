package tts

import (
	"log/slog"
	"strings"
)

// DefaultVoice is used when a language has no table entry.
const DefaultVoice = "en-US-JennyNeural"

// voiceByLanguage maps language names and ISO-639-1 codes to Edge neural
// voices. Immutable after init; shared by all concurrent requests.
var voiceByLanguage = map[string]string{
	"English":  "en-US-JennyNeural",
	"en":       "en-US-JennyNeural",
	"Hindi":    "hi-IN-SwaraNeural",
	"hi":       "hi-IN-SwaraNeural",
	"Gujarati": "gu-IN-DhwaniNeural",
	"gu":       "gu-IN-DhwaniNeural",
}

// VoiceForLanguage resolves a language identifier to a voice. Exact match
// first, then case-insensitive, then the default voice with a warning.
// It never fails.
func VoiceForLanguage(language string, log *slog.Logger) string {
	if voice, ok := voiceByLanguage[language]; ok {
		return voice
	}
	lower := strings.ToLower(strings.TrimSpace(language))
	for name, voice := range voiceByLanguage {
		if strings.ToLower(name) == lower {
			return voice
		}
	}
	log.Warn("no voice mapped for language, falling back to default",
		slog.String("language", language),
		slog.String("voice", DefaultVoice))
	return DefaultVoice
}
