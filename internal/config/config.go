// Package config handles application configuration
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/meetscribe/meetscribe/internal/errors"
)

// Transcription provider names.
const (
	ProviderAssemblyAI = "assemblyai"
	ProviderDeepgram   = "deepgram"
)

// Summarization provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	// Provider selection
	TranscriptionService string
	SummaryProvider      string

	// Credentials
	AssemblyAIAPIKey string
	DeepgramAPIKey   string
	AnthropicAPIKey  string
	GeminiAPIKey     string

	// Summary settings
	SummaryIntervalMinutes int
	AnthropicModel         string
	GeminiModel            string

	// Meeting settings
	MeetDisplayName string
	ZoomDisplayName string
	BrowserHeadless bool

	// Audio settings
	SampleRate int // Hz, 16kHz for speech recognition
	Channels   int // mono

	// Dashboard
	HTTPAddr string
}

// Load reads configuration from the environment, honoring a .env file if
// present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		TranscriptionService:   strings.ToLower(getEnv("TRANSCRIPTION_SERVICE", ProviderAssemblyAI)),
		SummaryProvider:        strings.ToLower(getEnv("SUMMARY_PROVIDER", ProviderAnthropic)),
		AssemblyAIAPIKey:       getEnv("ASSEMBLYAI_API_KEY", ""),
		DeepgramAPIKey:         getEnv("DEEPGRAM_API_KEY", ""),
		AnthropicAPIKey:        getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		SummaryIntervalMinutes: getEnvInt("SUMMARY_INTERVAL_MINUTES", 5),
		AnthropicModel:         getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		MeetDisplayName:        getEnv("MEET_DISPLAY_NAME", "Meeting Assistant Bot"),
		ZoomDisplayName:        getEnv("ZOOM_DISPLAY_NAME", "Meeting Assistant Bot"),
		BrowserHeadless:        getEnvBool("BROWSER_HEADLESS", false),
		SampleRate:             getEnvInt("SAMPLE_RATE", 16000),
		Channels:               getEnvInt("CHANNELS", 1),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8000"),
	}
}

// Validate checks that every setting the selected providers need is present.
// All problems are reported at once rather than one per call.
func (c *Config) Validate() error {
	var problems []string

	switch c.TranscriptionService {
	case ProviderAssemblyAI:
		if c.AssemblyAIAPIKey == "" {
			problems = append(problems, "ASSEMBLYAI_API_KEY is required for AssemblyAI transcription")
		}
	case ProviderDeepgram:
		if c.DeepgramAPIKey == "" {
			problems = append(problems, "DEEPGRAM_API_KEY is required for Deepgram transcription")
		}
	default:
		problems = append(problems, "unknown transcription service: "+c.TranscriptionService)
	}

	switch c.SummaryProvider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			problems = append(problems, "ANTHROPIC_API_KEY is required for Anthropic summarization")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			problems = append(problems, "GEMINI_API_KEY is required for Gemini summarization")
		}
	default:
		problems = append(problems, "unknown summary provider: "+c.SummaryProvider)
	}

	if c.SummaryIntervalMinutes <= 0 {
		problems = append(problems, "SUMMARY_INTERVAL_MINUTES must be positive")
	}
	if c.SampleRate <= 0 {
		problems = append(problems, "SAMPLE_RATE must be positive")
	}

	if len(problems) > 0 {
		return apperrors.New(apperrors.CodeConfig, "configuration errors: "+strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return def
}
