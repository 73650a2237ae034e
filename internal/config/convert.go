package config

import (
	"os"
	"time"

	"github.com/podiumhq/podium/internal/coach"
	"github.com/podiumhq/podium/internal/recording"
	"github.com/podiumhq/podium/internal/transcriber"
)

// Environment variables consulted when the matching config value is empty.
const (
	EnvDeepgramKey = "DEEPGRAM_API_KEY"
	EnvBackendURL  = "PODIUM_BACKEND_URL"
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvGroqKey     = "GROQ_API_KEY"
)

func coachDefaults() coach.Config {
	return coach.Config{Timeout: 30 * time.Second}
}

// BackendURL returns the configured backend. PODIUM_BACKEND_URL takes
// precedence over the file.
func (c *Config) BackendURL() string {
	if v := os.Getenv(EnvBackendURL); v != "" {
		return v
	}
	if c.Backend.URL != "" {
		return c.Backend.URL
	}
	return DefaultBackendURL
}

func (c *Config) ToRecordingConfig() recording.Config {
	return recording.Config{
		SampleRate:        c.Recording.SampleRate,
		FrameSize:         c.Recording.FrameSize,
		AnalyserSize:      c.Recording.AnalyserSize,
		ChannelBufferSize: c.Recording.ChannelBufferSize,
		Device:            c.Recording.Device,
	}
}

func (c *Config) ToTranscriberConfig() transcriber.Config {
	return transcriber.Config{
		APIKey:          c.deepgramKey(),
		Endpoint:        c.Deepgram.Endpoint,
		Model:           c.Deepgram.Model,
		Language:        c.Deepgram.Language,
		InterimResults:  c.Deepgram.InterimResults,
		SmartFormat:     c.Deepgram.SmartFormat,
		FillerWords:     c.Deepgram.FillerWords,
		UtteranceEndMs:  c.Deepgram.UtteranceEndMs,
		EndpointingMs:   c.Deepgram.EndpointingMs,
		Keywords:        c.Deepgram.Keywords,
		FinalizeTimeout: c.Deepgram.FinalizeTimeout,
	}
}

func (c *Config) ToCoachConfig() coach.Config {
	cfg := c.Coach
	if cfg.APIKey != "" {
		return cfg
	}
	switch cfg.Provider {
	case "openai":
		cfg.APIKey = os.Getenv(EnvOpenAIKey)
	case "groq":
		cfg.APIKey = os.Getenv(EnvGroqKey)
	}
	return cfg
}

func (c *Config) deepgramKey() string {
	if c.Deepgram.APIKey != "" {
		return c.Deepgram.APIKey
	}
	return os.Getenv(EnvDeepgramKey)
}
