package config

import (
	"fmt"
	"net/url"

	"github.com/podiumhq/podium/internal/language"
)

func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL())
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid backend.url: %q", c.BackendURL())
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("invalid backend.url scheme: %q", u.Scheme)
	}

	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid recording.sample_rate: %d", c.Recording.SampleRate)
	}
	if c.Recording.FrameSize <= 0 {
		return fmt.Errorf("invalid recording.frame_size: %d", c.Recording.FrameSize)
	}
	if c.Recording.AnalyserSize <= 0 {
		return fmt.Errorf("invalid recording.analyser_size: %d", c.Recording.AnalyserSize)
	}
	if c.Recording.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid recording.channel_buffer_size: %d", c.Recording.ChannelBufferSize)
	}

	if c.deepgramKey() == "" {
		return fmt.Errorf("Deepgram API key required: not found in config (deepgram.api_key) or environment variable (%s)", EnvDeepgramKey)
	}
	if c.Deepgram.Model == "" {
		return fmt.Errorf("invalid deepgram.model: empty")
	}
	if !language.IsValidCode(c.Deepgram.Language) {
		return fmt.Errorf("unsupported deepgram.language: %q", c.Deepgram.Language)
	}
	if c.Deepgram.UtteranceEndMs < 0 || c.Deepgram.EndpointingMs < 0 {
		return fmt.Errorf("invalid deepgram timing: utterance_end_ms=%d endpointing_ms=%d",
			c.Deepgram.UtteranceEndMs, c.Deepgram.EndpointingMs)
	}

	if c.Rehearsal.DurationMinutes <= 0 {
		return fmt.Errorf("invalid rehearsal.duration_minutes: %d", c.Rehearsal.DurationMinutes)
	}
	if c.Rehearsal.GoalSeconds < 0 {
		return fmt.Errorf("invalid rehearsal.goal_seconds: %d", c.Rehearsal.GoalSeconds)
	}

	switch c.Coach.Provider {
	case "":
	case "openai", "groq":
		if c.ToCoachConfig().APIKey == "" {
			return fmt.Errorf("coach.provider %q needs coach.api_key or its environment variable", c.Coach.Provider)
		}
	default:
		return fmt.Errorf("invalid coach.provider: %q (must be openai, groq or empty)", c.Coach.Provider)
	}

	switch c.Storage.Kind {
	case "", "none", "local":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("invalid storage.s3.bucket: empty")
		}
	default:
		return fmt.Errorf("invalid storage.kind: %q (must be local, s3 or none)", c.Storage.Kind)
	}

	switch c.Notifications.Type {
	case "", "desktop", "log", "none":
	default:
		return fmt.Errorf("invalid notifications.type: %q (must be desktop, log or none)", c.Notifications.Type)
	}

	return nil
}
