package config

import (
	"time"

	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/recording"
	"github.com/podiumhq/podium/internal/speech"
	"github.com/podiumhq/podium/internal/transcriber"
)

const DefaultBackendURL = "http://localhost:8000"

// DefaultConfig returns the configuration written by `podium configure`.
func DefaultConfig() *Config {
	dg := transcriber.DefaultConfig()
	rec := recording.DefaultConfig()
	return &Config{
		Logging: logging.DefaultConfig(),
		Backend: BackendConfig{
			URL:     DefaultBackendURL,
			Timeout: 60 * time.Second,
		},
		Deepgram: DeepgramConfig{
			Endpoint:        dg.Endpoint,
			Model:           dg.Model,
			Language:        dg.Language,
			InterimResults:  dg.InterimResults,
			SmartFormat:     dg.SmartFormat,
			FillerWords:     dg.FillerWords,
			UtteranceEndMs:  dg.UtteranceEndMs,
			EndpointingMs:   dg.EndpointingMs,
			FinalizeTimeout: dg.FinalizeTimeout,
		},
		Recording: RecordingConfig{
			SampleRate:        rec.SampleRate,
			FrameSize:         rec.FrameSize,
			AnalyserSize:      rec.AnalyserSize,
			ChannelBufferSize: rec.ChannelBufferSize,
		},
		Rehearsal: RehearsalConfig{
			Category:        "startup",
			DurationMinutes: 2,
			GoalSeconds:     speech.DefaultGoalSeconds,
			ChunkInterval:   3 * time.Second,
			UploadFeedback:  true,
		},
		Coach: coachDefaults(),
		Storage: StorageConfig{
			Kind:   "local",
			Prefix: "podium",
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
	}
}
