package config

import (
	"reflect"
	"time"

	"github.com/podiumhq/podium/internal/coach"
	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/storage"
)

type Config struct {
	Logging       logging.Config      `toml:"logging"`
	Backend       BackendConfig       `toml:"backend"`
	Deepgram      DeepgramConfig      `toml:"deepgram"`
	Recording     RecordingConfig     `toml:"recording"`
	Rehearsal     RehearsalConfig     `toml:"rehearsal"`
	Coach         coach.Config        `toml:"coach"`
	Storage       StorageConfig       `toml:"storage"`
	Metrics       MetricsConfig       `toml:"metrics"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// BackendConfig points at the rehearsal room API. WebSocket URLs are derived
// from URL by swapping the scheme.
type BackendConfig struct {
	URL     string        `toml:"url"`
	Timeout time.Duration `toml:"timeout"`
}

type DeepgramConfig struct {
	APIKey          string        `toml:"api_key"`
	Endpoint        string        `toml:"endpoint"`
	Model           string        `toml:"model"`
	Language        string        `toml:"language"`
	InterimResults  bool          `toml:"interim_results"`
	SmartFormat     bool          `toml:"smart_format"`
	FillerWords     bool          `toml:"filler_words"`
	UtteranceEndMs  int           `toml:"utterance_end_ms"`
	EndpointingMs   int           `toml:"endpointing_ms"`
	Keywords        []string      `toml:"keywords"`
	FinalizeTimeout time.Duration `toml:"finalize_timeout"`
}

type RecordingConfig struct {
	SampleRate        int    `toml:"sample_rate"`
	FrameSize         int    `toml:"frame_size"`
	AnalyserSize      int    `toml:"analyser_size"`
	ChannelBufferSize int    `toml:"channel_buffer_size"`
	Device            string `toml:"device"`
	// File replaces the microphone with a 16-bit mono WAV file.
	File string `toml:"file"`
}

// RehearsalConfig holds the room defaults used when a rehearsal is created.
type RehearsalConfig struct {
	Category        string        `toml:"category"`
	Topic           string        `toml:"topic"`
	DurationMinutes int           `toml:"duration_minutes"`
	GoalSeconds     int           `toml:"goal_seconds"`
	ChunkInterval   time.Duration `toml:"chunk_interval"`
	UploadFeedback  bool          `toml:"upload_feedback"`
}

type StorageConfig struct {
	Kind      string           `toml:"kind"` // "local", "s3" or "none"
	LocalPath string           `toml:"local_path"`
	Prefix    string           `toml:"prefix"`
	S3        storage.S3Config `toml:"s3"`
}

type MetricsConfig struct {
	Addr string `toml:"addr"` // empty disables the listener
}

type NotificationsConfig struct {
	Enabled  bool           `toml:"enabled"`
	Type     string         `toml:"type"` // "desktop", "log", "none"
	Messages MessagesConfig `toml:"messages"`
}

type MessageConfig struct {
	Title string `toml:"title"`
	Body  string `toml:"body"`
}

type MessagesConfig struct {
	RehearsalStarted MessageConfig `toml:"rehearsal_started"`
	RehearsalStopped MessageConfig `toml:"rehearsal_stopped"`
	FeedbackReady    MessageConfig `toml:"feedback_ready"`
	RehearsalAborted MessageConfig `toml:"rehearsal_aborted"`
	ConnectionLost   MessageConfig `toml:"connection_lost"`
	ConfigReloaded   MessageConfig `toml:"config_reloaded"`
}

// Resolve merges user config with defaults from MessageDefs
func (m *MessagesConfig) Resolve() map[notify.MessageType]notify.Message {
	result := make(map[notify.MessageType]notify.Message)

	v := reflect.ValueOf(m).Elem()
	t := v.Type()
	tagToField := make(map[string]int)
	for i := 0; i < t.NumField(); i++ {
		tagToField[t.Field(i).Tag.Get("toml")] = i
	}

	for _, def := range notify.MessageDefs {
		msg := notify.Message{
			Title:   def.DefaultTitle,
			Body:    def.DefaultBody,
			IsError: def.IsError,
		}
		if idx, ok := tagToField[def.ConfigKey]; ok {
			userMsg := v.Field(idx).Interface().(MessageConfig)
			if userMsg.Title != "" {
				msg.Title = userMsg.Title
			}
			if userMsg.Body != "" {
				msg.Body = userMsg.Body
			}
		}
		result[def.Type] = msg
	}
	return result
}
