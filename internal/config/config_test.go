package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/testutil"
)

// createTestConfig returns a valid configuration for testing
func createTestConfig() *Config {
	c := DefaultConfig()
	c.Deepgram.APIKey = "dg-test-key"
	return c
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDeepgramKey, EnvBackendURL, EnvOpenAIKey, EnvGroqKey} {
		t.Setenv(k, "")
	}
}

func TestConfig_Validate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "bad backend url", mutate: func(c *Config) { c.Backend.URL = "localhost" }, wantErr: "backend.url"},
		{name: "bad backend scheme", mutate: func(c *Config) { c.Backend.URL = "ftp://host" }, wantErr: "scheme"},
		{name: "zero sample rate", mutate: func(c *Config) { c.Recording.SampleRate = 0 }, wantErr: "sample_rate"},
		{name: "zero frame size", mutate: func(c *Config) { c.Recording.FrameSize = 0 }, wantErr: "frame_size"},
		{name: "zero channel buffer", mutate: func(c *Config) { c.Recording.ChannelBufferSize = 0 }, wantErr: "channel_buffer_size"},
		{name: "missing deepgram key", mutate: func(c *Config) { c.Deepgram.APIKey = "" }, wantErr: "Deepgram API key"},
		{name: "empty model", mutate: func(c *Config) { c.Deepgram.Model = "" }, wantErr: "deepgram.model"},
		{name: "unsupported language", mutate: func(c *Config) { c.Deepgram.Language = "xx" }, wantErr: "deepgram.language"},
		{name: "multilingual", mutate: func(c *Config) { c.Deepgram.Language = "multi" }},
		{name: "zero duration", mutate: func(c *Config) { c.Rehearsal.DurationMinutes = 0 }, wantErr: "duration_minutes"},
		{name: "unknown coach provider", mutate: func(c *Config) { c.Coach.Provider = "claude" }, wantErr: "coach.provider"},
		{name: "coach without key", mutate: func(c *Config) { c.Coach.Provider = "openai" }, wantErr: "coach.api_key"},
		{name: "coach with key", mutate: func(c *Config) { c.Coach.Provider = "groq"; c.Coach.APIKey = "k" }},
		{name: "s3 without bucket", mutate: func(c *Config) { c.Storage.Kind = "s3" }, wantErr: "bucket"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Kind = "gcs" }, wantErr: "storage.kind"},
		{name: "unknown notification type", mutate: func(c *Config) { c.Notifications.Type = "sms" }, wantErr: "notifications.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_EnvFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDeepgramKey, "dg-env")
	t.Setenv(EnvBackendURL, "https://rooms.example.com")
	t.Setenv(EnvOpenAIKey, "sk-env")

	c := DefaultConfig()
	c.Coach.Provider = "openai"

	if got := c.ToTranscriberConfig().APIKey; got != "dg-env" {
		t.Errorf("deepgram key = %q, want env value", got)
	}
	if got := c.BackendURL(); got != "https://rooms.example.com" {
		t.Errorf("BackendURL() = %q", got)
	}
	if got := c.ToCoachConfig().APIKey; got != "sk-env" {
		t.Errorf("coach key = %q, want env value", got)
	}

	c.Deepgram.APIKey = "dg-file"
	if got := c.ToTranscriberConfig().APIKey; got != "dg-file" {
		t.Errorf("config key should win over env, got %q", got)
	}
}

func TestConfig_Conversions(t *testing.T) {
	c := createTestConfig()
	c.Recording.Device = "alsa_input.usb"
	c.Deepgram.Keywords = []string{"podium"}

	rc := c.ToRecordingConfig()
	if rc.SampleRate != 16000 || rc.Device != "alsa_input.usb" || rc.FrameSize != c.Recording.FrameSize {
		t.Errorf("unexpected recording config: %+v", rc)
	}

	tc := c.ToTranscriberConfig()
	if tc.Model != "nova-3" || tc.UtteranceEndMs != 1000 || tc.EndpointingMs != 400 {
		t.Errorf("unexpected transcriber config: %+v", tc)
	}
	if len(tc.Keywords) != 1 || tc.Keywords[0] != "podium" {
		t.Errorf("keywords not carried: %v", tc.Keywords)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.toml"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("err = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "config.toml")
		content := `
[backend]
  url = "https://api.example.com"

[deepgram]
  api_key = "dg"
  keywords = ["Series A"]

[rehearsal]
  topic = "seed round"
  chunk_interval = "5s"
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		c, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile: %v", err)
		}
		if c.Backend.URL != "https://api.example.com" {
			t.Errorf("backend url = %q", c.Backend.URL)
		}
		if c.Deepgram.Model != "nova-3" {
			t.Errorf("default model lost: %q", c.Deepgram.Model)
		}
		if c.Rehearsal.Topic != "seed round" || c.Rehearsal.ChunkInterval != 5*time.Second {
			t.Errorf("rehearsal = %+v", c.Rehearsal)
		}
		if c.Rehearsal.DurationMinutes != 2 {
			t.Errorf("default duration lost: %d", c.Rehearsal.DurationMinutes)
		}
		if c.Storage.LocalPath != filepath.Join(dir, "recordings") {
			t.Errorf("local path = %q", c.Storage.LocalPath)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := testutil.CreateTempConfigFile(t, "[backend\nurl=")
		if _, err := LoadFile(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	c := createTestConfig()
	c.Coach.Provider = "groq"
	c.Coach.APIKey = "gsk"
	c.Storage.Kind = "s3"
	c.Storage.S3.Bucket = "pitches"
	c.Notifications.Messages.FeedbackReady.Body = "Report done"

	if err := Save(path, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("saved config invalid: %v", err)
	}
	if got.Coach.Provider != "groq" || got.Storage.S3.Bucket != "pitches" {
		t.Errorf("round trip lost values: coach=%+v storage=%+v", got.Coach, got.Storage)
	}
	if got.Deepgram.FinalizeTimeout != c.Deepgram.FinalizeTimeout {
		t.Errorf("finalize timeout = %v, want %v", got.Deepgram.FinalizeTimeout, c.Deepgram.FinalizeTimeout)
	}
	if got.Notifications.Messages.FeedbackReady.Body != "Report done" {
		t.Errorf("message override lost")
	}
}

func TestGetConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath: %v", err)
	}
	if path != filepath.Join(dir, "podium", "config.toml") {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("config dir not created: %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv(EnvDeepgramKey)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DEEPGRAM_API_KEY=from-dotenv\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvDeepgramKey) })

	LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))
	if got := os.Getenv(EnvDeepgramKey); got != "from-dotenv" {
		t.Errorf("DEEPGRAM_API_KEY = %q", got)
	}
}

func TestMessagesResolve(t *testing.T) {
	m := MessagesConfig{
		RehearsalStarted: MessageConfig{Title: "Go time"},
		ConnectionLost:   MessageConfig{Body: "Room dropped"},
	}
	got := m.Resolve()

	if len(got) != len(notify.MessageDefs) {
		t.Fatalf("resolved %d messages, want %d", len(got), len(notify.MessageDefs))
	}
	if got[notify.MsgRehearsalStarted].Title != "Go time" {
		t.Errorf("title override lost: %+v", got[notify.MsgRehearsalStarted])
	}
	if got[notify.MsgRehearsalStarted].Body == "" {
		t.Error("body should fall back to default")
	}
	if got[notify.MsgConnectionLost].Body != "Room dropped" || !got[notify.MsgConnectionLost].IsError {
		t.Errorf("connection lost = %+v", got[notify.MsgConnectionLost])
	}
}

func TestManager_Reload(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	c := createTestConfig()
	if err := Save(path, c); err != nil {
		t.Fatal(err)
	}

	m, err := NewManagerForPath(path)
	if err != nil {
		t.Fatalf("NewManagerForPath: %v", err)
	}
	reloaded := make(chan *Config, 4)
	m.OnReload(func(c *Config) { reloaded <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := m.StartWatching(ctx); err != nil {
		t.Fatalf("StartWatching: %v", err)
	}
	defer m.Stop()

	// An invalid edit is ignored.
	bad := createTestConfig()
	bad.Storage.Kind = "gcs"
	if err := Save(path, bad); err != nil {
		t.Fatal(err)
	}

	c.Rehearsal.Topic = "updated"
	if err := Save(path, c); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-reloaded:
		if got.Rehearsal.Topic != "updated" {
			t.Fatalf("reloaded topic = %q", got.Rehearsal.Topic)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
	if m.GetConfig().Storage.Kind == "gcs" {
		t.Error("invalid config must not be applied")
	}
	if m.GetConfig().Rehearsal.Topic != "updated" {
		t.Errorf("GetConfig topic = %q", m.GetConfig().Rehearsal.Topic)
	}
}
