package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/notify"
)

func TestParseReportReply(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		room    string
		wantErr string
	}{
		{"report", "REPORT {\"roomId\":\"r1\",\"transcript\":\"hi\"}\n", "r1", ""},
		{"no report", "ERR no_report\n", "", "no_report"},
		{"last run failed", "ERR last_run: rehearsal aborted\n", "", "last_run: rehearsal aborted"},
		{"garbage", "STATUS proto=1\n", "", `unexpected reply: "STATUS proto=1"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, data, err := parseReportReply(tt.resp)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.RoomID != tt.room || len(data) == 0 {
				t.Errorf("res = %+v, data = %q", res, data)
			}
		})
	}
}

func TestPipelineConfig_FlagsOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rehearsal.Topic = "Seed round"

	pc := pipelineConfig(cfg, rehearsalFlags{})
	if pc.Room.Category != "startup" || pc.Room.Topic != "Seed round" || pc.MaxDuration != 2*time.Minute {
		t.Errorf("defaults = %+v", pc)
	}
	if !pc.UploadFeedback {
		t.Error("upload should follow config")
	}

	pc = pipelineConfig(cfg, rehearsalFlags{
		roomID:      "existing",
		category:    "conference",
		minutes:     5,
		goalSeconds: 240,
		noUpload:    true,
	})
	if pc.RoomID != "existing" || pc.Room.Category != "conference" || pc.MaxDuration != 5*time.Minute {
		t.Errorf("overrides = %+v", pc)
	}
	if pc.GoalSeconds != 240 || pc.UploadFeedback {
		t.Errorf("goal/upload = %d/%v", pc.GoalSeconds, pc.UploadFeedback)
	}
	if cfg.Rehearsal.Category != "startup" {
		t.Error("flags must not mutate the loaded config")
	}
}

func TestBuildExporter(t *testing.T) {
	cfg := config.DefaultConfig()

	cfg.Storage.Kind = "none"
	if e, err := buildExporter(context.Background(), cfg); err != nil || e != nil {
		t.Errorf("none = %v, %v", e, err)
	}

	cfg.Storage.Kind = "local"
	cfg.Storage.LocalPath = filepath.Join(t.TempDir(), "recordings")
	e, err := buildExporter(context.Background(), cfg)
	if err != nil || e == nil {
		t.Fatalf("local = %v, %v", e, err)
	}
}

func TestBuildNotifier(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notifications.Enabled = false
	if _, ok := buildNotifier(cfg).(notify.Nop); !ok {
		t.Error("disabled notifications should be Nop")
	}

	cfg.Notifications.Enabled = true
	cfg.Notifications.Type = "log"
	if _, ok := buildNotifier(cfg).(*notify.Log); !ok {
		t.Error("log type should give *notify.Log")
	}
}

func TestBuildPipeline_InvalidConfig(t *testing.T) {
	t.Setenv(config.EnvDeepgramKey, "")
	cfg := config.DefaultConfig()
	cfg.Deepgram.APIKey = ""
	if _, err := buildPipeline(context.Background(), cfg, rehearsalFlags{}, notify.Nop{}, nil); err == nil {
		t.Error("expected validation error without a Deepgram key")
	}
}
