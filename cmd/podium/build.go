package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/podiumhq/podium/internal/api"
	"github.com/podiumhq/podium/internal/coach"
	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/pipeline"
	"github.com/podiumhq/podium/internal/recording"
	"github.com/podiumhq/podium/internal/relay"
	"github.com/podiumhq/podium/internal/room"
	"github.com/podiumhq/podium/internal/speech"
	"github.com/podiumhq/podium/internal/storage"
)

// rehearsalFlags override the [rehearsal] config for one run.
type rehearsalFlags struct {
	roomID       string
	category     string
	topic        string
	minutes      int
	goalSeconds  int
	file         string
	noUpload     bool
	feedbackWait time.Duration
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.Notifications.Enabled {
		return notify.Nop{}
	}
	return notify.New(cfg.Notifications.Type, cfg.Notifications.Messages.Resolve())
}

func buildAPI(cfg *config.Config) *api.Client {
	timeout := cfg.Backend.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return api.NewClient(cfg.BackendURL(), api.WithHTTPClient(&http.Client{Timeout: timeout}))
}

// buildExporter returns nil when recordings are not kept.
func buildExporter(ctx context.Context, cfg *config.Config) (*storage.Exporter, error) {
	switch cfg.Storage.Kind {
	case "local":
		store, err := storage.NewLocalStorage(cfg.Storage.LocalPath)
		if err != nil {
			return nil, err
		}
		return storage.NewExporter(store, cfg.Storage.Prefix), nil
	case "s3":
		store, err := storage.NewS3Storage(ctx, cfg.Storage.S3)
		if err != nil {
			return nil, err
		}
		return storage.NewExporter(store, cfg.Storage.Prefix), nil
	default:
		return nil, nil
	}
}

func pipelineConfig(cfg *config.Config, f rehearsalFlags) pipeline.Config {
	r := cfg.Rehearsal
	if f.category != "" {
		r.Category = f.category
	}
	if f.topic != "" {
		r.Topic = f.topic
	}
	if f.minutes > 0 {
		r.DurationMinutes = f.minutes
	}
	if f.goalSeconds > 0 {
		r.GoalSeconds = f.goalSeconds
	}

	return pipeline.Config{
		RoomID: f.roomID,
		Room: api.CreateRoomRequest{
			Name:            strings.TrimSpace(r.Topic),
			Category:        r.Category,
			Topic:           r.Topic,
			DurationMinutes: r.DurationMinutes,
		},
		MaxDuration:    time.Duration(r.DurationMinutes) * time.Minute,
		GoalSeconds:    r.GoalSeconds,
		ChunkInterval:  r.ChunkInterval,
		UploadFeedback: r.UploadFeedback && !f.noUpload,
		FeedbackWait:   f.feedbackWait,
	}
}

// buildPipeline wires one rehearsal from the current configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, f rehearsalFlags, n notify.Notifier, onChunk func(speech.Chunk)) (pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	recOpts := []recording.Option{}
	file := cfg.Recording.File
	if f.file != "" {
		file = f.file
	}
	if file != "" {
		recOpts = append(recOpts, recording.WithSource(recording.FileSource{Path: file, Realtime: true}))
	}
	rec := recording.NewRecorder(cfg.ToRecordingConfig(), recOpts...)

	refiner, err := coach.NewRefiner(cfg.ToCoachConfig())
	if err != nil {
		return nil, err
	}

	exporter, err := buildExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("recording storage: %w", err)
	}

	base := cfg.BackendURL()
	return pipeline.New(pipelineConfig(cfg, f), pipeline.Deps{
		API:         buildAPI(cfg),
		Room:        room.NewClient(base),
		Relay:       relay.NewClient(base),
		Recorder:    rec,
		Transcriber: cfg.ToTranscriberConfig(),
		Coach:       coach.New(refiner, cfg.ToCoachConfig().Timeout),
		Exporter:    exporter,
		Notifier:    n,
		Metrics:     metrics.Default,
		OnChunk:     onChunk,
	}), nil
}
