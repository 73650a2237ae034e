// Package metrics exposes Prometheus counters for a rehearsal session.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "podium"

type Metrics struct {
	// Audio
	FramesCaptured prometheus.Counter
	FramesSent     prometheus.Counter
	FramesDropped  *prometheus.CounterVec

	// Transcription
	TranscriptsInterim prometheus.Counter
	TranscriptsFinal   prometheus.Counter
	SpeechBoundaries   *prometheus.CounterVec

	// WebSocket channels
	ChannelConnects   *prometheus.CounterVec
	MessagesReceived  *prometheus.CounterVec
	MessagesMalformed *prometheus.CounterVec
	MessagesSent      *prometheus.CounterVec
	SendsSkipped      *prometheus.CounterVec
	HandlerPanics     *prometheus.CounterVec

	// Room
	RoomEvents     *prometheus.CounterVec
	AudienceSize   prometheus.Gauge
	SessionsActive prometheus.Gauge
}

// Default is registered against the process-wide Prometheus registry.
var Default = New(prometheus.DefaultRegisterer)

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesCaptured: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_captured_total",
			Help:      "Audio frames read from the capture source",
		}),
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_sent_total",
			Help:      "Audio frames forwarded to the speech provider",
		}),
		FramesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_frames_dropped_total",
			Help:      "Audio frames dropped before reaching the speech provider",
		}, []string{"reason"}),

		TranscriptsInterim: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_interim_total",
			Help:      "Interim transcripts received",
		}),
		TranscriptsFinal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_final_total",
			Help:      "Final transcripts emitted, one per utterance",
		}),
		SpeechBoundaries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_boundaries_total",
			Help:      "Speech-started and utterance-end events",
		}, []string{"kind"}),

		ChannelConnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_connects_total",
			Help:      "WebSocket connection attempts by channel and result",
		}, []string{"channel", "result"}),
		MessagesReceived: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_received_total",
			Help:      "Inbound JSON messages delivered to subscribers",
		}, []string{"channel"}),
		MessagesMalformed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_malformed_total",
			Help:      "Inbound messages dropped because they were not valid JSON",
		}, []string{"channel"}),
		MessagesSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_sent_total",
			Help:      "Outbound JSON messages written",
		}, []string{"channel"}),
		SendsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_sends_skipped_total",
			Help:      "Outbound messages skipped because the channel was not connected",
		}, []string{"channel"}),
		HandlerPanics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_handler_panics_total",
			Help:      "Subscriber panics recovered during delivery",
		}, []string{"channel"}),

		RoomEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_events_total",
			Help:      "Decoded room events by type",
		}, []string{"event"}),
		AudienceSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audience_size",
			Help:      "Bots currently in the local roster",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Rehearsal sessions in progress",
		}),
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("component", "metrics").Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
