package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_IndependentRegistries(t *testing.T) {
	m1 := New(prometheus.NewRegistry())
	m2 := New(prometheus.NewRegistry())

	m1.FramesDropped.WithLabelValues("not_open").Inc()
	m1.FramesDropped.WithLabelValues("not_open").Inc()

	if got := testutil.ToFloat64(m1.FramesDropped.WithLabelValues("not_open")); got != 2 {
		t.Errorf("m1 dropped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m2.FramesDropped.WithLabelValues("not_open")); got != 0 {
		t.Errorf("m2 dropped = %v, want 0", got)
	}
}

func TestNew_MetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.TranscriptsFinal.Inc()
	m.MessagesMalformed.WithLabelValues("room").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := map[string]bool{
		"podium_transcripts_final_total":     false,
		"podium_ws_messages_malformed_total": false,
	}
	for _, f := range families {
		if _, ok := want[f.GetName()]; ok {
			want[f.GetName()] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("metric %s not gathered", name)
		}
	}
}
