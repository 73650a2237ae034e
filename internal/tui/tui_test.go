package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/pipeline"
	"github.com/podiumhq/podium/internal/roster"
	"github.com/podiumhq/podium/internal/speech"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestMaskKey(t *testing.T) {
	if got := maskKey(""); got != "(not set)" {
		t.Errorf("empty = %q", got)
	}
	if got := maskKey("abc"); got != "****" {
		t.Errorf("short = %q", got)
	}
	if got := maskKey("dg-secret-1234"); got != "********1234" {
		t.Errorf("long = %q", got)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" podium, ,pitch deck ,Deepgram")
	want := []string{"podium", "pitch deck", "Deepgram"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("splitList = %q, want %q", got, want)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}

func TestValidators(t *testing.T) {
	v := validateInt(1000)
	if v("1000") != nil || v(" 1500 ") != nil {
		t.Error("valid ints rejected")
	}
	if v("999") == nil || v("abc") == nil {
		t.Error("invalid ints accepted")
	}
	if validateDuration("3s") != nil || validateDuration("1.5s") != nil {
		t.Error("valid durations rejected")
	}
	if validateDuration("3") == nil {
		t.Error("unitless duration accepted")
	}
}

func TestMessageField_CoversEveryDefinition(t *testing.T) {
	cfg := config.DefaultConfig()
	for _, def := range notify.MessageDefs {
		slot := messageField(cfg, def.ConfigKey)
		if slot == nil {
			t.Fatalf("no config slot for %s", def.ConfigKey)
		}
		slot.Body = "custom " + def.ConfigKey
	}
	resolved := cfg.Notifications.Messages.Resolve()
	for _, def := range notify.MessageDefs {
		if got := resolved[def.Type].Body; got != "custom "+def.ConfigKey {
			t.Errorf("%s resolved body = %q", def.ConfigKey, got)
		}
	}
	if messageField(cfg, "nope") != nil {
		t.Error("unknown key should have no slot")
	}
}

func TestSummaryLines(t *testing.T) {
	t.Setenv(config.EnvBackendURL, "")
	cfg := config.DefaultConfig()
	cfg.Deepgram.APIKey = "dg-secret-1234"
	cfg.Deepgram.Keywords = []string{"podium"}
	cfg.Coach.Provider = "groq"
	cfg.Coach.Model = "llama"
	cfg.Storage.Kind = "s3"
	cfg.Storage.S3.Bucket = "talks"
	cfg.Recording.File = "pitch.wav"

	got := map[string]string{}
	for _, l := range summaryLines(cfg) {
		got[l[0]] = l[1]
	}

	checks := map[string]string{
		"Backend:":    config.DefaultBackendURL,
		"Keywords:":   "podium",
		"Microphone:": "file pitch.wav",
		"Coach:":      "groq (llama)",
		"Recordings:": "s3://talks/podium",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %q, want %q", k, got[k], want)
		}
	}
	if strings.Contains(got["Deepgram:"], "secret") {
		t.Errorf("Deepgram line leaks key: %q", got["Deepgram:"])
	}
}

func asciiView() (*View, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewView(&buf, termenv.WithProfile(termenv.Ascii)), &buf
}

func TestView_Report(t *testing.T) {
	v, buf := asciiView()
	res := &pipeline.Result{
		RoomID:     "room-1",
		Transcript: "We are building podium.",
		Duration:   95 * time.Second,
		Report: speech.Analyze(speech.Input{
			Transcript:   "um we are building podium",
			DurationSecs: 95,
			GoalSecs:     120,
		}),
		Bots:          []audience.Bot{{ID: "b1", Name: "Ada"}, {ID: "b2"}},
		CoachFeedback: json.RawMessage(`{"score":9}`),
		RecordingKey:  "podium/room-1/pitch.wav",
	}
	v.Report(res)
	out := buf.String()

	for _, want := range []string{
		"Rehearsal Report",
		"room-1",
		"1m35s",
		"of 2:00",
		"Filler words",
		"1 of 5",
		"Ada, b2",
		`"score": 9`,
		"podium/room-1/pitch.wav",
		"We are building podium.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("ascii profile output contains escape codes")
	}
}

func TestView_ReportNil(t *testing.T) {
	v, buf := asciiView()
	v.Report(nil)
	if !strings.Contains(buf.String(), "No report") {
		t.Errorf("nil report output = %q", buf.String())
	}
}

func TestView_ChunkMarks(t *testing.T) {
	tests := []struct {
		chunk speech.Chunk
		want  string
	}{
		{speech.Chunk{Text: "Hello there."}, "› Hello there.\n"},
		{speech.Chunk{Text: "Any questions?", Question: true}, "? Any questions?\n"},
		{speech.Chunk{Text: "Thanks!", Exclaim: true}, "! Thanks!\n"},
	}
	for _, tt := range tests {
		t.Run(tt.chunk.Text, func(t *testing.T) {
			v, buf := asciiView()
			v.Chunk(tt.chunk)
			if buf.String() != tt.want {
				t.Errorf("Chunk = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestView_Reactions(t *testing.T) {
	v, buf := asciiView()
	v.Reactions([]roster.Bubble{
		{BotID: "b1", Reaction: audience.Reaction{EmojiUnicode: "🔥", MicroPhrase: "bold claim"}, Emotion: audience.EmotionExcited},
		{BotID: "ghost", Reaction: audience.Reaction{MicroPhrase: "hmm"}, Emotion: audience.EmotionSkeptical},
	}, []audience.Bot{{ID: "b1", Name: "Ada"}})

	out := buf.String()
	if !strings.Contains(out, "Ada 🔥 bold claim (excited)") {
		t.Errorf("named bubble missing:\n%s", out)
	}
	if !strings.Contains(out, "ghost hmm (skeptical)") {
		t.Errorf("unknown bot bubble missing:\n%s", out)
	}
}

func TestLogo(t *testing.T) {
	got := Logo()
	for _, line := range logoLines {
		if !strings.Contains(got, strings.TrimRight(line, " ")) {
			t.Errorf("Logo() missing line %q", line)
		}
	}
}
