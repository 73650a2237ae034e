package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/podiumhq/podium/internal/audience"
	"github.com/podiumhq/podium/internal/pipeline"
	"github.com/podiumhq/podium/internal/roster"
	"github.com/podiumhq/podium/internal/speech"
)

// View renders rehearsal output to one writer. Styles are bound to the
// writer's color profile so piped output stays free of escape codes.
type View struct {
	w io.Writer

	header  lipgloss.Style
	label   lipgloss.Style
	good    lipgloss.Style
	warn    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	wrapped lipgloss.Style
}

// NewView detects the color profile from w unless opts override it.
func NewView(w io.Writer, opts ...termenv.OutputOption) *View {
	r := lipgloss.NewRenderer(w, opts...)
	return &View{
		w:       w,
		header:  r.NewStyle().Bold(true).Foreground(ColorPrimary),
		label:   r.NewStyle().Bold(true).Foreground(ColorText),
		good:    r.NewStyle().Foreground(ColorSuccess),
		warn:    r.NewStyle().Foreground(ColorWarning),
		bad:     r.NewStyle().Foreground(ColorError).Bold(true),
		muted:   r.NewStyle().Foreground(ColorMuted),
		accent:  r.NewStyle().Foreground(ColorSecondary),
		wrapped: r.NewStyle().Width(76).PaddingLeft(2),
	}
}

func (v *View) severity(s speech.Severity) lipgloss.Style {
	switch s {
	case speech.SeverityGood:
		return v.good
	case speech.SeverityWarn:
		return v.warn
	default:
		return v.bad
	}
}

func (v *View) pace(s speech.PaceStatus) lipgloss.Style {
	switch s {
	case speech.PaceOptimal:
		return v.good
	case speech.PaceSlightlySlow, speech.PaceSlightlyFast:
		return v.warn
	default:
		return v.bad
	}
}

func (v *View) row(label, value string) {
	fmt.Fprintf(v.w, "  %s %s\n", v.label.Render(fmt.Sprintf("%-14s", label)), value)
}

func (v *View) list(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintln(v.w)
	fmt.Fprintln(v.w, v.header.Render(title))
	for _, it := range items {
		fmt.Fprintf(v.w, "  • %s\n", it)
	}
}

// Report prints the end-of-rehearsal summary.
func (v *View) Report(res *pipeline.Result) {
	if res == nil {
		fmt.Fprintln(v.w, v.muted.Render("No report available."))
		return
	}
	rep := res.Report

	fmt.Fprintln(v.w, v.header.Render("Rehearsal Report"))
	v.row("Room", res.RoomID)
	v.row("Recorded", res.Duration.Round(time.Second).String())
	fmt.Fprintln(v.w)

	d := rep.DurationVsGoal
	length := d.ActualFormatted
	if d.GoalSeconds > 0 {
		dev := v.good
		if abs(d.DeviationSeconds) > d.GoalSeconds/10 {
			dev = v.warn
		}
		length = fmt.Sprintf("%s of %s %s", d.ActualFormatted, d.GoalFormatted,
			dev.Render(fmt.Sprintf("(%+ds)", d.DeviationSeconds)))
	}
	v.row("Length", length)

	sr := rep.SpeechRate
	v.row("Pace", fmt.Sprintf("%d wpm %s %s", sr.AvgWPM,
		v.muted.Render(fmt.Sprintf("[%d-%d, aim %d-%d]", sr.MinWPM, sr.MaxWPM, sr.OptimalRange.Min, sr.OptimalRange.Max)),
		v.pace(sr.Status).Render(strings.ReplaceAll(string(sr.Status), "_", " "))))

	fw := rep.FillerWords
	v.row("Filler words", v.severity(fw.Severity).Render(
		fmt.Sprintf("%d of %d (%.1f%%)", fw.FillerCount, fw.TotalWords, fw.FillerPercent)))
	v.row("Long pauses", fmt.Sprintf("%.0f%%", rep.LongPauseRatio*100))

	v.list("Upsides", rep.Upsides)
	v.list("Shortcomings", rep.Shortcomings)
	if len(rep.Topics) > 0 {
		fmt.Fprintln(v.w)
		v.row("Topics", v.accent.Render(strings.Join(rep.Topics, ", ")))
	}

	if len(res.Bots) > 0 {
		fmt.Fprintln(v.w)
		names := make([]string, 0, len(res.Bots))
		for _, b := range res.Bots {
			names = append(names, botName(b))
		}
		v.row("Audience", strings.Join(names, ", "))
	}

	if res.Feedback != nil && res.Feedback.Status != "" {
		v.row("Feedback", res.Feedback.Status)
	}
	if len(res.CoachFeedback) > 0 {
		fmt.Fprintln(v.w)
		fmt.Fprintln(v.w, v.header.Render("Backend Feedback"))
		var buf bytes.Buffer
		if err := json.Indent(&buf, res.CoachFeedback, "  ", "  "); err == nil {
			fmt.Fprintf(v.w, "  %s\n", buf.String())
		} else {
			fmt.Fprintf(v.w, "  %s\n", res.CoachFeedback)
		}
	}

	if res.RecordingKey != "" {
		fmt.Fprintln(v.w)
		v.row("Recording", res.RecordingKey)
		if res.RecordingURL != "" {
			v.row("", v.muted.Render(res.RecordingURL))
		}
	}

	if res.Transcript != "" {
		fmt.Fprintln(v.w)
		fmt.Fprintln(v.w, v.header.Render("Transcript"))
		fmt.Fprintln(v.w, v.wrapped.Render(res.Transcript))
	}
}

// Chunk prints one buffered piece of speech as it is released.
func (v *View) Chunk(c speech.Chunk) {
	mark := v.muted.Render("›")
	switch {
	case c.Question:
		mark = v.accent.Render("?")
	case c.Exclaim:
		mark = v.warn.Render("!")
	}
	fmt.Fprintf(v.w, "%s %s\n", mark, c.Text)
}

// Reactions prints the live bubbles next to their bot names.
func (v *View) Reactions(bubbles []roster.Bubble, bots []audience.Bot) {
	byID := make(map[string]audience.Bot, len(bots))
	for _, b := range bots {
		byID[b.ID] = b
	}
	for _, bb := range bubbles {
		name := bb.BotID
		if b, ok := byID[bb.BotID]; ok {
			name = botName(b)
		}
		line := strings.TrimSpace(bb.Reaction.EmojiUnicode + " " + bb.Reaction.MicroPhrase)
		fmt.Fprintf(v.w, "  %s %s %s\n", v.label.Render(name), line, v.muted.Render("("+string(bb.Emotion)+")"))
	}
}

// Interim overwrites the current line with a partial transcript.
func (v *View) Interim(text string) {
	fmt.Fprintf(v.w, "\r\033[K%s", v.muted.Render(truncate(text, 76)))
}

func botName(b audience.Bot) string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
