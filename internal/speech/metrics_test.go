package speech

import (
	"math"
	"testing"
)

const sampleText = "Um thanks everyone for coming today. I want to, like, share a quick update..."

func TestCountFillers_Sample(t *testing.T) {
	fillers, total := CountFillers(sampleText)
	if total != 14 {
		t.Errorf("total = %d, want 14", total)
	}
	if fillers != 2 {
		t.Errorf("fillers = %d, want 2", fillers)
	}
	if got := FillerPercent(fillers, total); got != 14.3 {
		t.Errorf("FillerPercent = %v, want 14.3", got)
	}

	for i := 0; i < 5; i++ {
		f, n := CountFillers(sampleText)
		if f != fillers || n != total {
			t.Fatalf("run %d: got (%d,%d), want (%d,%d)", i, f, n, fillers, total)
		}
	}
}

func TestCountFillers(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantFillers int
		wantTotal   int
	}{
		{"empty", "", 0, 0},
		{"whitespace", "   \n\t ", 0, 0},
		{"no fillers", "We shipped the release on time.", 0, 6},
		{"punctuation and case", "UH, so... Hmm. erm!", 3, 4},
		{"you know counts once", "it was, you know, fine", 1, 5},
		{"you without know", "you did it", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, n := CountFillers(tt.text)
			if f != tt.wantFillers || n != tt.wantTotal {
				t.Errorf("CountFillers(%q) = (%d, %d), want (%d, %d)", tt.text, f, n, tt.wantFillers, tt.wantTotal)
			}
		})
	}
}

func TestFillerSeverity(t *testing.T) {
	tests := []struct {
		percent float64
		want    Severity
	}{
		{0, SeverityGood},
		{14.9, SeverityGood},
		{15, SeverityWarn},
		{24.9, SeverityWarn},
		{25, SeverityBad},
	}
	for _, tt := range tests {
		if got := FillerSeverity(tt.percent); got != tt.want {
			t.Errorf("FillerSeverity(%v) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}

func TestPace(t *testing.T) {
	tests := []struct {
		wpm  int
		want PaceStatus
	}{
		{0, PaceSlow},
		{109, PaceSlow},
		{110, PaceSlightlySlow},
		{129, PaceSlightlySlow},
		{130, PaceOptimal},
		{170, PaceOptimal},
		{171, PaceSlightlyFast},
		{190, PaceSlightlyFast},
		{191, PaceFast},
	}
	for _, tt := range tests {
		if got := Pace(tt.wpm); got != tt.want {
			t.Errorf("Pace(%d) = %s, want %s", tt.wpm, got, tt.want)
		}
	}
}

func TestWPM(t *testing.T) {
	if got := WPM(150, 60); got != 150 {
		t.Errorf("WPM(150, 60) = %d, want 150", got)
	}
	if got := WPM(10, 0); got != 0 {
		t.Errorf("WPM with zero duration = %d, want 0", got)
	}
}

func evenWords(n int, spacing, length float64) []Word {
	words := make([]Word, n)
	for i := range words {
		start := float64(i) * spacing
		words[i] = Word{Text: "w", Start: start, End: start + length}
	}
	return words
}

func TestLongPauseRatio(t *testing.T) {
	tests := []struct {
		name  string
		words []Word
		want  float64
	}{
		{"no words", nil, 0},
		{"single word", []Word{{Start: 0, End: 0.5}}, 0},
		{"no long gaps", evenWords(5, 0.5, 0.4), 0},
		{"all long gaps", evenWords(5, 1.0, 0.4), 1},
		{
			"one of two",
			[]Word{{Start: 0, End: 0.4}, {Start: 0.5, End: 0.9}, {Start: 1.5, End: 2}},
			0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LongPauseRatio(tt.words, LongPauseThreshold)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LongPauseRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMinMaxWPM(t *testing.T) {
	t.Run("uniform rate", func(t *testing.T) {
		// two words per second for 50 seconds
		words := evenWords(100, 0.5, 0.3)
		minW, maxW := MinMaxWPM(words, 10)
		if minW != 120 || maxW != 120 {
			t.Errorf("MinMaxWPM() = (%d, %d), want (120, 120)", minW, maxW)
		}
	})

	t.Run("short speech uses whole span", func(t *testing.T) {
		words := evenWords(10, 0.5, 0.5)
		minW, maxW := MinMaxWPM(words, 10)
		if minW != maxW || minW != WPM(10, 5) {
			t.Errorf("MinMaxWPM() = (%d, %d), want both %d", minW, maxW, WPM(10, 5))
		}
	})

	t.Run("empty", func(t *testing.T) {
		if minW, maxW := MinMaxWPM(nil, 10); minW != 0 || maxW != 0 {
			t.Errorf("MinMaxWPM(nil) = (%d, %d)", minW, maxW)
		}
	})
}

func TestFormatClock(t *testing.T) {
	tests := map[int]string{
		0:   "0:00",
		59:  "0:59",
		60:  "1:00",
		125: "2:05",
		-15: "-0:15",
	}
	for in, want := range tests {
		if got := FormatClock(in); got != want {
			t.Errorf("FormatClock(%d) = %q, want %q", in, got, want)
		}
	}
}
