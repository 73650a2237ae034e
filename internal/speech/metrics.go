// Package speech computes delivery metrics for a rehearsed pitch.
package speech

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

const (
	DefaultGoalSeconds   = 120
	OptimalMinWPM        = 130
	OptimalMaxWPM        = 170
	LongPauseThreshold   = 0.3
	DefaultWPMWindowSecs = 10.0
)

// Word is a recognised word with provider timings in seconds.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

var fillerWords = map[string]bool{
	"um": true, "umm": true, "uh": true, "uhh": true, "uhm": true,
	"er": true, "erm": true, "ah": true, "hmm": true, "like": true,
}

var fillerPhrases = [][2]string{
	{"you", "know"},
}

// Words splits text on whitespace.
func Words(text string) []string {
	return strings.Fields(text)
}

func normalize(tok string) string {
	return strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))
}

// CountFillers returns the number of filler tokens and the total word count.
// A two-word filler phrase counts once.
func CountFillers(text string) (fillers, total int) {
	toks := Words(text)
	total = len(toks)
	norm := make([]string, len(toks))
	for i, t := range toks {
		norm[i] = normalize(t)
	}
	for i := 0; i < len(norm); i++ {
		if fillerWords[norm[i]] {
			fillers++
			continue
		}
		if i+1 < len(norm) {
			for _, p := range fillerPhrases {
				if norm[i] == p[0] && norm[i+1] == p[1] {
					fillers++
					i++
					break
				}
			}
		}
	}
	return fillers, total
}

// FillerPercent rounds to one decimal place.
func FillerPercent(fillers, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(fillers) / float64(total) * 100)
}

type Severity string

const (
	SeverityGood Severity = "good"
	SeverityWarn Severity = "warn"
	SeverityBad  Severity = "bad"
)

// FillerSeverity grades a filler percentage.
func FillerSeverity(percent float64) Severity {
	switch {
	case percent < 15:
		return SeverityGood
	case percent < 25:
		return SeverityWarn
	default:
		return SeverityBad
	}
}

// WPM is words per minute over durationSecs, rounded.
func WPM(words int, durationSecs float64) int {
	if words == 0 || durationSecs <= 0 {
		return 0
	}
	return int(math.Round(float64(words) / (durationSecs / 60)))
}

// MinMaxWPM slides a fixed window across word start times and reports the
// slowest and fastest local rates. Windows shorter than the full window at
// the tail are ignored unless the whole speech fits in one window.
func MinMaxWPM(words []Word, windowSecs float64) (minWPM, maxWPM int) {
	if len(words) == 0 || windowSecs <= 0 {
		return 0, 0
	}
	first := words[0].Start
	last := words[len(words)-1].End
	if last-first <= windowSecs {
		w := WPM(len(words), last-first)
		return w, w
	}

	minWPM, maxWPM = math.MaxInt, 0
	j := 0
	for i := range words {
		start := words[i].Start
		if start+windowSecs > last {
			break
		}
		if j < i {
			j = i
		}
		for j < len(words) && words[j].Start < start+windowSecs {
			j++
		}
		w := WPM(j-i, windowSecs)
		minWPM = min(minWPM, w)
		maxWPM = max(maxWPM, w)
	}
	if minWPM == math.MaxInt {
		minWPM = 0
	}
	return minWPM, maxWPM
}

// LongPauseRatio is the share of inter-word gaps longer than threshold.
func LongPauseRatio(words []Word, threshold float64) float64 {
	if len(words) < 2 {
		return 0
	}
	long := 0
	gaps := len(words) - 1
	for i := 0; i < gaps; i++ {
		if words[i+1].Start-words[i].End > threshold {
			long++
		}
	}
	return float64(long) / float64(gaps)
}

type PaceStatus string

const (
	PaceSlow         PaceStatus = "slow"
	PaceSlightlySlow PaceStatus = "slightly_slow"
	PaceOptimal      PaceStatus = "optimal"
	PaceSlightlyFast PaceStatus = "slightly_fast"
	PaceFast         PaceStatus = "fast"
)

func Pace(avgWPM int) PaceStatus {
	switch {
	case avgWPM < OptimalMinWPM-20:
		return PaceSlow
	case avgWPM < OptimalMinWPM:
		return PaceSlightlySlow
	case avgWPM <= OptimalMaxWPM:
		return PaceOptimal
	case avgWPM <= OptimalMaxWPM+20:
		return PaceSlightlyFast
	default:
		return PaceFast
	}
}

// FormatClock renders seconds as m:ss.
func FormatClock(secs int) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%d:%02d", sign, secs/60, secs%60)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
