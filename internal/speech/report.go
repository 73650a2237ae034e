package speech

import "math"

const (
	defaultUpside      = "Strong, engaging delivery throughout your speech."
	defaultShortcoming = "Continue practising to enhance vocal variety and emphasis."
)

// Input is everything the report is computed from. Words is optional; when
// empty, rates fall back to the transcript length over DurationSecs.
type Input struct {
	Transcript   string
	Words        []Word
	DurationSecs float64
	GoalSecs     int
}

type FillerStats struct {
	TotalWords    int      `json:"totalWords"`
	FillerCount   int      `json:"fillerCount"`
	FillerPercent float64  `json:"fillerPercent"`
	Severity      Severity `json:"severity"`
}

type DurationStats struct {
	ActualSeconds    int    `json:"actualSeconds"`
	GoalSeconds      int    `json:"goalSeconds"`
	DeviationSeconds int    `json:"deviationSeconds"`
	ActualFormatted  string `json:"actualFormatted"`
	GoalFormatted    string `json:"goalFormatted"`
}

type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type RateStats struct {
	AvgWPM       int        `json:"avgWpm"`
	MinWPM       int        `json:"minWpm"`
	MaxWPM       int        `json:"maxWpm"`
	OptimalRange Range      `json:"optimalRange"`
	Status       PaceStatus `json:"status"`
}

// Report mirrors the feedback payload the backend returns for a session.
type Report struct {
	FillerWords    FillerStats   `json:"fillerWords"`
	DurationVsGoal DurationStats `json:"durationVsGoal"`
	SpeechRate     RateStats     `json:"speechRate"`
	LongPauseRatio float64       `json:"longPauseRatio"`
	Upsides        []string      `json:"upsides"`
	Shortcomings   []string      `json:"shortcomings"`
	Topics         []string      `json:"topics"`
}

// Analyze computes the deterministic part of the report.
func Analyze(in Input) Report {
	fillers, total := CountFillers(in.Transcript)
	if total == 0 && len(in.Words) > 0 {
		total = len(in.Words)
	}
	percent := FillerPercent(fillers, total)

	duration := in.DurationSecs
	if duration <= 0 && len(in.Words) > 0 {
		duration = in.Words[len(in.Words)-1].End - in.Words[0].Start
	}

	goal := in.GoalSecs
	if goal <= 0 {
		goal = DefaultGoalSeconds
	}
	actual := int(duration)
	deviation := actual - goal

	var minW, maxW int
	if len(in.Words) > 0 {
		minW, maxW = MinMaxWPM(in.Words, DefaultWPMWindowSecs)
	}
	avg := WPM(total, duration)
	if avg == 0 && (minW > 0 || maxW > 0) {
		avg = int(math.Round(float64(minW+maxW) / 2))
	}
	if minW == 0 && maxW == 0 {
		minW, maxW = avg, avg
	}
	status := Pace(avg)

	var upsides, shortcomings []string
	if percent < 1 {
		upsides = append(upsides, "Excellent control over filler words; you sound polished and confident.")
	} else {
		shortcomings = append(shortcomings, "Aim to further reduce filler words like 'um', 'uh', and 'like' for a smoother delivery.")
	}

	switch status {
	case PaceOptimal:
		upsides = append(upsides, "Great pacing; your speech rate is within the ideal range, making it easy to follow.")
	case PaceSlightlySlow, PaceSlightlyFast:
		shortcomings = append(shortcomings, "Your pacing is close to optimal; a small adjustment will make it perfect.")
	default:
		shortcomings = append(shortcomings, "Work on your pacing; try to keep within the 130-170 WPM range for clarity.")
	}

	switch {
	case abs(deviation) < 10:
		upsides = append(upsides, "You met your time goal with well-planned content.")
	case deviation > 0:
		shortcomings = append(shortcomings, "Consider trimming content to finish closer to the time goal.")
	default:
		shortcomings = append(shortcomings, "You finished well under the goal; you could elaborate a bit more next time.")
	}

	return Report{
		FillerWords: FillerStats{
			TotalWords:    total,
			FillerCount:   fillers,
			FillerPercent: percent,
			Severity:      FillerSeverity(percent),
		},
		DurationVsGoal: DurationStats{
			ActualSeconds:    actual,
			GoalSeconds:      goal,
			DeviationSeconds: deviation,
			ActualFormatted:  FormatClock(actual),
			GoalFormatted:    FormatClock(goal),
		},
		SpeechRate: RateStats{
			AvgWPM:       avg,
			MinWPM:       minW,
			MaxWPM:       maxW,
			OptimalRange: Range{Min: OptimalMinWPM, Max: OptimalMaxWPM},
			Status:       status,
		},
		LongPauseRatio: LongPauseRatio(in.Words, LongPauseThreshold),
		Upsides:        PadTo(upsides, 3, defaultUpside),
		Shortcomings:   PadTo(shortcomings, 3, defaultShortcoming),
		Topics:         []string{},
	}
}

// PadTo fills list up to n entries with filler and truncates anything longer.
func PadTo(list []string, n int, filler string) []string {
	out := make([]string, 0, n)
	out = append(out, list...)
	for len(out) < n {
		out = append(out, filler)
	}
	return out[:n]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
