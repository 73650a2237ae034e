package audience

import (
	"fmt"
	"strings"
)

type Emotion string

const (
	EmotionHappy     Emotion = "happy"
	EmotionExcited   Emotion = "excited"
	EmotionCalm      Emotion = "calm"
	EmotionAttentive Emotion = "attentive"
	EmotionSkeptical Emotion = "skeptical"
	EmotionConfused  Emotion = "confused"
	EmotionSad       Emotion = "sad"
	EmotionAngry     Emotion = "angry"
	EmotionSurprised Emotion = "surprised"
	EmotionBored     Emotion = "bored"
)

// Emotions lists every supported emotion in a stable order.
var Emotions = []Emotion{
	EmotionHappy, EmotionExcited, EmotionCalm, EmotionAttentive, EmotionSkeptical,
	EmotionConfused, EmotionSad, EmotionAngry, EmotionSurprised, EmotionBored,
}

func ParseEmotion(s string) (Emotion, error) {
	e := Emotion(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := avataaarsTable[e]; !ok {
		return "", fmt.Errorf("unknown emotion %q", s)
	}
	return e, nil
}

// Style is an avatar rendering style.
type Style string

const (
	StyleAvataaars Style = "avataaars"
	StyleMicah     Style = "micah"
)

// Features is the set of facial feature tags for one emotion.
type Features struct {
	Eyes     []string `json:"eyes,omitempty"`
	Eyebrows []string `json:"eyebrows,omitempty"`
	Mouth    []string `json:"mouth,omitempty"`
}

func (f Features) clone() Features {
	return Features{
		Eyes:     append([]string(nil), f.Eyes...),
		Eyebrows: append([]string(nil), f.Eyebrows...),
		Mouth:    append([]string(nil), f.Mouth...),
	}
}

var avataaarsTable = map[Emotion]Features{
	EmotionHappy: {
		Eyes:     []string{"happy", "wink", "winkWacky"},
		Eyebrows: []string{"raisedExcited", "raisedExcitedNatural", "up"},
		Mouth:    []string{"smile"},
	},
	EmotionExcited: {
		Eyes:     []string{"hearts", "happy", "surprised"},
		Eyebrows: []string{"raisedExcited", "raisedExcitedNatural"},
		Mouth:    []string{"smile", "twinkle"},
	},
	EmotionCalm: {
		Eyes:     []string{"default"},
		Eyebrows: []string{"defaultNatural", "flatNatural", "default"},
		Mouth:    []string{"default", "serious", "smile"},
	},
	EmotionAttentive: {
		Eyes:     []string{"surprised", "default"},
		Eyebrows: []string{"upDown", "upDownNatural", "defaultNatural", "up"},
		Mouth:    []string{"serious", "default"},
	},
	EmotionSkeptical: {
		Eyes:     []string{"eyeRoll", "side"},
		Eyebrows: []string{"flatNatural", "frownNatural"},
		Mouth:    []string{"disbelief", "serious"},
	},
	EmotionConfused: {
		Eyes:     []string{"xDizzy", "eyeRoll", "squint"},
		Eyebrows: []string{"sadConcerned", "sadConcernedNatural"},
		Mouth:    []string{"grimace", "concerned"},
	},
	EmotionSad: {
		Eyes:     []string{"cry", "closed", "squint"},
		Eyebrows: []string{"sadConcerned", "sadConcernedNatural"},
		Mouth:    []string{"sad", "concerned"},
	},
	EmotionAngry: {
		Eyes:     []string{"squint", "closed"},
		Eyebrows: []string{"angryNatural", "frownNatural", "angry"},
		Mouth:    []string{"serious", "grimace"},
	},
	EmotionSurprised: {
		Eyes:     []string{"surprised", "happy"},
		Eyebrows: []string{"raisedExcited", "raisedExcitedNatural"},
		Mouth:    []string{"screamOpen", "disbelief"},
	},
	EmotionBored: {
		Eyes:     []string{"default", "eyeRoll", "closed"},
		Eyebrows: []string{"flatNatural", "defaultNatural", "sadConcerned", "sadConcernedNatural"},
		Mouth:    []string{"serious", "default"},
	},
}

// micah hints are matched against the style's allowed vocabulary, so they
// only need to be substrings of real option names.
var micahHints = map[Emotion]Features{
	EmotionHappy:     {Eyes: []string{"smiling", "round", "smilingShadow"}, Eyebrows: []string{"up"}, Mouth: []string{"laughing", "pucker"}},
	EmotionExcited:   {Eyes: []string{"eyes", "round"}, Eyebrows: []string{"up"}, Mouth: []string{"laughing", "surprised", "smile"}},
	EmotionCalm:      {Eyes: []string{"eyes", "round"}, Eyebrows: []string{"up"}, Mouth: []string{"smile"}},
	EmotionAttentive: {Eyes: []string{"round", "eyes"}, Eyebrows: []string{"up"}, Mouth: []string{"smile", "smirk"}},
	EmotionSkeptical: {Eyes: []string{"eyeshadow", "round"}, Eyebrows: []string{"down"}, Mouth: []string{"serious", "frown"}},
	EmotionConfused:  {Eyes: []string{"eyeshadow", "round"}, Eyebrows: []string{"down"}, Mouth: []string{"frown", "smirk"}},
	EmotionSad:       {Eyes: []string{"eyesShadow", "eyes"}, Eyebrows: []string{"down"}, Mouth: []string{"sad", "frown"}},
	EmotionAngry:     {Eyes: []string{"eyes"}, Eyebrows: []string{"down"}, Mouth: []string{"nervous", "frown"}},
	EmotionSurprised: {Eyes: []string{"round"}, Eyebrows: []string{"up"}, Mouth: []string{"surprised"}},
	EmotionBored:     {Eyes: []string{"eyeshadow", "eyes"}, Eyebrows: []string{"down"}, Mouth: []string{"sad", "frown"}},
}

// MicahVocabulary is the option set the micah style accepts.
var MicahVocabulary = Features{
	Eyes:     []string{"eyes", "eyesShadow", "round", "smiling", "smilingShadow"},
	Eyebrows: []string{"down", "eyelashesDown", "eyelashesUp", "up"},
	Mouth:    []string{"frown", "laughing", "nervous", "pucker", "sad", "smile", "smirk", "surprised"},
}

// AvataaarsFeatures returns the avataaars feature tags for e. The returned
// slices are copies.
func AvataaarsFeatures(e Emotion) (Features, bool) {
	f, ok := avataaarsTable[e]
	if !ok {
		return Features{}, false
	}
	return f.clone(), true
}

// MicahFeatures resolves e against the allowed vocabulary, yielding at most
// one tag per feature. Features with no match are left empty.
func MicahFeatures(allowed Features, e Emotion) (Features, bool) {
	hints, ok := micahHints[e]
	if !ok {
		return Features{}, false
	}
	var f Features
	if v, ok := pickClosest(allowed.Eyes, hints.Eyes); ok {
		f.Eyes = []string{v}
	}
	if v, ok := pickClosest(allowed.Eyebrows, hints.Eyebrows); ok {
		f.Eyebrows = []string{v}
	}
	if v, ok := pickClosest(allowed.Mouth, hints.Mouth); ok {
		f.Mouth = []string{v}
	}
	return f, true
}

// FeaturesFor dispatches on style.
func FeaturesFor(style Style, e Emotion) (Features, error) {
	var (
		f  Features
		ok bool
	)
	switch style {
	case StyleAvataaars:
		f, ok = AvataaarsFeatures(e)
	case StyleMicah:
		f, ok = MicahFeatures(MicahVocabulary, e)
	default:
		return Features{}, fmt.Errorf("unknown avatar style %q", style)
	}
	if !ok {
		return Features{}, fmt.Errorf("unknown emotion %q", e)
	}
	return f, nil
}

// pickClosest returns the first allowed value containing a hint, trying
// hints in order. Matching is case-insensitive.
func pickClosest(allowed, hints []string) (string, bool) {
	for _, h := range hints {
		h = strings.ToLower(h)
		for _, v := range allowed {
			if strings.Contains(strings.ToLower(v), h) {
				return v, true
			}
		}
	}
	return "", false
}
