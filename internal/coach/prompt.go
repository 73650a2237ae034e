package coach

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const maxTranscriptChars = 8000

const systemPrompt = `You are a supportive public-speaking coach. Read the transcript of a spoken pitch and, in an encouraging tone, list exactly three strengths ("upsides") and three concrete areas to improve ("shortcomings"). Each item is one or two medium length sentences. Also list the main topics the speaker covered.
The speaker may stutter, so some words can appear twice in a row.
Return ONLY valid JSON with the keys "upsides", "shortcomings" and "topics", each an array of strings.`

// BuildUserPrompt wraps the transcript, truncated to a safe length.
func BuildUserPrompt(transcript string) string {
	if len(transcript) > maxTranscriptChars {
		cut := maxTranscriptChars
		// Avoid splitting a multi-byte rune.
		for cut > 0 && !isRuneStart(transcript[cut]) {
			cut--
		}
		transcript = transcript[:cut]
	}
	return "TRANSCRIPT:\n" + transcript
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// ParseSuggestions accepts the model output with or without a Markdown code
// fence. Each list may be an array of strings or an object of strings.
func ParseSuggestions(content string) (Suggestions, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var raw struct {
		Upsides      json.RawMessage `json:"upsides"`
		Shortcomings json.RawMessage `json:"shortcomings"`
		Topics       json.RawMessage `json:"topics"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Suggestions{}, fmt.Errorf("parse suggestions: %w", err)
	}

	var s Suggestions
	var err error
	if s.Upsides, err = stringList(raw.Upsides); err != nil {
		return Suggestions{}, fmt.Errorf("upsides: %w", err)
	}
	if s.Shortcomings, err = stringList(raw.Shortcomings); err != nil {
		return Suggestions{}, fmt.Errorf("shortcomings: %w", err)
	}
	if s.Topics, err = stringList(raw.Topics); err != nil {
		return Suggestions{}, fmt.Errorf("topics: %w", err)
	}
	if len(s.Upsides) == 0 && len(s.Shortcomings) == 0 {
		return Suggestions{}, fmt.Errorf("parse suggestions: empty response")
	}
	return s, nil
}

func stringList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var obj map[string]string
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, obj[k])
	}
	return out, nil
}
