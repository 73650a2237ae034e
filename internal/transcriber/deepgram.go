package transcriber

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/podiumhq/podium/internal/speech"
)

const (
	msgResults       = "Results"
	msgSpeechStarted = "SpeechStarted"
	msgUtteranceEnd  = "UtteranceEnd"
	msgMetadata      = "Metadata"
	msgError         = "Error"
)

// deepgramControl is a JSON control frame (CloseStream, KeepAlive, Finalize).
type deepgramControl struct {
	Type string `json:"type"`
}

// deepgramMessage covers every server message type; fields not used by a
// given type are left zero.
type deepgramMessage struct {
	Type string `json:"type"`

	// Results
	Channel     *deepgramChannel `json:"channel,omitempty"`
	Start       float64          `json:"start"`
	Duration    float64          `json:"duration"`
	IsFinal     bool             `json:"is_final"`
	SpeechFinal bool             `json:"speech_final"`

	// SpeechStarted, UtteranceEnd
	Timestamp   *float64 `json:"timestamp,omitempty"`
	LastWordEnd *float64 `json:"last_word_end,omitempty"`

	// Metadata
	RequestID string `json:"request_id,omitempty"`

	// Error
	Description string `json:"description,omitempty"`
	Message     string `json:"message,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

type deepgramChannel struct {
	Alternatives []deepgramAlternative `json:"alternatives,omitempty"`
}

type deepgramAlternative struct {
	Transcript string        `json:"transcript"`
	Confidence float64       `json:"confidence"`
	Words      []speech.Word `json:"words,omitempty"`
}

func (m *deepgramMessage) transcript() (string, []speech.Word) {
	if m.Channel == nil || len(m.Channel.Alternatives) == 0 {
		return "", nil
	}
	alt := m.Channel.Alternatives[0]
	return strings.TrimSpace(alt.Transcript), alt.Words
}

// utteranceEnd prefers the end of the last word over the message timestamp.
func (m *deepgramMessage) utteranceEnd() *float64 {
	if m.LastWordEnd != nil {
		return m.LastWordEnd
	}
	return m.Timestamp
}

func (m *deepgramMessage) errorText() string {
	switch {
	case m.Message != "" && m.Description != "":
		return m.Message + ": " + m.Description
	case m.Description != "":
		return m.Description
	case m.Message != "":
		return m.Message
	}
	return "unknown error"
}

func parseDeepgram(raw []byte) (*deepgramMessage, error) {
	var m deepgramMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse deepgram message: %w", err)
	}
	return &m, nil
}

// buildURL constructs the live listen URL with query parameters.
func (c Config) buildURL(sampleRate int) (string, error) {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	q := u.Query()
	q.Set("model", c.Model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("channels", "1")
	q.Set("interim_results", strconv.FormatBool(c.InterimResults))
	q.Set("smart_format", strconv.FormatBool(c.SmartFormat))
	q.Set("punctuate", "true")
	q.Set("vad_events", "true")
	q.Set("filler_words", strconv.FormatBool(c.FillerWords))
	if c.UtteranceEndMs > 0 {
		q.Set("utterance_end_ms", strconv.Itoa(c.UtteranceEndMs))
	}
	if c.EndpointingMs > 0 {
		q.Set("endpointing", strconv.Itoa(c.EndpointingMs))
	}
	if lang := normalizeLanguage(c.Language); lang != "" {
		q.Set("language", lang)
	}
	for _, kw := range c.Keywords {
		q.Add("keyterm", kw)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func normalizeLanguage(code string) string {
	if strings.EqualFold(code, "en-us") || strings.EqualFold(code, "en_us") {
		return "en-US"
	}
	return code
}
