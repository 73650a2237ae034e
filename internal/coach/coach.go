// Package coach turns a finished rehearsal into a feedback report: speech
// metrics plus strengths, improvements and topics, optionally refined by an
// LLM.
package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/speech"
)

type Config struct {
	Provider string        `toml:"provider"` // "openai", "groq" or "" to disable
	APIKey   string        `toml:"api_key"`
	Model    string        `toml:"model"`
	BaseURL  string        `toml:"base_url"`
	Timeout  time.Duration `toml:"timeout"`
}

// Suggestions is the qualitative part of a report.
type Suggestions struct {
	Upsides      []string
	Shortcomings []string
	Topics       []string
}

// Refiner produces suggestions from a transcript.
type Refiner interface {
	Suggest(ctx context.Context, transcript string) (Suggestions, error)
}

// NewRefiner builds the configured LLM refiner, or nil when disabled.
func NewRefiner(cfg Config) (Refiner, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIRefiner(cfg, "gpt-4o-mini", ""), nil
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Groq API key required")
		}
		return NewOpenAIRefiner(cfg, "llama-3.3-70b-versatile", "https://api.groq.com/openai/v1"), nil
	default:
		return nil, fmt.Errorf("unsupported coach provider: %s", cfg.Provider)
	}
}

// OpenAIRefiner talks to any OpenAI-compatible chat completions API.
type OpenAIRefiner struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

func NewOpenAIRefiner(cfg Config, defaultModel, defaultBaseURL string) *OpenAIRefiner {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	switch {
	case cfg.BaseURL != "":
		clientConfig.BaseURL = cfg.BaseURL
	case defaultBaseURL != "":
		clientConfig.BaseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &OpenAIRefiner{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		log:    logging.WithComponent("coach"),
	}
}

func (a *OpenAIRefiner) Suggest(ctx context.Context, transcript string) (Suggestions, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(transcript)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0.4,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Suggestions{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestions{}, fmt.Errorf("chat completion: no response choices")
	}
	a.log.Debug().Dur("took", time.Since(start)).Str("model", a.model).Msg("coach suggestions received")
	return ParseSuggestions(resp.Choices[0].Message.Content)
}

type Coach struct {
	refiner Refiner
	timeout time.Duration
	log     zerolog.Logger
}

// New returns a coach; refiner may be nil for rule-based feedback only.
func New(refiner Refiner, timeout time.Duration) *Coach {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Coach{refiner: refiner, timeout: timeout, log: logging.WithComponent("coach")}
}

// Report computes the metrics and, when a refiner is set, replaces the
// rule-based lists with its suggestions. Refiner failures fall back to the
// rule-based lists.
func (c *Coach) Report(ctx context.Context, in speech.Input) speech.Report {
	r := speech.Analyze(in)
	if c.refiner == nil || in.Transcript == "" {
		return r
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	s, err := c.refiner.Suggest(ctx, in.Transcript)
	if err != nil {
		c.log.Warn().Err(err).Msg("llm feedback failed, using rule-based lists")
		return r
	}
	if len(s.Upsides) > 0 {
		r.Upsides = s.Upsides
	}
	if len(s.Shortcomings) > 0 {
		r.Shortcomings = s.Shortcomings
	}
	if s.Topics != nil {
		r.Topics = s.Topics
	}
	return r
}
