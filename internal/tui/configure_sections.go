package tui

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/language"
)

func validateInt(min int) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("enter a whole number")
		}
		if n < min {
			return fmt.Errorf("must be at least %d", min)
		}
		return nil
	}
}

func validateDuration(s string) error {
	if _, err := time.ParseDuration(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("enter a duration such as 3s or 500ms")
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(strings.TrimSpace(s))
	return d
}

// splitList turns "a, b ,c" into [a b c], dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func languageOptions() []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption(language.Multi.Name, language.Multi.Code)}
	for _, l := range language.List() {
		label := l.Name
		if l.NativeName != "" && !strings.HasPrefix(l.Name, l.NativeName) {
			label = fmt.Sprintf("%s (%s)", l.Name, l.NativeName)
		}
		opts = append(opts, huh.NewOption(label, l.Code))
	}
	return opts
}

func editBackend(cfg *config.Config) error {
	u := cfg.Backend.URL
	if u == "" {
		u = config.DefaultBackendURL
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Room API base; WebSocket endpoints are derived from it").
				Value(&u).
				Validate(func(s string) error {
					p, err := url.Parse(strings.TrimSpace(s))
					if err != nil || p.Host == "" || (p.Scheme != "http" && p.Scheme != "https") {
						return fmt.Errorf("enter an http(s) URL")
					}
					return nil
				}),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	cfg.Backend.URL = strings.TrimRight(strings.TrimSpace(u), "/")
	return nil
}

func editDeepgram(cfg *config.Config) error {
	d := &cfg.Deepgram
	apiKey := d.APIKey
	model := d.Model
	lang := d.Language
	keywords := strings.Join(d.Keywords, ", ")
	utteranceEnd := strconv.Itoa(d.UtteranceEndMs)
	endpointing := strconv.Itoa(d.EndpointingMs)
	fillers := d.FillerWords

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description(fmt.Sprintf("Leave empty to read %s", config.EnvDeepgramKey)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Value(&model).
				Validate(huh.ValidateNotEmpty()),
			huh.NewSelect[string]().
				Title("Language").
				Options(languageOptions()...).
				Height(8).
				Value(&lang),
			huh.NewInput().
				Title("Keywords").
				Description("Comma separated terms to boost").
				Value(&keywords),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Utterance end (ms)").
				Value(&utteranceEnd).
				Validate(validateInt(1000)),
			huh.NewInput().
				Title("Endpointing (ms)").
				Value(&endpointing).
				Validate(validateInt(0)),
			huh.NewConfirm().
				Title("Keep filler words in transcripts?").
				Description("Needed to count um and uh in the report").
				Value(&fillers),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	d.APIKey = strings.TrimSpace(apiKey)
	d.Model = strings.TrimSpace(model)
	d.Language = strings.TrimSpace(lang)
	d.Keywords = splitList(keywords)
	d.UtteranceEndMs = atoi(utteranceEnd)
	d.EndpointingMs = atoi(endpointing)
	d.FillerWords = fillers
	return nil
}

func editRecording(cfg *config.Config) error {
	r := &cfg.Recording
	device := r.Device
	file := r.File

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("PipeWire source").
				Description("Node name for pw-record; empty uses the default source").
				Value(&device),
			huh.NewInput().
				Title("WAV file").
				Description("Rehearse from a 16-bit mono recording instead of the microphone").
				Value(&file),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}
	r.Device = strings.TrimSpace(device)
	r.File = strings.TrimSpace(file)
	return nil
}

func editRehearsal(cfg *config.Config) error {
	r := &cfg.Rehearsal
	category := r.Category
	topic := r.Topic
	minutes := strconv.Itoa(r.DurationMinutes)
	goal := strconv.Itoa(r.GoalSeconds)
	interval := r.ChunkInterval.String()
	upload := r.UploadFeedback

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(
					huh.NewOption("Startup pitch", "startup"),
					huh.NewOption("Conference talk", "conference"),
					huh.NewOption("Interview", "interview"),
					huh.NewOption("Sales demo", "sales"),
				).
				Value(&category),
			huh.NewInput().
				Title("Topic").
				Value(&topic),
			huh.NewInput().
				Title("Time limit (minutes)").
				Value(&minutes).
				Validate(validateInt(1)),
			huh.NewInput().
				Title("Goal length (seconds)").
				Description("0 skips the length comparison").
				Value(&goal).
				Validate(validateInt(0)),
			huh.NewInput().
				Title("Chunk interval").
				Description("Longest wait before buffered speech is shown").
				Value(&interval).
				Validate(validateDuration),
			huh.NewConfirm().
				Title("Upload audio for backend feedback?").
				Value(&upload),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	r.Category = category
	r.Topic = strings.TrimSpace(topic)
	r.DurationMinutes = atoi(minutes)
	r.GoalSeconds = atoi(goal)
	r.ChunkInterval = parseDuration(interval)
	r.UploadFeedback = upload
	return nil
}

func editCoach(cfg *config.Config) error {
	c := &cfg.Coach
	provider := c.Provider
	apiKey := c.APIKey
	model := c.Model

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Coach").
				Description("Language model that writes upsides and shortcomings").
				Options(
					huh.NewOption("None (heuristics only)", ""),
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Groq", "groq"),
				).
				Value(&provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description(fmt.Sprintf("Leave empty to read %s or %s", config.EnvOpenAIKey, config.EnvGroqKey)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("Model").
				Description("Empty uses the provider default").
				Value(&model),
		).WithHideFunc(func() bool { return provider == "" }),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	c.Provider = provider
	if provider == "" {
		c.APIKey, c.Model = "", ""
		return nil
	}
	c.APIKey = strings.TrimSpace(apiKey)
	c.Model = strings.TrimSpace(model)
	return nil
}

func editStorage(cfg *config.Config) error {
	s := &cfg.Storage
	kind := s.Kind
	if kind == "" {
		kind = "none"
	}
	localPath := s.LocalPath
	prefix := s.Prefix
	bucket := s.S3.Bucket
	region := s.S3.Region
	endpoint := s.S3.Endpoint
	pathStyle := s.S3.UsePathStyle

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Keep recordings").
				Options(
					huh.NewOption("Don't keep", "none"),
					huh.NewOption("Local directory", "local"),
					huh.NewOption("S3 bucket", "s3"),
				).
				Value(&kind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Directory").
				Value(&localPath).
				Validate(huh.ValidateNotEmpty()),
		).WithHideFunc(func() bool { return kind != "local" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Bucket").
				Value(&bucket).
				Validate(huh.ValidateNotEmpty()),
			huh.NewInput().
				Title("Region").
				Value(&region),
			huh.NewInput().
				Title("Endpoint").
				Description("Only for S3 compatible stores such as MinIO").
				Value(&endpoint),
			huh.NewConfirm().
				Title("Use path-style addressing?").
				Value(&pathStyle),
		).WithHideFunc(func() bool { return kind != "s3" }),
		huh.NewGroup(
			huh.NewInput().
				Title("Key prefix").
				Value(&prefix),
		).WithHideFunc(func() bool { return kind == "none" }),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	s.Kind = kind
	s.LocalPath = strings.TrimSpace(localPath)
	s.Prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	s.S3.Bucket = strings.TrimSpace(bucket)
	s.S3.Region = strings.TrimSpace(region)
	s.S3.Endpoint = strings.TrimSpace(endpoint)
	s.S3.UsePathStyle = pathStyle
	return nil
}
