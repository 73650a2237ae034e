package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/podiumhq/podium/internal/config"
)

func formatBackendLabel(cfg *config.Config) string {
	return fmt.Sprintf("Backend (%s)", cfg.BackendURL())
}

func formatDeepgramLabel(cfg *config.Config) string {
	if cfg.Deepgram.APIKey == "" {
		return fmt.Sprintf("Deepgram (%s, key from env)", cfg.Deepgram.Model)
	}
	return fmt.Sprintf("Deepgram (%s)", cfg.Deepgram.Model)
}

func formatRehearsalLabel(cfg *config.Config) string {
	return fmt.Sprintf("Rehearsal (%s, %d min)", cfg.Rehearsal.Category, cfg.Rehearsal.DurationMinutes)
}

func formatCoachLabel(cfg *config.Config) string {
	if cfg.Coach.Provider == "" {
		return "Coach (heuristics only)"
	}
	return fmt.Sprintf("Coach (%s)", cfg.Coach.Provider)
}

func formatStorageLabel(cfg *config.Config) string {
	kind := cfg.Storage.Kind
	if kind == "" {
		kind = "none"
	}
	return fmt.Sprintf("Recordings (%s)", kind)
}

// truncate shortens s to n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// maskKey hides all but the last four characters of a secret.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}

// summaryLines lists the settings shown before saving.
func summaryLines(cfg *config.Config) [][2]string {
	lines := [][2]string{
		{"Backend:", cfg.BackendURL()},
		{"Deepgram:", fmt.Sprintf("%s (%s) key %s", cfg.Deepgram.Model, cfg.Deepgram.Language, maskKey(cfg.Deepgram.APIKey))},
	}
	if len(cfg.Deepgram.Keywords) > 0 {
		lines = append(lines, [2]string{"Keywords:", strings.Join(cfg.Deepgram.Keywords, ", ")})
	}

	mic := cfg.Recording.Device
	if cfg.Recording.File != "" {
		mic = "file " + cfg.Recording.File
	} else if mic == "" {
		mic = "default source"
	}
	lines = append(lines, [2]string{"Microphone:", mic})

	r := cfg.Rehearsal
	rehearsal := fmt.Sprintf("%s, %d min, goal %ds", r.Category, r.DurationMinutes, r.GoalSeconds)
	if r.Topic != "" {
		rehearsal += fmt.Sprintf(", topic %q", r.Topic)
	}
	lines = append(lines, [2]string{"Rehearsal:", rehearsal})

	if cfg.Coach.Provider != "" {
		lines = append(lines, [2]string{"Coach:", fmt.Sprintf("%s (%s)", cfg.Coach.Provider, cfg.Coach.Model)})
	} else {
		lines = append(lines, [2]string{"Coach:", "heuristics only"})
	}

	switch cfg.Storage.Kind {
	case "local":
		lines = append(lines, [2]string{"Recordings:", cfg.Storage.LocalPath})
	case "s3":
		lines = append(lines, [2]string{"Recordings:", "s3://" + cfg.Storage.S3.Bucket + "/" + cfg.Storage.Prefix})
	default:
		lines = append(lines, [2]string{"Recordings:", "not kept"})
	}

	if cfg.Notifications.Enabled {
		lines = append(lines, [2]string{"Notifications:", cfg.Notifications.Type})
	} else {
		lines = append(lines, [2]string{"Notifications:", "disabled"})
	}
	return lines
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()
	for _, l := range summaryLines(cfg) {
		fmt.Printf("  %s %s\n", StyleLabel.Render(l[0]), l[1])
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}

	return confirmed, nil
}
