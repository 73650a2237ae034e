package tui

import (
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/podiumhq/podium/internal/config"
)

// ConfigureResult holds the configuration result from the TUI
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// ConfigSection represents a configuration section
type ConfigSection string

const (
	SectionBackend       ConfigSection = "backend"
	SectionDeepgram      ConfigSection = "deepgram"
	SectionRecording     ConfigSection = "recording"
	SectionRehearsal     ConfigSection = "rehearsal"
	SectionCoach         ConfigSection = "coach"
	SectionStorage       ConfigSection = "storage"
	SectionNotifications ConfigSection = "notifications"
	SectionSaveExit      ConfigSection = "save_exit"
	SectionDiscardExit   ConfigSection = "discard_exit"
)

// Run shows the configuration menu until the user saves or discards.
// existing may be nil for a fresh install.
func Run(existing *config.Config) (*ConfigureResult, error) {
	cfg := existing
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	for {
		clearScreen()
		os.Stdout.WriteString(Logo() + "\n\n")

		section, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg}, nil
			}
		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil
		default:
			edit := sectionEditors[section]
			if edit != nil {
				// A cancelled sub-form returns to the menu with cfg untouched
				// for the fields it had not yet written.
				_ = edit(cfg)
			}
		}
	}
}

var sectionEditors = map[ConfigSection]func(*config.Config) error{
	SectionBackend:       editBackend,
	SectionDeepgram:      editDeepgram,
	SectionRecording:     editRecording,
	SectionRehearsal:     editRehearsal,
	SectionCoach:         editCoach,
	SectionStorage:       editStorage,
	SectionNotifications: editNotifications,
}

func selectSection(cfg *config.Config) (ConfigSection, error) {
	options := []huh.Option[ConfigSection]{
		huh.NewOption(formatBackendLabel(cfg), SectionBackend),
		huh.NewOption(formatDeepgramLabel(cfg), SectionDeepgram),
		huh.NewOption("Microphone", SectionRecording),
		huh.NewOption(formatRehearsalLabel(cfg), SectionRehearsal),
		huh.NewOption(formatCoachLabel(cfg), SectionCoach),
		huh.NewOption(formatStorageLabel(cfg), SectionStorage),
		huh.NewOption("Notifications", SectionNotifications),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}

	var selected ConfigSection
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ConfigSection]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
