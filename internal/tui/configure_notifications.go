package tui

import (
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/notify"
)

// editNotifications handles the notifications section edit with type and custom messages
func editNotifications(cfg *config.Config) error {
	enabled := cfg.Notifications.Enabled

	desc := "Notify when a rehearsal starts, stops and when the report is ready"
	if cfg.Notifications.Enabled {
		desc = fmt.Sprintf("Currently: enabled (%s). %s", cfg.Notifications.Type, desc)
	} else {
		desc = "Currently: disabled. " + desc
	}

	enableForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable notifications?").
				Description(desc).
				Value(&enabled),
		),
	).WithTheme(getTheme())

	if err := enableForm.Run(); err != nil {
		return err
	}

	cfg.Notifications.Enabled = enabled
	if !enabled {
		return nil
	}

	notifType := cfg.Notifications.Type
	if notifType == "" {
		notifType = "desktop"
	}

	typeForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notification Type").
				Description("How should notifications be displayed?").
				Options(
					huh.NewOption("Desktop notifications (notify-send)", "desktop"),
					huh.NewOption("Log to console only", "log"),
					huh.NewOption("None (silent)", "none"),
				).
				Value(&notifType),
		),
	).WithTheme(getTheme())

	if err := typeForm.Run(); err != nil {
		return err
	}
	cfg.Notifications.Type = notifType

	var configureMessages bool
	msgForm := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Configure custom notification messages?").
				Affirmative("Yes").
				Negative("No, use defaults").
				Value(&configureMessages),
		),
	).WithTheme(getTheme())

	if err := msgForm.Run(); err != nil {
		return err
	}
	if configureMessages {
		return editNotificationMessages(cfg)
	}
	return nil
}

// messageField returns the config slot for a message key, or nil.
func messageField(cfg *config.Config, configKey string) *config.MessageConfig {
	m := &cfg.Notifications.Messages
	switch configKey {
	case "rehearsal_started":
		return &m.RehearsalStarted
	case "rehearsal_stopped":
		return &m.RehearsalStopped
	case "feedback_ready":
		return &m.FeedbackReady
	case "rehearsal_aborted":
		return &m.RehearsalAborted
	case "connection_lost":
		return &m.ConnectionLost
	case "config_reloaded":
		return &m.ConfigReloaded
	}
	return nil
}

func messageLabel(cfg *config.Config, def notify.MessageDef) string {
	body := def.DefaultBody
	if f := messageField(cfg, def.ConfigKey); f != nil && f.Body != "" {
		body = f.Body
	}
	return fmt.Sprintf("%s: %q", def.ConfigKey, truncate(body, 30))
}

func editNotificationMessages(cfg *config.Config) error {
	for {
		var options []huh.Option[string]
		for _, def := range notify.MessageDefs {
			options = append(options, huh.NewOption(messageLabel(cfg, def), def.ConfigKey))
		}
		options = append(options, huh.NewOption("Back", "back"))

		var selected string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Notification Messages").
					Description("Select a message to edit").
					Options(options...).
					Value(&selected),
			),
		).WithTheme(getTheme())

		if err := form.Run(); err != nil {
			return err
		}
		if selected == "back" {
			return nil
		}
		if err := editSingleMessage(cfg, selected); err != nil {
			continue
		}
	}
}

func editSingleMessage(cfg *config.Config, configKey string) error {
	var def notify.MessageDef
	for _, d := range notify.MessageDefs {
		if d.ConfigKey == configKey {
			def = d
			break
		}
	}
	slot := messageField(cfg, configKey)
	if slot == nil {
		return fmt.Errorf("unknown message %q", configKey)
	}

	title, body := slot.Title, slot.Body
	if title == "" {
		title = def.DefaultTitle
	}
	if body == "" {
		body = def.DefaultBody
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Description(fmt.Sprintf("Default: %s", def.DefaultTitle)).
				Placeholder(def.DefaultTitle).
				Value(&title),
			huh.NewInput().
				Title("Body").
				Description(fmt.Sprintf("Default: %s", def.DefaultBody)).
				Placeholder(def.DefaultBody).
				Value(&body),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	*slot = config.MessageConfig{Title: title, Body: body}
	return nil
}
