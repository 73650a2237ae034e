package main

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/deps"
	"github.com/podiumhq/podium/internal/recording"
	"github.com/podiumhq/podium/internal/tui"
)

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for podium.
This will guide you through setting up:
- The rehearsal backend and Deepgram credentials
- Rehearsal defaults and the optional language model coach
- Where recordings are kept and how you are notified`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	if err := config.Save(path, result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")
	fmt.Println()
	showNextSteps(path)
	return nil
}

func showNextSteps(path string) {
	serviceRunning := false
	if err := exec.Command("systemctl", "--user", "is-active", "--quiet", "podium.service").Run(); err == nil {
		serviceRunning = true
	}

	fmt.Println("Next Steps:")
	if serviceRunning {
		fmt.Println("1. The running daemon picks up the new settings automatically")
	} else {
		fmt.Println("1. Start the daemon: systemctl --user start podium.service (or podium serve)")
	}
	fmt.Println("2. Bind a hotkey to: podium toggle")
	fmt.Println("3. Or rehearse right away: podium rehearse")
	fmt.Println()
	fmt.Printf("Config file location: %s\n", path)
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := true
			for _, t := range deps.Tools {
				s := deps.Check(t.Bin, t.VersionArgs...)
				switch {
				case s.Installed:
					fmt.Printf("  [x] %s %s (%s)\n", t.Name, s.Version, t.Purpose)
				case t.Required:
					ok = false
					fmt.Printf("  [ ] %s missing, needed for %s\n", t.Name, t.Purpose)
				default:
					fmt.Printf("  [-] %s not found, %s disabled\n", t.Name, t.Purpose)
				}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := recording.CheckPipeWireAvailable(ctx); err != nil {
				ok = false
				fmt.Printf("  [ ] PipeWire: %v\n", err)
			} else {
				fmt.Println("  [x] PipeWire responding")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				ok = false
				fmt.Printf("  [ ] config: %v\n", err)
			} else {
				fmt.Printf("  [x] config valid, backend %s\n", cfg.BackendURL())
			}

			if !ok {
				return errors.New("some checks failed")
			}
			return nil
		},
	}
}

func botsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bots",
		Short: "Manage the audience of a room",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <room-id>",
		Short: "Add a bot to the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			bot, err := buildAPI(cfg).AddBot(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to add bot: %w", err)
			}
			fmt.Printf("%s %s (%s, %s)\n", bot.ID, bot.Name, bot.Persona.Stance, bot.Persona.Domain)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <room-id> <bot-id>",
		Short: "Remove a bot from the room",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := buildAPI(cfg).RemoveBot(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove bot: %w", err)
			}
			fmt.Println("OK")
			return nil
		},
	})

	return cmd
}

func transcriptCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "transcript <room-id>",
		Short: "Print the room's recent transcript window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tw, err := buildAPI(cfg).Transcript(cmd.Context(), args[0], window)
			if err != nil {
				return fmt.Errorf("failed to fetch transcript: %w", err)
			}
			fmt.Printf("last %ds of %s:\n%s\n", tw.WindowSeconds, tw.RoomID, tw.Text)
			return nil
		},
	}

	cmd.Flags().DurationVar(&window, "window", 30*time.Second, "how far back to read")
	return cmd
}
