package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/podiumhq/podium/internal/bus"
	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/daemon"
	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/metrics"
	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/pipeline"
	"github.com/podiumhq/podium/internal/tui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "podium",
	Short: "Rehearse a talk in front of a simulated audience",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadEnv()
		lc := logging.DefaultConfig()
		if cfg, err := config.Load(); err == nil {
			lc = cfg.Logging
		}
		if logLevel != "" {
			lc.Level = logLevel
		}
		logging.Init(lc)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")
	rootCmd.AddCommand(
		serveCmd(),
		toggleCmd(),
		abortCmd(),
		statusCmd(),
		reportCmd(),
		versionCmd(),
		stopCmd(),
		rehearseCmd(),
		configureCmd(),
		doctorCmd(),
		botsCmd(),
		transcriptCmd(),
	)
}

func serveCmd() *cobra.Command {
	var f rehearsalFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := config.NewManager()
			if errors.Is(err, config.ErrConfigNotFound) {
				if err := config.SaveDefaultConfig(); err != nil {
					return fmt.Errorf("failed to write default config: %w", err)
				}
				mgr, err = config.NewManager()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			defer mgr.Stop()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			cfg := mgr.GetConfig()
			n := buildNotifier(cfg)
			mgr.OnReload(func(c *config.Config) {
				logging.Init(c.Logging)
				buildNotifier(c).Send(notify.MsgConfigReloaded)
			})
			if err := mgr.StartWatching(ctx); err != nil {
				log.Warn().Err(err).Msg("config hot reload disabled")
			}

			if addr := cfg.Metrics.Addr; addr != "" {
				go func() {
					if err := metrics.Serve(ctx, addr); err != nil {
						log.Error().Err(err).Msg("metrics listener failed")
					}
				}()
			}

			d := daemon.New(n, func(ctx context.Context) (pipeline.Pipeline, error) {
				c := mgr.GetConfig()
				return buildPipeline(ctx, c, f, buildNotifier(c), nil)
			})
			return d.Run()
		},
	}

	cmd.Flags().BoolVar(&f.noUpload, "no-upload", false, "skip the backend feedback upload")
	cmd.Flags().DurationVar(&f.feedbackWait, "feedback-wait", defaultFeedbackWait, "how long to wait for queued backend feedback")
	return cmd
}

// busCmd builds a command that sends one control byte to the daemon and
// prints the reply.
func busCmd(use, short string, c byte, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(c)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", verb, err)
			}
			fmt.Print(resp)
			return nil
		},
	}
}

func toggleCmd() *cobra.Command {
	return busCmd("toggle", "Start a rehearsal, or finish the running one", bus.CmdToggle, "toggle rehearsal")
}

func statusCmd() *cobra.Command {
	return busCmd("status", "Get current rehearsal status", bus.CmdStatus, "get status")
}

func abortCmd() *cobra.Command {
	return busCmd("abort", "Abort the running rehearsal without a report", bus.CmdAbort, "abort rehearsal")
}

func versionCmd() *cobra.Command {
	return busCmd("version", "Get protocol version", bus.CmdVersion, "get version")
}

func stopCmd() *cobra.Command {
	return busCmd("stop", "Stop the daemon", bus.CmdQuit, "stop daemon")
}

func reportCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the report of the last rehearsal run by the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(bus.CmdReport)
			if err != nil {
				return fmt.Errorf("failed to fetch report: %w", err)
			}
			res, data, err := parseReportReply(resp)
			if err != nil {
				return err
			}
			if raw {
				fmt.Println(string(data))
				return nil
			}
			tui.NewView(os.Stdout).Report(res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "json", false, "print the report as JSON")
	return cmd
}

// parseReportReply decodes a "REPORT <json>" daemon reply.
func parseReportReply(resp string) (*pipeline.Result, []byte, error) {
	line := strings.TrimSpace(resp)
	if msg, ok := strings.CutPrefix(line, "ERR "); ok {
		return nil, nil, errors.New(msg)
	}
	payload, ok := strings.CutPrefix(line, "REPORT ")
	if !ok {
		return nil, nil, fmt.Errorf("unexpected reply: %q", line)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, nil, fmt.Errorf("decode report: %w", err)
	}
	return &res, []byte(payload), nil
}
