package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/podiumhq/podium/internal/config"
	"github.com/podiumhq/podium/internal/pipeline"
	"github.com/podiumhq/podium/internal/speech"
	"github.com/podiumhq/podium/internal/tui"
)

const defaultFeedbackWait = 20 * time.Second

// loadConfig returns the saved config, or the defaults when none exists so
// a first rehearsal can run on environment variables alone.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

func rehearseCmd() *cobra.Command {
	var f rehearsalFlags

	cmd := &cobra.Command{
		Use:   "rehearse",
		Short: "Run a rehearsal in the foreground; press Enter to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runRehearsal(cmd.Context(), cfg, f)
		},
	}

	cmd.Flags().StringVar(&f.roomID, "room", "", "join an existing room instead of creating one")
	cmd.Flags().StringVar(&f.category, "category", "", "room category")
	cmd.Flags().StringVar(&f.topic, "topic", "", "talk topic")
	cmd.Flags().IntVar(&f.minutes, "minutes", 0, "time limit in minutes")
	cmd.Flags().IntVar(&f.goalSeconds, "goal", 0, "target talk length in seconds")
	cmd.Flags().StringVar(&f.file, "file", "", "rehearse from a WAV file instead of the microphone")
	cmd.Flags().BoolVar(&f.noUpload, "no-upload", false, "skip the backend feedback upload")
	cmd.Flags().DurationVar(&f.feedbackWait, "feedback-wait", defaultFeedbackWait, "how long to wait for queued backend feedback")
	return cmd
}

func runRehearsal(ctx context.Context, cfg *config.Config, f rehearsalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	view := tui.NewView(os.Stdout)

	var p pipeline.Pipeline
	onChunk := func(c speech.Chunk) {
		view.Chunk(c)
		if p != nil {
			r := p.Roster()
			view.Reactions(r.Bubbles(), r.Bots())
		}
	}

	p, err := buildPipeline(ctx, cfg, f, buildNotifier(cfg), onChunk)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	p.Run(ctx)
	fmt.Println(tui.Logo())
	fmt.Println("Connecting... press Enter to finish, Ctrl+C to abort.")

	enter := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()

	select {
	case <-enter:
		select {
		case p.Actions() <- pipeline.Finish:
		default:
		}
		fmt.Println("Finishing, building your report...")
	case <-sigCh:
		p.Stop()
	case <-p.Done():
	}

	<-p.Done()
	res, err := p.Result()
	if err != nil {
		return err
	}
	fmt.Println()
	view.Report(res)
	return nil
}
