// Package daemon keeps podium resident so a hotkey can start and finish a
// rehearsal through the control socket.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/podiumhq/podium/internal/bus"
	"github.com/podiumhq/podium/internal/logging"
	"github.com/podiumhq/podium/internal/notify"
	"github.com/podiumhq/podium/internal/pipeline"
)

// Factory builds a fresh pipeline from the current configuration.
type Factory func(ctx context.Context) (pipeline.Pipeline, error)

type Daemon struct {
	mu       sync.Mutex
	notifier notify.Notifier
	factory  Factory
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	pipeline pipeline.Pipeline
	starting bool
	last     *pipeline.Result
	lastErr  error
	watchers sync.WaitGroup
}

func New(n notify.Notifier, f Factory) *Daemon {
	if n == nil {
		n = notify.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		notifier: n,
		factory:  f,
		log:      logging.WithComponent("daemon"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (d *Daemon) Status() pipeline.Status {
	d.mu.Lock()
	p, starting := d.pipeline, d.starting
	d.mu.Unlock()
	if p == nil {
		if starting {
			return pipeline.Connecting
		}
		return pipeline.Idle
	}
	return p.Status()
}

// Shutdown stops the accept loop; a running rehearsal is aborted.
func (d *Daemon) Shutdown() {
	d.cancel()
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.log.Info().Str("signal", sig.String()).Msg("shutting down")
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.log.Info().Msg("daemon started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.abort()
				d.watchers.Wait()
				d.log.Info().Msg("shutdown complete")
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.log.Debug().Err(err).Msg("client read error")
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}

	switch cmd := line[0]; cmd {
	case bus.CmdToggle:
		s := d.toggle()
		fmt.Fprintf(c, "OK status=%s\n", s)
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS status=%s room=%s\n", d.Status(), d.roomID())
	case bus.CmdAbort:
		d.abort()
		fmt.Fprint(c, "OK aborted\n")
	case bus.CmdReport:
		d.writeReport(c)
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		d.log.Warn().Str("cmd", string(cmd)).Msg("unknown command")
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) roomID() string {
	d.mu.Lock()
	p := d.pipeline
	d.mu.Unlock()
	if p == nil {
		return ""
	}
	return p.RoomID()
}

// toggle starts a rehearsal when idle and finishes the running one
// otherwise. It returns the status after acting.
func (d *Daemon) toggle() pipeline.Status {
	d.mu.Lock()
	p, starting := d.pipeline, d.starting
	d.mu.Unlock()

	if starting {
		return pipeline.Connecting
	}
	if p == nil {
		return d.start()
	}

	switch s := p.Status(); s {
	case pipeline.Connecting:
		d.abort()
		return pipeline.Idle
	case pipeline.Recording:
		select {
		case p.Actions() <- pipeline.Finish:
		default:
		}
		return pipeline.Reporting
	default:
		return s
	}
}

func (d *Daemon) start() pipeline.Status {
	if d.factory == nil {
		d.notifier.Error("no rehearsal configured")
		return pipeline.Idle
	}

	// One factory call at a time; it dials and allocates capture.
	d.mu.Lock()
	if d.pipeline != nil {
		p := d.pipeline
		d.mu.Unlock()
		return p.Status()
	}
	if d.starting {
		d.mu.Unlock()
		return pipeline.Connecting
	}
	d.starting = true
	d.mu.Unlock()

	p, err := d.factory(d.ctx)

	d.mu.Lock()
	d.starting = false
	if err != nil {
		d.mu.Unlock()
		d.log.Error().Err(err).Msg("cannot start rehearsal")
		d.notifier.Error(err.Error())
		return pipeline.Idle
	}
	d.pipeline = p
	d.mu.Unlock()

	p.Run(d.ctx)
	d.watchers.Add(1)
	go d.watch(p)
	return pipeline.Connecting
}

func (d *Daemon) watch(p pipeline.Pipeline) {
	defer d.watchers.Done()
	<-p.Done()
	res, err := p.Result()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pipeline == p {
		d.pipeline = nil
	}
	// The newest outcome wins, so a failed run hides an older report.
	switch {
	case err != nil:
		d.last, d.lastErr = nil, err
	case res != nil:
		d.last, d.lastErr = res, nil
	}
}

func (d *Daemon) abort() {
	d.mu.Lock()
	p := d.pipeline
	d.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}

func (d *Daemon) writeReport(c net.Conn) {
	d.mu.Lock()
	last, lastErr := d.last, d.lastErr
	d.mu.Unlock()

	if last == nil {
		if lastErr != nil {
			fmt.Fprintf(c, "ERR last_run: %v\n", lastErr)
			return
		}
		fmt.Fprint(c, "ERR no_report\n")
		return
	}
	data, err := json.Marshal(last)
	if err != nil {
		fmt.Fprintf(c, "ERR encode: %v\n", err)
		return
	}
	fmt.Fprintf(c, "REPORT %s\n", data)
}
