package recording

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Source opens a mono float32 sample stream.
type Source interface {
	Open(ctx context.Context, sampleRate int) (Stream, error)
}

// Stream yields samples in [-1, 1]. Read blocks until at least one sample
// is available and returns io.EOF when the source is exhausted.
type Stream interface {
	Read(dst []float32) (int, error)
	SampleRate() int
	Close() error
}

// PipeWireSource captures from the default (or named) PipeWire node with
// pw-record. The stream carries raw samples with no processing applied.
type PipeWireSource struct {
	Device string
	Log    zerolog.Logger
}

func (s PipeWireSource) args(sampleRate int) []string {
	args := []string{
		"--format", "f32",
		"--rate", strconv.Itoa(sampleRate),
		"--channels", "1",
		"-",
	}
	if s.Device != "" {
		args = append(args, "--target", s.Device)
	}
	return args
}

func (s PipeWireSource) Open(ctx context.Context, sampleRate int) (Stream, error) {
	if err := CheckPipeWireAvailable(ctx); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "pw-record", s.args(sampleRate)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("create stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start pw-record: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			s.Log.Debug().Str("line", scanner.Text()).Msg("pw-record stderr")
		}
	}()

	return &processStream{cmd: cmd, r: bufio.NewReader(stdout), rate: sampleRate}, nil
}

type processStream struct {
	cmd  *exec.Cmd
	r    *bufio.Reader
	rate int
	buf  []byte

	closeOnce sync.Once
}

func (p *processStream) Read(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	need := len(dst) * 4
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}
	buf := p.buf[:need]

	// Read at least one whole sample, then complete any partial one.
	n, err := io.ReadAtLeast(p.r, buf, 4)
	if n >= 4 && n%4 != 0 {
		m, ferr := io.ReadFull(p.r, buf[n:n+4-n%4])
		n += m
		err = ferr
	}
	n -= n % 4
	if n == 0 {
		if err == nil || errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return 0, err
	}
	for i := 0; i < n/4; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return n / 4, nil
}

func (p *processStream) SampleRate() int { return p.rate }

func (p *processStream) Close() error {
	p.closeOnce.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		// Reap the child; a kill shows up as an exit error.
		_ = p.cmd.Wait()
	})
	return nil
}

// FileSource plays a 16-bit PCM WAV file as if it were a microphone.
type FileSource struct {
	Path string
	// Realtime paces reads to the file's sample rate.
	Realtime bool
}

func (s FileSource) Open(ctx context.Context, sampleRate int) (Stream, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	hdr, err := ReadWAVHeader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	if hdr.Channels != 1 || hdr.BitsPerSample != 16 {
		f.Close()
		return nil, fmt.Errorf("%s: need mono 16-bit PCM, got %d ch %d bit", s.Path, hdr.Channels, hdr.BitsPerSample)
	}
	if hdr.SampleRate != sampleRate {
		f.Close()
		return nil, fmt.Errorf("%s: sample rate %d does not match %d", s.Path, hdr.SampleRate, sampleRate)
	}
	return &fileStream{
		ctx:      ctx,
		f:        f,
		r:        io.LimitReader(bufio.NewReader(f), int64(hdr.DataSize)),
		rate:     hdr.SampleRate,
		realtime: s.Realtime,
		start:    time.Now(),
	}, nil
}

type fileStream struct {
	ctx      context.Context
	f        *os.File
	r        io.Reader
	rate     int
	realtime bool
	start    time.Time
	read     int64
	buf      []byte
}

func (s *fileStream) Read(dst []float32) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	if s.realtime {
		due := s.start.Add(time.Duration(s.read) * time.Second / time.Duration(s.rate))
		if d := time.Until(due); d > 0 {
			select {
			case <-time.After(d):
			case <-s.ctx.Done():
				return 0, s.ctx.Err()
			}
		}
	}

	need := len(dst) * 2
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]
	n, err := io.ReadFull(s.r, buf)
	n -= n % 2
	for i := 0; i < n/2; i++ {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(buf[i*2:]))) / 0x8000
	}
	s.read += int64(n / 2)
	if n > 0 {
		return n / 2, nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return 0, err
}

func (s *fileStream) SampleRate() int { return s.rate }
func (s *fileStream) Close() error    { return s.f.Close() }

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}
