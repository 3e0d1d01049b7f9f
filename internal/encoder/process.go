// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package encoder

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/ManuGH/hlsforge/internal/hlserr"
	"github.com/ManuGH/hlsforge/internal/log"
	"github.com/ManuGH/hlsforge/internal/media/ffmpeg/watchdog"
	"github.com/ManuGH/hlsforge/internal/procgroup"
)

// RingBuffer is a bounded, mutex-guarded accumulator for subprocess
// stderr/stdout lines, grounded in the teacher's ffmpeg-runner ring buffer:
// the producer goroutine never blocks, the consumer drains whatever is
// there on its next turn (§9, "bounded buffers at the encoder output").
type RingBuffer struct {
	mu    sync.Mutex
	lines []string
	pos   int
	full  bool
	cap   int
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 64
	}
	return &RingBuffer{lines: make([]string, capacity), cap: capacity}
}

func (b *RingBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines[b.pos] = line
	b.pos = (b.pos + 1) % b.cap
	if b.pos == 0 {
		b.full = true
	}
}

func (b *RingBuffer) GetAll() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.full {
		out := make([]string, b.pos)
		copy(out, b.lines[:b.pos])
		return out
	}
	out := make([]string, 0, b.cap)
	out = append(out, b.lines[b.pos:]...)
	out = append(out, b.lines[:b.pos]...)
	return out
}

// ProcessEncoder supervises an external encoder subprocess as the
// in-scope half of the "subprocess launching of an external video
// encoder" collaborator boundary (§1): this package starts, drains, and
// tears down the child; it does not construct the child's domain-specific
// command line, which is a caller concern.
//
// Per the Open Question decision recorded in SPEC_FULL.md, draining is
// byte-driven: a dedicated goroutine blocks on Read of the child's stdout
// pipe and only ever advances state when bytes arrive or the pipe closes,
// never on a fixed sleep.
type ProcessEncoder struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	state   State
	stdout  io.ReadCloser
	diag    *RingBuffer
	done    chan struct{}
	waitErr error
	wd      *watchdog.Watchdog
}

// NewProcessEncoder constructs a supervisor for the given command. The
// command is not started until Configure is called.
func NewProcessEncoder(cmd *exec.Cmd) *ProcessEncoder {
	return &ProcessEncoder{cmd: cmd, state: StateFresh, diag: NewRingBuffer(200)}
}

// WithStallDetection arms a progress watchdog that expects the child to
// write "-progress pipe:1"-style `key=value` lines to the same stdout
// stream being drained into the diagnostic ring buffer: `out_time_ms` and
// `total_size` increases count as a heartbeat, `progress=end` marks a
// clean finish. Call RunWatchdog alongside Configure to enforce it.
func (p *ProcessEncoder) WithStallDetection(startTimeout, stallTimeout time.Duration) *ProcessEncoder {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wd = watchdog.New(startTimeout, stallTimeout)
	return p
}

// RunWatchdog blocks until the armed watchdog detects a start timeout or a
// stall, the child signals completion via `progress=end`, or ctx is
// canceled. It is a no-op returning nil if WithStallDetection was never
// called. Run it in its own goroutine alongside Configure/WaitForExit.
func (p *ProcessEncoder) RunWatchdog(ctx context.Context) error {
	p.mu.Lock()
	wd := p.wd
	p.mu.Unlock()
	if wd == nil {
		return nil
	}
	if err := wd.Run(ctx); err != nil {
		return hlserr.EncodingFailed("stall detected: " + err.Error())
	}
	return nil
}

func (p *ProcessEncoder) Configure(_ Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateTornedown {
		return hlserr.TornDown()
	}
	if p.state == StateConfigured {
		return nil
	}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return hlserr.UnsupportedConfiguration("stdout pipe: " + err.Error())
	}
	p.stdout = stdout
	procgroup.Set(p.cmd)

	if err := p.cmd.Start(); err != nil {
		return hlserr.EncodingFailed("start: " + err.Error())
	}

	p.done = make(chan struct{})
	go p.drain()

	p.state = StateConfigured
	return nil
}

// drain blocks on reads from the child's stdout, never on a timer. Each
// line read advances the diagnostic ring buffer; EOF signals the child
// closed its output, which is the byte-driven equivalent of "the child is
// done producing," independent of wall-clock assumptions.
func (p *ProcessEncoder) drain() {
	defer close(p.done)
	p.mu.Lock()
	wd := p.wd
	p.mu.Unlock()

	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		p.diag.Add(line)
		if wd != nil {
			wd.ParseLine(line)
		}
	}
	log.L().Debug().Str("component", "encoder.process").Msg("child stdout drained to EOF")
}

// Encode is not meaningful for a raw process supervisor without a
// domain-specific framing layer; embed ProcessEncoder in a concrete
// adapter that knows how to interpret its child's output as EncodedFrame
// values. Calling it directly reports UnsupportedConfiguration.
func (p *ProcessEncoder) Encode(RawMediaBuffer) ([]EncodedFrame, error) {
	return nil, hlserr.UnsupportedConfiguration("ProcessEncoder requires a framing adapter to produce EncodedFrame values")
}

func (p *ProcessEncoder) Flush() ([]EncodedFrame, error) { return nil, nil }

// Teardown kills the process group and blocks, byte-driven, until the
// drain goroutine observes EOF or a fixed 5-second wait elapses.
func (p *ProcessEncoder) Teardown() {
	p.mu.Lock()
	if p.state == StateTornedown {
		p.mu.Unlock()
		return
	}
	p.state = StateTearing
	pid := p.cmd.Process
	p.mu.Unlock()

	if pid != nil {
		_ = procgroup.KillGroup(pid.Pid, 2*time.Second, 5*time.Second)
	}

	if p.done != nil {
		select {
		case <-p.done:
		case <-time.After(5 * time.Second):
		}
	}

	p.mu.Lock()
	p.state = StateTornedown
	p.mu.Unlock()
}

func (p *ProcessEncoder) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Diagnostics returns the accumulated stdout lines for troubleshooting.
func (p *ProcessEncoder) Diagnostics() []string { return p.diag.GetAll() }

// WaitForExit blocks until the child process exits or ctx is canceled,
// byte-driven via cmd.Wait() rather than polling.
func (p *ProcessEncoder) WaitForExit(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- p.cmd.Wait() }()
	select {
	case err := <-errCh:
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
