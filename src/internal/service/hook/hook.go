package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	log "github.com/sirupsen/logrus"
)

// Hook re-runs a shell command whenever the served tree changes. Only one
// run is alive at a time; starting a new one cancels the previous.
type Hook struct {
	command string
	dir     string
	out     io.Writer

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending int // runs reserved but not finished
	lastEnd time.Time
}

func New(command, dir string, out io.Writer) *Hook {
	return &Hook{
		command: command,
		dir:     dir,
		out:     out,
	}
}

// Run executes the command under a pseudo-terminal so build tools keep
// their colored output, and waits for it to finish.
func (h *Hook) Run(ctx context.Context) error {
	if h.command == "" {
		return nil
	}
	h.mu.Lock()
	h.pending++
	h.mu.Unlock()
	return h.run(ctx)
}

func (h *Hook) run(ctx context.Context) error {
	ctx, done := h.replace(ctx)
	defer h.finish(done)

	cmd := exec.CommandContext(ctx, "sh", "-c", h.command)
	cmd.Dir = h.dir
	cmd.Env = append(os.Environ(), "TERM=xterm")
	// pty.Start puts the shell in its own session; kill the whole group so
	// children holding the terminal go away too.
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 2 * time.Second

	ptmx, err := pty.Start(cmd)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("start %q: %w", h.command, err)
	}
	defer func() { _ = ptmx.Close() }()

	// Reading the pty ends with EIO once the child exits.
	_, _ = io.Copy(h.out, ptmx)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run %q: %w", h.command, err)
	}
	return nil
}

// Trigger starts a run in the background and logs its outcome. The run
// counts as busy from the moment Trigger returns.
func (h *Hook) Trigger(ctx context.Context, changed string) {
	if h.command == "" {
		return
	}
	h.mu.Lock()
	h.pending++
	h.mu.Unlock()
	h.start(ctx, changed)
}

// TriggerIdle is Trigger unless the hook is Busy(grace); the check and the
// reservation happen under one lock. It reports whether a run was started.
func (h *Hook) TriggerIdle(ctx context.Context, changed string, grace time.Duration) bool {
	if h.command == "" {
		return false
	}
	h.mu.Lock()
	if h.busy(grace) {
		h.mu.Unlock()
		return false
	}
	h.pending++
	h.mu.Unlock()
	h.start(ctx, changed)
	return true
}

func (h *Hook) start(ctx context.Context, changed string) {
	go func() {
		log.Debugf("Running change hook for %s", changed)
		if err := h.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("Change hook failed: %v", err)
		}
	}()
}

// replace registers a new run, then cancels the previous one and waits for
// it to exit. The wait happens without h.mu held since the previous run
// needs the lock to finish.
func (h *Hook) replace(parent context.Context) (context.Context, chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	h.mu.Lock()
	prevCancel, prevDone := h.cancel, h.done
	h.cancel = cancel
	h.done = done
	h.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	go func() {
		<-done
		cancel()
	}()
	return ctx, done
}

func (h *Hook) finish(done chan struct{}) {
	h.mu.Lock()
	h.pending--
	if h.pending == 0 {
		h.lastEnd = time.Now()
	}
	h.mu.Unlock()
	close(done)
}

// Busy reports whether a run is reserved, in progress, or ended less than
// grace ago. Files written by the command itself show up as changes in
// that window.
func (h *Hook) Busy(grace time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.busy(grace)
}

func (h *Hook) busy(grace time.Duration) bool {
	return h.pending > 0 || time.Since(h.lastEnd) < grace
}
