package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type mode int

const (
	modeRead mode = iota
	modeWrite
)

// Handle is an owned child process bundled with one end of its stdio.
// In read mode it implements io.ReadCloser over the child's stdout; in
// write mode io.WriteCloser over the child's stdin. Close is safe to call
// more than once and always reaps the child.
type Handle struct {
	cmd    *exec.Cmd
	line   string
	stream io.Closer
	r      io.Reader
	w      io.Writer
	mode   mode
	grace  time.Duration

	mu       sync.Mutex
	closed   bool
	closeErr error
}

// StartRead spawns the command and returns a handle streaming its stdout.
func StartRead(cmd Command) (*Handle, error) {
	return start(cmd, modeRead)
}

// StartWrite spawns the command and returns a handle streaming to its stdin.
func StartWrite(cmd Command) (*Handle, error) {
	return start(cmd, modeWrite)
}

func start(cmd Command, m mode) (*Handle, error) {
	if cmd.Line == "" {
		return nil, fmt.Errorf("process: command line is required")
	}
	grace := cmd.GracePeriod
	if grace == 0 {
		grace = 5 * time.Second
	}

	c := exec.Command("/bin/sh", "-c", cmd.Line) //nolint:gosec // spawning caller-supplied commands is the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)
	c.Stderr = os.Stderr

	// Own process group so the whole tree can be terminated on Close.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	h := &Handle{cmd: c, line: cmd.Line, mode: m, grace: grace}
	var err error
	switch m {
	case modeRead:
		var stdout io.ReadCloser
		stdout, err = c.StdoutPipe()
		h.r = stdout
		h.stream = stdout
	case modeWrite:
		var stdin io.WriteCloser
		stdin, err = c.StdinPipe()
		h.w = stdin
		h.stream = stdin
	}
	if err != nil {
		return nil, fmt.Errorf("process: opening pipe: %w", err)
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("process: starting %q: %w", cmd.Line, err)
	}
	return h, nil
}

// Read reads from the child's stdout. Only valid in read mode.
func (h *Handle) Read(p []byte) (int, error) {
	if h.r == nil {
		return 0, fmt.Errorf("process: handle is not in read mode")
	}
	return h.r.Read(p)
}

// Write writes to the child's stdin. Only valid in write mode.
func (h *Handle) Write(p []byte) (int, error) {
	if h.w == nil {
		return 0, fmt.Errorf("process: handle is not in write mode")
	}
	return h.w.Write(p)
}

// Pid returns the child process id.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Close releases the stream and reaps the child. In read mode the process
// group is terminated immediately (the consumer is abandoning the stream);
// in write mode stdin is closed first so the child can finish draining.
// A child that ignores SIGTERM past the grace period is killed. Close
// returns an error when the child exited with a non-zero status on its
// own, which is how a failed retrieval command surfaces.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		defer h.mu.Unlock()
		return h.closeErr
	}
	h.closed = true
	h.mu.Unlock()

	_ = h.stream.Close()

	pid := h.cmd.Process.Pid
	done := make(chan error, 1)
	go func() { done <- h.cmd.Wait() }()

	var waitErr error
	if h.mode == modeRead {
		// Terminate right away: a read-mode close means the consumer is
		// done, whether or not the child is. Kill on a process that
		// already exited returns ESRCH, which is fine.
		_ = syscall.Kill(-pid, syscall.SIGTERM)
		waitErr = h.await(done, pid)
	} else {
		// Closing stdin delivered EOF; give the child a grace period to
		// flush and exit before escalating.
		select {
		case waitErr = <-done:
		case <-time.After(h.grace):
			_ = syscall.Kill(-pid, syscall.SIGTERM)
			waitErr = h.await(done, pid)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeErr = exitError(h.line, waitErr)
	return h.closeErr
}

// await waits for the reaper goroutine, escalating to SIGKILL after the
// grace period.
func (h *Handle) await(done <-chan error, pid int) error {
	select {
	case err := <-done:
		return err
	case <-time.After(h.grace):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		return <-done
	}
}

// exitError maps a Wait result to the handle's close error. Deaths by
// signal are expected under early abandonment and are not errors.
func exitError(line string, waitErr error) error {
	if waitErr == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		if ee.ProcessState.ExitCode() == -1 {
			return nil
		}
		return fmt.Errorf("process: %s exited with code %d", line, ee.ProcessState.ExitCode())
	}
	return waitErr
}

// CloseAll closes handles concurrently and returns the first error.
// Used by mixers and prefetchers tearing down several subprocess-backed
// streams at once.
func CloseAll(handles ...*Handle) error {
	var g errgroup.Group
	for _, h := range handles {
		g.Go(h.Close)
	}
	return g.Wait()
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	env := os.Environ()
	return append(env, extra...)
}
