package process

import (
	"bytes"
	"io"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestStartRead_StreamsStdout(t *testing.T) {
	h, err := StartRead(Command{Line: "printf 'hello world'"})
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(h)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "hello world"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if err := h.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestStartRead_EmptyOutput(t *testing.T) {
	h, err := StartRead(Command{Line: `echo -n ""`})
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(h)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("got %q, want empty", data)
	}
	if err := h.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestStartRead_NonZeroExit(t *testing.T) {
	h, err := StartRead(Command{Line: "exit 3"})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.ReadAll(h)
	err = h.Close()
	if err == nil {
		t.Fatal("expected close to surface the exit status")
	}
	if !strings.Contains(err.Error(), "code 3") {
		t.Errorf("got %v, want exit code 3", err)
	}
}

func TestClose_TerminatesAbandonedProcess(t *testing.T) {
	h, err := StartRead(Command{Line: "yes abandoned", GracePeriod: 2 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 64)
	if _, err := h.Read(buf); err != nil {
		t.Fatal(err)
	}
	pid := h.Pid()

	if err := h.Close(); err != nil {
		t.Errorf("close: %v", err)
	}

	// After Close returns, the child is reaped: signal 0 must fail.
	if err := syscall.Kill(pid, 0); err != syscall.ESRCH {
		t.Errorf("process %d still exists after Close (kill(0) = %v)", pid, err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	h, err := StartRead(Command{Line: "printf x"})
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.ReadAll(h)
	first := h.Close()
	second := h.Close()
	if first != second {
		t.Errorf("second close returned %v, want %v", second, first)
	}
}

func TestStartWrite_StreamsStdin(t *testing.T) {
	dir := t.TempDir()
	h, err := StartWrite(Command{Line: "cat > out.txt", Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.Copy(h, bytes.NewReader([]byte("payload\n"))); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStart_RequiresCommandLine(t *testing.T) {
	if _, err := StartRead(Command{}); err == nil {
		t.Error("expected error for empty command line")
	}
}

func TestCloseAll(t *testing.T) {
	var handles []*Handle
	for n := 0; n < 3; n++ {
		h, err := StartRead(Command{Line: "printf x"})
		if err != nil {
			t.Fatal(err)
		}
		_, _ = io.ReadAll(h)
		handles = append(handles, h)
	}
	if err := CloseAll(handles...); err != nil {
		t.Errorf("close all: %v", err)
	}
}
