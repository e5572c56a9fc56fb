// Package process runs subprocesses whose standard output or standard
// input is exposed as a sequential byte stream. A Handle owns exactly one
// child process; closing the handle terminates the process group (SIGTERM,
// grace period, SIGKILL) and reaps it, so abandoning a stream mid-read
// never leaks a child.
package process

import "time"

// Command configures a subprocess to stream from or to.
type Command struct {
	// Line is the command line, passed verbatim to `sh -c`.
	Line string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}
