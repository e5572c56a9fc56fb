package source

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/shardstream/shardstream/errors"
	"github.com/shardstream/shardstream/process"
)

// fileHandler opens filesystem objects directly. It backs both the
// `file:` scheme and bare paths.
func fileHandler() Handler {
	return Handler{
		Read: func(ctx context.Context, rest string) (io.ReadCloser, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f, err := os.Open(filePath(rest))
			if err != nil {
				return nil, errors.AccessFailure(rest, err)
			}
			return f, nil
		},
		Write: func(ctx context.Context, rest string) (io.WriteCloser, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			f, err := os.Create(filePath(rest))
			if err != nil {
				return nil, errors.AccessFailure(rest, err)
			}
			return f, nil
		},
	}
}

// filePath strips the optional `//` authority part of file references,
// accepting file:/path, file:///path, and plain paths alike.
func filePath(rest string) string {
	if after, ok := strings.CutPrefix(rest, "//"); ok && strings.HasPrefix(after, "/") {
		return after
	}
	return rest
}

// pipeHandler spawns the rest of the reference verbatim through a shell
// and streams its stdout (read) or stdin (write). Closing the stream
// terminates and reaps the child.
func pipeHandler() Handler {
	return Handler{
		Read: func(ctx context.Context, rest string) (io.ReadCloser, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			h, err := process.StartRead(process.Command{Line: rest})
			if err != nil {
				return nil, errors.AccessFailure("pipe:"+rest, err)
			}
			return h, nil
		},
		Write: func(ctx context.Context, rest string) (io.WriteCloser, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			h, err := process.StartWrite(process.Command{Line: rest})
			if err != nil {
				return nil, errors.AccessFailure("pipe:"+rest, err)
			}
			return h, nil
		},
	}
}

// httpHandler rewrites http/https references to an invocation of the
// registry's external retrieval command. Retrieval subprocesses get
// asynchronous name resolution and connection reuse for free, and the
// command can be swapped for any fetcher that writes to stdout.
func (r *Registry) httpHandler(scheme string) Handler {
	pipe := pipeHandler()
	return Handler{
		Read: func(ctx context.Context, rest string) (io.ReadCloser, error) {
			url := scheme + ":" + rest
			return pipe.Read(ctx, r.httpCommand+" "+shellQuote(url))
		},
		// Write is nil: retrieval schemes are read-only.
	}
}

// shellQuote single-quotes s for safe interpolation into a shell command.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// stdinStream wraps the process's standard input. Closing it is a no-op:
// stdin belongs to the process, not to any one stream.
func stdinStream() io.ReadCloser {
	return io.NopCloser(os.Stdin)
}

// stdoutStream wraps the process's standard output. Closing it is a
// no-op for the same reason as stdin.
func stdoutStream() io.WriteCloser {
	return nopWriteCloser{os.Stdout}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
