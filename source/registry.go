package source

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shardstream/shardstream/errors"
	"github.com/shardstream/shardstream/logger"
	"github.com/shardstream/shardstream/resilience"
)

// Handler opens byte streams for one scheme.
type Handler struct {
	// Read opens rest for reading. Required.
	Read func(ctx context.Context, rest string) (io.ReadCloser, error)
	// Write opens rest for writing. Nil means the scheme is read-only.
	Write func(ctx context.Context, rest string) (io.WriteCloser, error)
}

// Registry maps scheme names to handlers. It is plain configuration
// state: populate it at startup, treat it as read-only during a run.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler

	httpCommand string
	openTimeout time.Duration
	retry       resilience.RetryConfig
	log         *logger.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPCommand sets the external retrieval command for http/https
// references. The URL is appended as a shell-quoted argument.
func WithHTTPCommand(cmd string) Option {
	return func(r *Registry) { r.httpCommand = cmd }
}

// WithOpenTimeout bounds each open/spawn attempt.
func WithOpenTimeout(d time.Duration) Option {
	return func(r *Registry) { r.openTimeout = d }
}

// WithRetry enables retry of retryable open failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(r *Registry) { r.retry = cfg }
}

// WithLogger sets the registry's logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry creates an empty registry. Most callers want DefaultRegistry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		handlers:    make(map[string]Handler),
		httpCommand: "curl -f -s -L",
		retry:       resilience.RetryConfig{MaxAttempts: 1},
		log:         logger.NewFromEnv().WithComponent("source"),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.retry.RetryIf = errors.IsRetryable
	return r
}

// DefaultRegistry creates a registry with the built-in schemes
// registered: file, pipe, http, https.
func DefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	r.Register("file", fileHandler())
	r.Register("pipe", pipeHandler())
	r.Register("http", r.httpHandler("http"))
	r.Register("https", r.httpHandler("https"))
	return r
}

// Register adds or overrides the handler for a scheme.
func (r *Registry) Register(scheme string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[scheme] = h
}

// Schemes returns the sorted names of all registered schemes.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(scheme string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[scheme]
	return h, ok
}

// OpenRead resolves ref and opens it for reading. The literal `-` maps to
// the process's standard input and bypasses scheme dispatch.
func (r *Registry) OpenRead(ctx context.Context, ref string) (io.ReadCloser, error) {
	if ref == "-" {
		return stdinStream(), nil
	}
	scheme, rest := SplitScheme(ref)
	h, err := r.resolve(scheme, ref, &rest)
	if err != nil {
		return nil, err
	}
	return openWithRetry(ctx, r, ref, scheme, func(ctx context.Context) (io.ReadCloser, error) {
		return h.Read(ctx, rest)
	})
}

// OpenWrite resolves ref and opens it for writing. The literal `-` maps
// to the process's standard output.
func (r *Registry) OpenWrite(ctx context.Context, ref string) (io.WriteCloser, error) {
	if ref == "-" {
		return stdoutStream(), nil
	}
	scheme, rest := SplitScheme(ref)
	h, err := r.resolve(scheme, ref, &rest)
	if err != nil {
		return nil, err
	}
	if h.Write == nil {
		return nil, errors.UnsupportedScheme(scheme).WithDetail("mode", "write")
	}
	return openWithRetry(ctx, r, ref, scheme, func(ctx context.Context) (io.WriteCloser, error) {
		return h.Write(ctx, rest)
	})
}

// resolve picks the handler for a scheme; a bare path resolves to the
// file handler with the whole reference as the path.
func (r *Registry) resolve(scheme, ref string, rest *string) (Handler, error) {
	if scheme == "" {
		*rest = ref
		scheme = "file"
	}
	h, ok := r.lookup(scheme)
	if !ok {
		return Handler{}, errors.UnsupportedScheme(scheme)
	}
	return h, nil
}

// openWithRetry runs one open attempt under the registry's timeout and
// retry policy.
func openWithRetry[T io.Closer](ctx context.Context, r *Registry, ref, scheme string, open func(context.Context) (T, error)) (T, error) {
	cfg := r.retry
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		r.log.Warn("retrying open", logger.Fields(
			logger.FieldShard, ref,
			logger.FieldScheme, scheme,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
		))
	}
	return resilience.Retry(ctx, cfg, func() (T, error) {
		attemptCtx := ctx
		if r.openTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.openTimeout)
			defer cancel()
		}
		return open(attemptCtx)
	})
}

// SplitScheme splits a reference into scheme and rest. References without
// a scheme prefix (bare paths) return an empty scheme.
func SplitScheme(ref string) (scheme, rest string) {
	i := strings.IndexByte(ref, ':')
	if i <= 0 {
		return "", ref
	}
	prefix := ref[:i]
	// A path separator before the colon means this is a path, not a scheme.
	if strings.ContainsAny(prefix, "/\\") {
		return "", ref
	}
	return prefix, ref[i+1:]
}
