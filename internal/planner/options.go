package planner

import (
	"log/slog"
	"runtime"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/logging"
)

// Hasher returns a content digest for a path.
type Hasher interface {
	Hash(path string) (string, error)
}

// ProgressKind identifies what the planner is doing.
type ProgressKind int

const (
	HashingSource ProgressKind = iota
	HashingDest
)

func (k ProgressKind) String() string {
	switch k {
	case HashingSource:
		return "hashing source"
	case HashingDest:
		return "hashing destination"
	default:
		return "unknown"
	}
}

// Progress is delivered before each hash computation. Callbacks are never
// invoked concurrently.
type Progress struct {
	Kind ProgressKind
	Path string
}

// Option configures a planning run.
type Option func(*options)

type options struct {
	hasher      Hasher
	progress    func(Progress)
	logger      *slog.Logger
	concurrency int
}

// WithHasher replaces the default sidecar-caching hasher.
func WithHasher(h Hasher) Option {
	return func(o *options) {
		if h != nil {
			o.hasher = h
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn func(Progress)) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithLogger sets the logger used for planning decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithConcurrency bounds the number of files hashed at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = logging.NewComponentLogger(o.logger, "planner")
	if o.hasher == nil {
		o.hasher = contenthash.NewHasher(true, o.logger)
	}
	return o
}
