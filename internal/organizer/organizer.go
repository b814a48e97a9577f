package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/services"
)

const (
	// LockFileName is created at the library root while a run is active.
	LockFileName = ".bookshelf.lock"
	// UncategorizedDir receives books whose metadata cannot fill the template.
	UncategorizedDir = "__uncategorized__"
)

// Organizer executes plans against one library root.
type Organizer struct {
	root   string
	logger *slog.Logger
	index  bool
	newID  func() string
}

// Option configures an Organizer.
type Option func(*Organizer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Organizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithIndex enables or disables library index updates. Enabled by default.
func WithIndex(enabled bool) Option {
	return func(o *Organizer) {
		o.index = enabled
	}
}

// New returns an organizer for the library at root.
func New(root string, opts ...Option) (*Organizer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve library root: %w", err)
	}
	o := &Organizer{
		root:   abs,
		logger: logging.NewNop(),
		index:  true,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "organizer")
	return o, nil
}

// Root returns the absolute library root.
func (o *Organizer) Root() string {
	return o.root
}

// begin creates the root, takes the library lock and tags ctx with a run id.
func (o *Organizer) begin(ctx context.Context, stage string) (context.Context, *slog.Logger, func(), error) {
	if err := os.MkdirAll(o.root, 0o755); err != nil {
		return nil, nil, nil, services.Wrap(services.ErrConfiguration, stage, "create library root", o.root, err)
	}
	lockPath := filepath.Join(o.root, LockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, nil, nil, services.Wrap(services.ErrConflict, stage, "acquire lock",
			"another bookshelf run is using "+o.root, nil)
	}

	runID := o.newID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithStage(ctx, stage)
	logger := logging.WithContext(ctx, o.logger)
	release := func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release library lock", "lock_release_failed",
				logging.String(logging.FieldPath, lockPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no other run is active"),
			)
		}
	}
	return ctx, logger, release, nil
}

// openIndex opens the library index. create controls whether a missing index
// is created. Failures are logged and yield nil so file operations proceed.
func (o *Organizer) openIndex(ctx context.Context, logger *slog.Logger, create bool) *library.Store {
	if !o.index {
		return nil
	}
	if !create {
		if _, err := os.Stat(filepath.Join(o.root, library.DBFileName)); errors.Is(err, os.ErrNotExist) {
			return nil
		}
	}
	store, err := library.Open(ctx, o.root)
	if err != nil {
		logging.WarnWithContext(logger, "library index unavailable", "index_open_failed",
			logging.String(logging.FieldPath, o.root),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'bookshelf index --full' after fixing the index"),
			logging.String(logging.FieldImpact, "index not updated for this run"),
		)
		return nil
	}
	return store
}

func (o *Organizer) relative(path string) string {
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
