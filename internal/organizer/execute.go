package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/fileutil"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/metadata"
	"bookshelf/internal/planner"
	"bookshelf/internal/services"
)

// ExecuteOptions controls Execute.
type ExecuteOptions struct {
	// AllowUncategorized copies uncategorized books into UncategorizedDir
	// instead of refusing the plan.
	AllowUncategorized bool
	// Metadata supplies index rows, keyed by source path.
	Metadata map[string]metadata.Record
	// Progress is called after each book is copied.
	Progress func(done, total int, dest string)
}

// Report summarizes a run.
type Report struct {
	RunID            string   `json:"run_id"`
	Copied           []string `json:"copied"`
	Uncategorized    []string `json:"uncategorized,omitempty"`
	AuxiliaryCopied  int      `json:"auxiliary_copied"`
	AuxiliarySkipped []string `json:"auxiliary_skipped,omitempty"`
	AlreadyPresent   int      `json:"already_present"`
	Indexed          int      `json:"indexed"`
	Warnings         []string `json:"warnings,omitempty"`
}

// Execute copies every planned operation into the library. It refuses plans
// with conflicts, and plans with uncategorized books unless allowed. The
// first copy failure stops the run; the report then covers the work done.
func (o *Organizer) Execute(ctx context.Context, plan planner.Plan, opts ExecuteOptions) (Report, error) {
	if len(plan.Conflicts) > 0 {
		return Report{}, services.Wrap(services.ErrConflict, "organize", "execute",
			fmt.Sprintf("%d destination conflict(s) must be resolved first", len(plan.Conflicts)), nil)
	}
	if len(plan.Uncategorized) > 0 && !opts.AllowUncategorized {
		return Report{}, services.Wrap(services.ErrValidation, "organize", "execute",
			fmt.Sprintf("%d file(s) are missing metadata; allow uncategorized files to continue", len(plan.Uncategorized)), nil)
	}

	if err := o.validateOperations(plan.Operations); err != nil {
		return Report{}, err
	}

	ctx, logger, release, err := o.begin(ctx, "organize")
	if err != nil {
		return Report{}, err
	}
	defer release()

	runID, _ := services.RunIDFromContext(ctx)
	report := Report{RunID: runID}
	logger.Info("organize run started",
		logging.String(logging.FieldDest, o.root),
		logging.Int("operations", len(plan.Operations)),
		logging.Int("uncategorized", len(plan.Uncategorized)),
	)

	type indexed struct {
		dest   string
		digest string
		record metadata.Record
	}
	var rows []indexed

	total := len(plan.Operations)
	for i, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		digest, err := copyBook(op.Source, op.Dest)
		if err != nil {
			logging.ErrorWithContext(logger, "copy failed; organize run stopped", "organize_copy_failed",
				logging.String(logging.FieldPath, op.Source),
				logging.String(logging.FieldDest, op.Dest),
				logging.Int("copied", len(report.Copied)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the library, then re-run organize"),
			)
			return report, services.Wrap(services.ErrExternalTool, "organize", "copy", op.Source, err)
		}
		report.Copied = append(report.Copied, op.Dest)
		o.writeSidecar(logger, op.Dest, digest)
		logger.Info("book copied",
			logging.String(logging.FieldPath, op.Source),
			logging.String(logging.FieldDest, op.Dest),
		)

		for _, aux := range op.Auxiliary {
			copied, err := copyAuxiliary(aux)
			if err != nil {
				return report, services.Wrap(services.ErrExternalTool, "organize", "copy auxiliary", aux.Source, err)
			}
			if copied {
				report.AuxiliaryCopied++
			} else {
				report.AuxiliarySkipped = append(report.AuxiliarySkipped, aux.Dest)
			}
		}
		rows = append(rows, indexed{dest: op.Dest, digest: digest, record: opts.Metadata[op.Source]})
		if opts.Progress != nil {
			opts.Progress(i+1, total, op.Dest)
		}
	}

	if opts.AllowUncategorized {
		for _, file := range plan.Uncategorized {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			dest := filepath.Join(o.root, UncategorizedDir, filepath.Base(file.Source))
			digest, err := copyBook(file.Source, dest)
			if errors.Is(err, fs.ErrExist) {
				report.Warnings = append(report.Warnings, fmt.Sprintf("%s already exists; skipped", dest))
				continue
			}
			if err != nil {
				return report, services.Wrap(services.ErrExternalTool, "organize", "copy uncategorized", file.Source, err)
			}
			o.writeSidecar(logger, dest, digest)
			report.Uncategorized = append(report.Uncategorized, dest)
		}
	}

	report.Warnings = append(report.Warnings, verifyDirectories(plan.Operations)...)
	report.AlreadyPresent = len(plan.AlreadyPresent)

	if index := o.openIndex(ctx, logger, true); index != nil {
		defer index.Close()
		for _, row := range rows {
			info, err := os.Stat(row.dest)
			if err != nil {
				continue
			}
			if err := index.Upsert(ctx, o.relative(row.dest), info.Size(), row.digest, row.record); err != nil {
				o.warnIndex(logger, row.dest, err)
				continue
			}
			report.Indexed++
		}
		for _, present := range plan.AlreadyPresent {
			if err := o.touchOrInsert(ctx, index, present); err != nil {
				o.warnIndex(logger, present.Dest, err)
				continue
			}
			report.Indexed++
		}
	}

	logger.Info("organize run finished",
		logging.Int("copied", len(report.Copied)),
		logging.Int("auxiliary", report.AuxiliaryCopied),
		logging.Int("indexed", report.Indexed),
	)
	return report, nil
}

func (o *Organizer) touchOrInsert(ctx context.Context, index *library.Store, present planner.AlreadyPresent) error {
	rel := o.relative(present.Dest)
	found, err := index.Touch(ctx, rel)
	if err != nil || found {
		return err
	}
	info, err := os.Stat(present.Dest)
	if err != nil {
		return err
	}
	return index.Upsert(ctx, rel, info.Size(), present.Hash, metadata.Record{})
}

func (o *Organizer) writeSidecar(logger *slog.Logger, path, digest string) {
	if err := contenthash.WriteSidecar(path, digest); err != nil {
		logging.WarnWithContext(logger, "failed to write hash sidecar", "hash_sidecar_write_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'bookshelf rehash' on the library"),
			logging.String(logging.FieldImpact, "next plan hashes this file again"),
		)
	}
}

func (o *Organizer) warnIndex(logger *slog.Logger, path string, err error) {
	logging.WarnWithContext(logger, "library index update failed", "index_update_failed",
		logging.String(logging.FieldPath, path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run 'bookshelf index' on the library"),
		logging.String(logging.FieldImpact, "search results may be stale"),
	)
}

func copyBook(src, dest string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	return fileutil.CopyFileVerified(src, dest)
}

// copyAuxiliary reports false when the destination already existed.
func copyAuxiliary(aux planner.AuxiliaryMove) (bool, error) {
	if _, err := os.Lstat(aux.Dest); err == nil {
		return false, nil
	}
	if _, err := copyBook(aux.Source, aux.Dest); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// verifyDirectories flags destination directories that ended up holding
// more than one book.
func verifyDirectories(ops []planner.PlannedOperation) []string {
	seen := make(map[string]bool)
	var warnings []string
	for _, op := range ops {
		dir := filepath.Dir(op.Dest)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		var books []string
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".m4b") {
				books = append(books, entry.Name())
			}
		}
		if len(books) > 1 {
			warnings = append(warnings, fmt.Sprintf("%s holds %d books: %s", dir, len(books), strings.Join(books, ", ")))
		}
	}
	return warnings
}
