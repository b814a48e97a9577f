package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/fileutil"
	"bookshelf/internal/logging"
	"bookshelf/internal/planner"
	"bookshelf/internal/services"
)

// FixReport summarizes ApplyFix.
type FixReport struct {
	RunID            string   `json:"run_id"`
	Moved            []string `json:"moved"`
	AuxiliaryMoved   int      `json:"auxiliary_moved"`
	AuxiliarySkipped []string `json:"auxiliary_skipped,omitempty"`
	RemovedDirs      []string `json:"removed_dirs,omitempty"`
	Reindexed        int      `json:"reindexed"`
}

// ApplyFix renames misplaced books inside the library. Sidecars move with
// their book, directories left empty are removed up to the library root and
// existing index rows follow the new paths. A fix plan with conflicts is
// refused.
func (o *Organizer) ApplyFix(ctx context.Context, plan planner.FixPlan) (FixReport, error) {
	if plan.HasIssues() {
		return FixReport{}, services.Wrap(services.ErrConflict, "fix", "apply",
			fmt.Sprintf("%d destination conflict(s) must be resolved first", len(plan.Conflicts)), nil)
	}

	if err := o.validateOperations(plan.Moves); err != nil {
		return FixReport{}, err
	}

	ctx, logger, release, err := o.begin(ctx, "fix")
	if err != nil {
		return FixReport{}, err
	}
	defer release()

	runID, _ := services.RunIDFromContext(ctx)
	report := FixReport{RunID: runID}
	index := o.openIndex(ctx, logger, false)
	if index != nil {
		defer index.Close()
	}

	for _, move := range plan.Moves {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := os.MkdirAll(filepath.Dir(move.Dest), 0o755); err != nil {
			return report, services.Wrap(services.ErrExternalTool, "fix", "create directory", filepath.Dir(move.Dest), err)
		}
		if err := fileutil.MoveFile(move.Source, move.Dest); err != nil {
			logging.ErrorWithContext(logger, "move failed; fix run stopped", "fix_move_failed",
				logging.String(logging.FieldPath, move.Source),
				logging.String(logging.FieldDest, move.Dest),
				logging.Int("moved", len(report.Moved)),
				logging.Error(err),
			)
			return report, services.Wrap(services.ErrExternalTool, "fix", "move", move.Source, err)
		}
		report.Moved = append(report.Moved, move.Dest)
		logger.Info("book moved",
			logging.String(logging.FieldPath, move.Source),
			logging.String(logging.FieldDest, move.Dest),
		)

		if err := moveSidecar(move.Source, move.Dest); err != nil {
			logging.WarnWithContext(logger, "failed to move hash sidecar", "hash_sidecar_move_failed",
				logging.String(logging.FieldPath, move.Source),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'bookshelf clean' and 'bookshelf rehash'"),
			)
		}

		for _, aux := range move.Auxiliary {
			if _, err := os.Lstat(aux.Dest); err == nil {
				report.AuxiliarySkipped = append(report.AuxiliarySkipped, aux.Dest)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(aux.Dest), 0o755); err != nil {
				return report, services.Wrap(services.ErrExternalTool, "fix", "create directory", filepath.Dir(aux.Dest), err)
			}
			if err := fileutil.MoveFile(aux.Source, aux.Dest); err != nil {
				return report, services.Wrap(services.ErrExternalTool, "fix", "move auxiliary", aux.Source, err)
			}
			report.AuxiliaryMoved++
		}

		removed, err := fileutil.RemoveEmptyParents(filepath.Dir(move.Source), o.root)
		report.RemovedDirs = append(report.RemovedDirs, removed...)
		if err != nil {
			logger.Debug("empty directory cleanup stopped",
				logging.String(logging.FieldPath, filepath.Dir(move.Source)),
				logging.Error(err),
			)
		}

		if index != nil {
			moved, err := index.UpdatePath(ctx, o.relative(move.Source), o.relative(move.Dest))
			if err != nil {
				o.warnIndex(logger, move.Dest, err)
			} else if moved {
				report.Reindexed++
			}
		}
	}

	logger.Info("fix run finished",
		logging.Int("moved", len(report.Moved)),
		logging.Int("removed_dirs", len(report.RemovedDirs)),
	)
	return report, nil
}

func moveSidecar(src, dest string) error {
	from := contenthash.SidecarPath(src)
	fromInfo, err := os.Lstat(from)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	to := contenthash.SidecarPath(dest)
	if toInfo, err := os.Lstat(to); err == nil && !os.SameFile(fromInfo, toInfo) {
		if err := os.Remove(to); err != nil {
			return err
		}
	}
	return fileutil.MoveFile(from, to)
}
